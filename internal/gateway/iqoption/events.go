package iqoption

import (
	"github.com/tidwall/gjson"

	"tradinglions/internal/gateway/broker"
)

// Websocket frame names the bridge relays from the broker.
const (
	frameOptionClosed    = "option-closed"
	framePositionChanged = "position-changed"
)

// ParseFrame splits a raw websocket frame into its event name and body.
// Frames without a name are not broker events and report ok=false.
func ParseFrame(raw []byte) (string, gjson.Result, bool) {
	if !gjson.ValidBytes(raw) {
		return "", gjson.Result{}, false
	}
	frame := gjson.ParseBytes(raw)
	name := frame.Get("name").String()
	if name == "" {
		return "", gjson.Result{}, false
	}
	return name, frame.Get("msg"), true
}

// ParseClosure maps an option-closed body onto the engine's closure event.
// Field names drift between broker versions, so every value is probed
// through a list of known aliases.
func ParseClosure(msg gjson.Result) broker.ClosureEvent {
	ev := broker.ClosureEvent{
		RawID:        firstValue(msg, "id", "option_id", "position_id", "external_id"),
		Asset:        firstString(msg, "active", "asset"),
		Result:       firstString(msg, "result", "win"),
		ProfitAmount: firstFloat(msg, "profit_amount", "profit", "pnl"),
		WinAmount:    msg.Get("win_amount").Float(),
		Amount:       msg.Get("amount").Float(),
		Value:        firstFloat(msg, "value", "close_price"),
		OpenedAt:     firstInt(msg, "open_time", "created"),
		ClosedAt:     firstInt(msg, "close_time", "actual_expire", "expiration_time"),
	}
	if raw, ok := msg.Value().(map[string]any); ok {
		ev.Raw = raw
	}
	return ev
}

// ParsePositionChange maps a position-changed body. These events are
// diagnostic; the position payload may be nested one level down.
func ParsePositionChange(msg gjson.Result) broker.PositionChange {
	if pos := msg.Get("position"); pos.Exists() {
		msg = pos
	}
	ev := broker.PositionChange{
		RawID:  firstValue(msg, "id", "option_id", "external_id"),
		Asset:  firstString(msg, "active", "asset", "instrument_id"),
		Status: msg.Get("status").String(),
	}
	if raw, ok := msg.Value().(map[string]any); ok {
		ev.Raw = raw
	}
	return ev
}

func firstValue(msg gjson.Result, keys ...string) any {
	for _, key := range keys {
		if v := msg.Get(key); v.Exists() && v.Type != gjson.Null {
			return v.Value()
		}
	}
	return nil
}

func firstString(msg gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := msg.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func firstFloat(msg gjson.Result, keys ...string) float64 {
	for _, key := range keys {
		if v := msg.Get(key); v.Exists() && v.Type != gjson.Null {
			return v.Float()
		}
	}
	return 0
}

func firstInt(msg gjson.Result, keys ...string) int64 {
	for _, key := range keys {
		if v := msg.Get(key); v.Exists() && v.Type != gjson.Null {
			// Millisecond timestamps get scaled down to seconds.
			n := v.Int()
			if n > 1_000_000_000_000 {
				n /= 1000
			}
			return n
		}
	}
	return 0
}
