package types

import (
	"time"
)

// Direction is the side of a binary option entry.
type Direction string

const (
	DirectionCall Direction = "call"
	DirectionPut  Direction = "put"
)

// Valid reports whether d is one of the two accepted sides.
func (d Direction) Valid() bool {
	return d == DirectionCall || d == DirectionPut
}

// Outcome is the terminal result of a binary option.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
	OutcomeDraw Outcome = "DRAW"
)

// Order is a submitted binary option tracked until resolution.
type Order struct {
	TradeID    string         `json:"trade_id"`
	Asset      string         `json:"asset"`
	Direction  Direction      `json:"direction"`
	Stake      float64        `json:"stake"`
	Payout     float64        `json:"payout"`
	Duration   int            `json:"duration"` // minutes
	BrokerRef  string         `json:"broker_ref"`
	RawRef     any            `json:"-"`
	EntryPrice float64        `json:"entry_price"`
	Regime     string         `json:"regime,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Pattern    string         `json:"pattern,omitempty"`
	Score      float64        `json:"score,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
	OpenedAt   time.Time      `json:"opened_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Resolution is the settled result of an order, produced exactly once.
type Resolution struct {
	Order      *Order    `json:"order"`
	Outcome    Outcome   `json:"outcome"`
	Profit     float64   `json:"profit"`
	ClosePrice float64   `json:"close_price,omitempty"`
	ClosedAt   time.Time `json:"closed_at"`
	Source     string    `json:"source"` // push or poll
}

// DurationSec reports how long the order was live.
func (r Resolution) DurationSec() float64 {
	if r.Order == nil || r.Order.OpenedAt.IsZero() {
		return 0
	}
	return r.ClosedAt.Sub(r.Order.OpenedAt).Seconds()
}
