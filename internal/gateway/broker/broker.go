// Package broker defines the contracts the trading engine expects from a
// binary options brokerage.
package broker

import (
	"context"

	"tradinglions/internal/pkg/convert"
	"tradinglions/internal/types"
)

type Client interface {
	Name() string

	// PlaceOption opens a binary option and returns the broker's raw order
	// reference. The reference may be a string, a number, or a one-item list.
	PlaceOption(ctx context.Context, req PlaceRequest) (PlaceResult, error)

	// RecentlyClosed lists the broker's most recently settled options, newest
	// first, up to limit entries.
	RecentlyClosed(ctx context.Context, limit int) ([]ClosedOption, error)
}

type Connectivity interface {
	Connected() bool
	Reconnect(ctx context.Context) error
}

type MarketData interface {
	Candles(ctx context.Context, asset string, tf types.Timeframe, count int) ([]types.Candle, error)
	Payout(ctx context.Context, asset string) (float64, error)
}

type PlaceRequest struct {
	Asset     string
	Direction types.Direction
	Stake     float64
	Duration  int // minutes

	// RequestID is a client-generated correlation id. It stays stable across
	// retries of the same logical order so the bridge can deduplicate.
	RequestID string
}

type PlaceResult struct {
	Accepted bool
	RawRef   any
}

// Ref returns the normalized text form of the order reference.
func (r PlaceResult) Ref() string {
	return convert.String(convert.Unwrap(r.RawRef))
}

// ClosedOption is one settled entry from the recently-closed list.
type ClosedOption struct {
	RawID        any
	Asset        string
	Result       string // broker outcome label, e.g. "win", "loose", "equal"
	ProfitAmount float64
	WinAmount    float64
	Amount       float64 // stake
	Value        float64 // settlement price
	ClosedAt     int64   // unix seconds
	Raw          map[string]any
}

// Ref returns the normalized text form of the entry's id, unwrapping the
// one-item list some endpoints use.
func (c ClosedOption) Ref() string {
	return convert.String(convert.Unwrap(c.RawID))
}

// ClosureEvent is a push notification that an option settled.
type ClosureEvent struct {
	RawID        any
	Asset        string
	Result       string
	ProfitAmount float64
	WinAmount    float64
	Amount       float64
	Value        float64
	OpenedAt     int64 // unix seconds
	ClosedAt     int64
	Raw          map[string]any
}

// Ref returns the normalized text form of the event's id.
func (e ClosureEvent) Ref() string {
	return convert.String(convert.Unwrap(e.RawID))
}

// PositionChange is a diagnostic push notification about a live position.
// It never resolves orders.
type PositionChange struct {
	RawID  any
	Asset  string
	Status string
	Raw    map[string]any
}

func (p PositionChange) Ref() string {
	return convert.String(convert.Unwrap(p.RawID))
}
