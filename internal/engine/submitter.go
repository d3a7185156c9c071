package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/journal"
	"tradinglions/internal/logger"
	"tradinglions/internal/pkg/convert"
	"tradinglions/internal/types"
)

const (
	submitAttempts   = 3
	submitRetryDelay = 300 * time.Millisecond
)

// EntryRequest describes one order to place. Regime, reason, pattern, score
// and context are carried opaquely into the journal.
type EntryRequest struct {
	Asset      string
	Direction  types.Direction
	Stake      float64
	Payout     float64
	EntryPrice float64
	Regime     string
	Reason     string
	Pattern    string
	Score      float64
	Context    map[string]any
}

// Submitter places orders with bounded retries and hands accepted ones to
// the registry. Journal and registry failures after acceptance are logged,
// never propagated: once the broker took the order we must track it.
type Submitter struct {
	client   broker.Client
	registry *Registry
	sink     journal.Sink
	duration int // minutes

	retryDelay time.Duration
	wake       func()
}

func NewSubmitter(client broker.Client, registry *Registry, sink journal.Sink, durationMin int) *Submitter {
	if durationMin < 1 {
		durationMin = 1
	}
	return &Submitter{
		client:     client,
		registry:   registry,
		sink:       sink,
		duration:   durationMin,
		retryDelay: submitRetryDelay,
	}
}

// OnRegistered sets a callback fired after an accepted order lands in the
// registry, typically the fallback poller's trigger.
func (s *Submitter) OnRegistered(fn func()) {
	if s != nil {
		s.wake = fn
	}
}

// Submit places the order, retrying rejected or failed attempts. It returns
// the tracked order, or an error when every attempt failed.
func (s *Submitter) Submit(ctx context.Context, req EntryRequest) (*types.Order, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("submitter: no broker client")
	}
	if req.Asset == "" {
		return nil, fmt.Errorf("submitter: empty asset")
	}
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("submitter: direction must be call or put, got %q", req.Direction)
	}
	if req.Stake <= 0 {
		return nil, fmt.Errorf("submitter: stake must be positive, got %v", req.Stake)
	}

	// One correlation id for the whole attempt series, so a bridge that saw a
	// timed-out first attempt can drop the retry instead of double-opening.
	place := broker.PlaceRequest{
		Asset:     req.Asset,
		Direction: req.Direction,
		Stake:     req.Stake,
		Duration:  s.duration,
		RequestID: uuid.NewString(),
	}

	var lastErr error
	for attempt := 1; attempt <= submitAttempts; attempt++ {
		res, err := s.client.PlaceOption(ctx, place)
		if err == nil && res.Accepted && res.Ref() != "" {
			return s.accepted(req, res), nil
		}
		if err != nil {
			lastErr = err
			logger.Warnf("submitter: attempt %d/%d on %s failed: %v", attempt, submitAttempts, req.Asset, err)
		} else {
			lastErr = fmt.Errorf("broker rejected order")
			logger.Warnf("submitter: attempt %d/%d on %s rejected", attempt, submitAttempts, req.Asset)
		}
		if attempt == submitAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}
	return nil, fmt.Errorf("submitter: %s %s not accepted after %d attempts: %w",
		req.Asset, req.Direction, submitAttempts, lastErr)
}

func (s *Submitter) accepted(req EntryRequest, res broker.PlaceResult) *types.Order {
	now := time.Now()
	ref := convert.String(convert.Unwrap(res.RawRef))
	order := &types.Order{
		TradeID:    req.Asset + "-" + ref,
		Asset:      req.Asset,
		Direction:  req.Direction,
		Stake:      req.Stake,
		Payout:     req.Payout,
		Duration:   s.duration,
		BrokerRef:  ref,
		RawRef:     res.RawRef,
		EntryPrice: req.EntryPrice,
		Regime:     req.Regime,
		Reason:     req.Reason,
		Pattern:    req.Pattern,
		Score:      req.Score,
		Context:    req.Context,
		OpenedAt:   now,
		ExpiresAt:  ExpiryFor(now, s.duration),
	}

	if s.sink != nil {
		if err := s.sink.LogOpen(order); err != nil {
			logger.Warnf("submitter: open record for %s not persisted: %v", order.TradeID, err)
		}
	}
	if s.registry != nil {
		if err := s.registry.Register(order); err != nil {
			logger.Warnf("submitter: register %s: %v", order.TradeID, err)
		}
	}
	if s.wake != nil {
		s.wake()
	}
	logger.Infof("order opened %s dir=%s stake=%.2f payout=%.2f ref=%s",
		order.TradeID, order.Direction, order.Stake, order.Payout, ref)
	return order
}
