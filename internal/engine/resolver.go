package engine

import (
	"time"

	"tradinglions/internal/journal"
	"tradinglions/internal/logger"
	"tradinglions/internal/types"
)

// Resolver is the single exit path for claimed orders: it derives the final
// outcome, writes the close record and fans the resolution out to hooks.
// Callers must have already removed the order from the registry.
type Resolver struct {
	sink  journal.Sink
	hooks []func(types.Resolution)
}

func NewResolver(sink journal.Sink) *Resolver {
	return &Resolver{sink: sink}
}

// OnResolved registers a hook invoked after every resolution. Hooks run on
// the resolving goroutine; a panicking hook is contained.
func (r *Resolver) OnResolved(hook func(types.Resolution)) {
	if r == nil || hook == nil {
		return
	}
	r.hooks = append(r.hooks, hook)
}

// Settle finalizes a claimed order. label and profit are the broker's
// evidence; closedAt falls back to now.
func (r *Resolver) Settle(order *types.Order, label string, profit, closePrice float64, closedAt time.Time, source string) types.Resolution {
	outcome, realized := DeriveOutcome(order, label, profit)
	if closedAt.IsZero() {
		closedAt = time.Now()
	}
	res := types.Resolution{
		Order:      order,
		Outcome:    outcome,
		Profit:     realized,
		ClosePrice: closePrice,
		ClosedAt:   closedAt,
		Source:     source,
	}

	if r != nil && r.sink != nil {
		if err := r.sink.LogClose(res); err != nil {
			logger.Warnf("resolver: close record for %s not persisted: %v", order.TradeID, err)
		}
	}
	if r != nil {
		for _, hook := range r.hooks {
			runHook(hook, res)
		}
	}
	logger.Infof("resolved %s outcome=%s profit=%.2f source=%s", order.TradeID, outcome, realized, source)
	return res
}

func runHook(hook func(types.Resolution), res types.Resolution) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("resolver: hook panic: %v", rec)
		}
	}()
	hook(res)
}
