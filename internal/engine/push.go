package engine

import (
	"time"

	"tradinglions/internal/gateway/broker"
	"tradinglions/internal/logger"
	"tradinglions/internal/types"
)

const defaultMatchWindow = 2 * time.Second

// PushResolver settles pending orders from broker closure events. An event
// claims its order by exact broker reference when it carries one, otherwise
// by open-time proximity within the match window.
type PushResolver struct {
	registry *Registry
	resolver *Resolver
	window   time.Duration
}

func NewPushResolver(registry *Registry, resolver *Resolver, window time.Duration) *PushResolver {
	if window <= 0 {
		window = defaultMatchWindow
	}
	return &PushResolver{registry: registry, resolver: resolver, window: window}
}

// HandleClosure consumes one option-closed event. Events without any usable
// timestamp are dropped. Resolution I/O runs after the claim, outside the
// registry lock.
func (p *PushResolver) HandleClosure(ev broker.ClosureEvent) {
	if p == nil || p.registry == nil {
		return
	}
	eventTS := ev.OpenedAt
	if eventTS == 0 {
		eventTS = ev.ClosedAt
	}
	if eventTS == 0 && ev.Ref() == "" {
		logger.Debugf("push: closure event without id or timestamp, dropped")
		return
	}

	order, ok := p.claim(ev, eventTS)
	if !ok {
		logger.Debugf("push: closure event %s matched no pending order", ev.Ref())
		return
	}

	profit := ProfitEvidence(ev.ProfitAmount, ev.WinAmount, ev.Amount)
	closedAt := time.Time{}
	if ev.ClosedAt > 0 {
		closedAt = time.Unix(ev.ClosedAt, 0)
	}
	p.resolver.Settle(order, ev.Result, signedProfit(ev, profit), ev.Value, closedAt, "push")
}

// signedProfit keeps the sign the broker sent when the event has no label;
// the sign is the only outcome evidence in that case.
func signedProfit(ev broker.ClosureEvent, profit float64) float64 {
	if _, ok := NormalizeLabel(ev.Result); ok {
		return profit
	}
	if ev.ProfitAmount != 0 {
		return ev.ProfitAmount
	}
	return profit
}

func (p *PushResolver) claim(ev broker.ClosureEvent, eventTS int64) (*types.Order, bool) {
	if ref := ev.Ref(); ref != "" {
		if order, ok := p.registry.Claim(func(o *types.Order) bool {
			return o.BrokerRef != "" && o.BrokerRef == ref
		}); ok {
			return order, true
		}
	}
	if eventTS == 0 {
		return nil, false
	}
	return p.registry.Claim(func(o *types.Order) bool {
		delta := o.OpenedAt.Unix() - eventTS
		if delta < 0 {
			delta = -delta
		}
		return time.Duration(delta)*time.Second <= p.window
	})
}

// HandlePositionChange logs position updates for diagnosis. It never
// resolves anything; settlement waits for the closure event or the poller.
func (p *PushResolver) HandlePositionChange(ev broker.PositionChange) {
	logger.Debugf("push: position %s status=%s asset=%s", ev.Ref(), ev.Status, ev.Asset)
}
