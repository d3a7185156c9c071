package engine

import (
	"fmt"
	"sync"
	"time"

	"tradinglions/internal/logger"
	"tradinglions/internal/types"
)

// Registry is the mutex-guarded set of submitted orders still awaiting a
// result. Removal and resolution happen in one step under the lock so the
// push and poll channels cannot both settle the same order.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*types.Order
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[string]*types.Order)}
}

// Register tracks an order until resolution. Re-registering an existing
// trade id is allowed except when it would erase a known broker reference
// with an empty one; that re-registration is dropped.
func (r *Registry) Register(order *types.Order) error {
	if r == nil || order == nil {
		return fmt.Errorf("registry: nil order")
	}
	if order.TradeID == "" {
		return fmt.Errorf("registry: order without trade id")
	}
	if order.ExpiresAt.IsZero() {
		order.ExpiresAt = ExpiryFor(order.OpenedAt, order.Duration)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.pending[order.TradeID]; ok {
		if existing.BrokerRef != "" && order.BrokerRef == "" {
			logger.Debugf("registry: keep %s, refusing empty ref overwrite", order.TradeID)
			return nil
		}
	}
	r.pending[order.TradeID] = order
	return nil
}

// ExpiryFor computes when an option settles: open time plus the contract
// duration, never less than one minute.
func ExpiryFor(openedAt time.Time, durationMin int) time.Time {
	if openedAt.IsZero() {
		openedAt = time.Now()
	}
	if durationMin < 1 {
		durationMin = 1
	}
	return openedAt.Add(time.Duration(durationMin) * time.Minute)
}

// ResolveAndRemove claims the order for resolution. The second return is
// false when the order was already claimed by the other channel.
func (r *Registry) ResolveAndRemove(tradeID string) (*types.Order, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.pending[tradeID]
	if !ok {
		return nil, false
	}
	delete(r.pending, tradeID)
	return order, true
}

// Claim removes and returns the first pending order matching pred.
func (r *Registry) Claim(pred func(*types.Order) bool) (*types.Order, bool) {
	if r == nil || pred == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, order := range r.pending {
		if pred(order) {
			delete(r.pending, id)
			return order, true
		}
	}
	return nil, false
}

// SetRef records a lazily derived broker reference on a still-pending order.
func (r *Registry) SetRef(tradeID, ref string) bool {
	if r == nil || ref == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.pending[tradeID]
	if !ok {
		return false
	}
	order.BrokerRef = ref
	return true
}

// Snapshot copies the pending set so callers can inspect it without holding
// the lock during I/O.
func (r *Registry) Snapshot() []types.Order {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Order, 0, len(r.pending))
	for _, order := range r.pending {
		out = append(out, *order)
	}
	return out
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// OldestOpen reports the open time of the longest-pending order.
func (r *Registry) OldestOpen() (time.Time, bool) {
	if r == nil {
		return time.Time{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var oldest time.Time
	for _, order := range r.pending {
		if oldest.IsZero() || order.OpenedAt.Before(oldest) {
			oldest = order.OpenedAt
		}
	}
	return oldest, !oldest.IsZero()
}
