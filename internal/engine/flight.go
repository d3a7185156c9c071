package engine

import "sync"

// Flight enforces the one-live-order rule. The bot acquires it before a
// submission attempt and releases it once the order's contract window has
// elapsed, which reopens scanning while the watcher keeps chasing the
// result.
type Flight struct {
	mu      sync.Mutex
	busy    bool
	tradeID string
}

// TryAcquire claims the flight slot. It fails while an order is live.
func (f *Flight) TryAcquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return false
	}
	f.busy = true
	f.tradeID = ""
	return true
}

// Bind names the order currently holding the slot.
func (f *Flight) Bind(tradeID string) {
	f.mu.Lock()
	f.tradeID = tradeID
	f.mu.Unlock()
}

// Release frees the slot. Safe to call when not held.
func (f *Flight) Release() {
	f.mu.Lock()
	f.busy = false
	f.tradeID = ""
	f.mu.Unlock()
}

func (f *Flight) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// Current returns the trade id holding the slot, if any.
func (f *Flight) Current() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tradeID, f.busy
}
