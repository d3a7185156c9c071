package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/types"
)

func newTestOrder(tradeID, ref string) *types.Order {
	now := time.Now()
	return &types.Order{
		TradeID:   tradeID,
		Asset:     "EURUSD-OTC",
		Direction: types.DirectionCall,
		Stake:     1,
		Payout:    0.8,
		Duration:  1,
		BrokerRef: ref,
		OpenedAt:  now,
		ExpiresAt: now.Add(time.Minute),
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	t.Run("rejects empty trade id", func(t *testing.T) {
		assert.Error(t, r.Register(&types.Order{}))
	})

	t.Run("registers and snapshots", func(t *testing.T) {
		require.NoError(t, r.Register(newTestOrder("EURUSD-OTC-101", "101")))
		assert.Equal(t, 1, r.Len())
		snap := r.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, "101", snap[0].BrokerRef)
	})

	t.Run("re-registration cannot erase a broker ref", func(t *testing.T) {
		require.NoError(t, r.Register(newTestOrder("EURUSD-OTC-101", "")))
		snap := r.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, "101", snap[0].BrokerRef)
	})

	t.Run("re-registration with a ref replaces", func(t *testing.T) {
		updated := newTestOrder("EURUSD-OTC-101", "101")
		updated.Stake = 2
		require.NoError(t, r.Register(updated))
		snap := r.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, 2.0, snap[0].Stake)
	})
}

func TestRegistryExpiryDefault(t *testing.T) {
	opened := time.Unix(1_700_000_000, 0)

	t.Run("duration below one minute clamps", func(t *testing.T) {
		assert.Equal(t, opened.Add(time.Minute), ExpiryFor(opened, 0))
	})

	t.Run("five minute contract", func(t *testing.T) {
		assert.Equal(t, opened.Add(5*time.Minute), ExpiryFor(opened, 5))
	})

	t.Run("register fills a zero expiry", func(t *testing.T) {
		r := NewRegistry()
		o := newTestOrder("EURUSD-OTC-7", "7")
		o.ExpiresAt = time.Time{}
		o.Duration = 1
		require.NoError(t, r.Register(o))
		snap := r.Snapshot()
		require.Len(t, snap, 1)
		assert.Equal(t, o.OpenedAt.Add(time.Minute), snap[0].ExpiresAt)
	})
}

func TestRegistryResolveAndRemove(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newTestOrder("EURUSD-OTC-55", "55")))

	order, ok := r.ResolveAndRemove("EURUSD-OTC-55")
	require.True(t, ok)
	assert.Equal(t, "55", order.BrokerRef)

	_, ok = r.ResolveAndRemove("EURUSD-OTC-55")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

// Both channels race for the same order; exactly one claim may succeed.
func TestRegistryClaimIsExclusive(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newTestOrder("EURUSD-OTC-9", "9")))

	const racers = 16
	var wg sync.WaitGroup
	claims := make(chan *types.Order, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if order, ok := r.ResolveAndRemove("EURUSD-OTC-9"); ok {
				claims <- order
			}
		}()
	}
	wg.Wait()
	close(claims)
	assert.Len(t, claims, 1)
}

func TestRegistrySetRef(t *testing.T) {
	r := NewRegistry()
	o := newTestOrder("EURUSD-OTC-33", "")
	require.NoError(t, r.Register(o))

	assert.True(t, r.SetRef("EURUSD-OTC-33", "33"))
	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "33", snap[0].BrokerRef)

	assert.False(t, r.SetRef("missing", "1"))
	assert.False(t, r.SetRef("EURUSD-OTC-33", ""))
}

func TestRegistryOldestOpen(t *testing.T) {
	r := NewRegistry()
	_, ok := r.OldestOpen()
	assert.False(t, ok)

	older := newTestOrder("A-1", "1")
	older.OpenedAt = time.Now().Add(-3 * time.Minute)
	newer := newTestOrder("A-2", "2")
	require.NoError(t, r.Register(older))
	require.NoError(t, r.Register(newer))

	got, ok := r.OldestOpen()
	require.True(t, ok)
	assert.Equal(t, older.OpenedAt, got)
}
