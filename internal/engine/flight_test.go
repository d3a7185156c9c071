package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tradinglions/internal/types"
)

func TestFlightSingleSlot(t *testing.T) {
	var f Flight
	assert.True(t, f.TryAcquire())
	assert.False(t, f.TryAcquire())

	f.Bind("EURUSD-OTC-1")
	id, busy := f.Current()
	assert.True(t, busy)
	assert.Equal(t, "EURUSD-OTC-1", id)

	f.Release()
	assert.False(t, f.Busy())
	assert.True(t, f.TryAcquire())
}

func TestStatsRecord(t *testing.T) {
	var s Stats
	now := time.Now()
	s.Record(types.Resolution{Outcome: types.OutcomeWin, Profit: 0.8, ClosedAt: now})
	s.Record(types.Resolution{Outcome: types.OutcomeLoss, Profit: -1, ClosedAt: now.Add(time.Second)})
	s.Record(types.Resolution{Outcome: types.OutcomeDraw, ClosedAt: now})

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Wins)
	assert.Equal(t, 1, snap.Losses)
	assert.Equal(t, 1, snap.Draws)
	assert.Equal(t, 3, snap.Resolved)
	assert.InDelta(t, -0.2, snap.Profit, 1e-9)
	assert.InDelta(t, 0.5, snap.WinRate, 1e-9)
	assert.Equal(t, now.Add(time.Second), snap.LastClose)
}
