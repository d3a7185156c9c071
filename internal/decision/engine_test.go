package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/market"
	"tradinglions/internal/types"
)

type stubGate struct {
	prob float64
	err  error
}

func (g stubGate) Score(context.Context, types.Candidate) (float64, error) {
	return g.prob, g.err
}

// trendingMarket loads an uptrending asset whose minute series ends in a
// bullish engulfing bar.
func trendingMarket(asset string) *market.Collector {
	c := market.NewCollector()
	for i := 0; i < 45; i++ {
		px := 1.0 + 0.01*float64(i)
		c.Ingest(asset, types.TimeframeM5, types.Candle{
			From: int64(300 * (i + 1)), Open: px - 0.005,
			High: px + 0.005, Low: px - 0.01, Close: px,
		})
	}
	for i := 0; i < 58; i++ {
		px := 2.0 + 0.0005*float64(i)
		c.Ingest(asset, types.TimeframeM1, types.Candle{
			From: int64(60 * (i + 1)), Open: px - 0.02,
			High: px + 0.02, Low: px - 0.04, Close: px,
		})
	}
	c.Ingest(asset, types.TimeframeM1,
		types.Candle{From: 60 * 59, Open: 2.03, High: 2.05, Low: 2.01, Close: 2.02},
		types.Candle{From: 60 * 60, Open: 2.00, High: 2.10, Low: 1.99, Close: 2.09},
	)
	c.UpdatePayout(asset, 0.85)
	return c
}

func TestEvaluateTrendEntry(t *testing.T) {
	eng := NewEngine(trendingMarket("EURUSD"), nil, DefaultOptions())

	cand, ok := eng.Evaluate(context.Background(), "EURUSD")
	require.True(t, ok)
	assert.Equal(t, "EURUSD", cand.Asset)
	assert.Equal(t, types.DirectionCall, cand.Direction)
	assert.Equal(t, RegimeTrend, cand.Regime)
	assert.Equal(t, "engulfing", cand.Pattern)
	assert.GreaterOrEqual(t, cand.Score, 0.9)
	assert.Equal(t, 0.85, cand.Payout)
	assert.Equal(t, 2.09, cand.Price)

	require.NotNil(t, cand.Context)
	assert.Equal(t, 1.0, cand.Context["prob_win"])
	assert.Contains(t, cand.Context, "bollinger")
	assert.Contains(t, cand.Context, "pivots")
}

func TestEvaluateRejections(t *testing.T) {
	t.Run("short history", func(t *testing.T) {
		c := market.NewCollector()
		c.Ingest("EURUSD", types.TimeframeM1, types.Candle{From: 60, Open: 1, High: 2, Low: 0, Close: 2})
		c.UpdatePayout("EURUSD", 0.85)
		eng := NewEngine(c, nil, DefaultOptions())

		_, ok := eng.Evaluate(context.Background(), "EURUSD")
		assert.False(t, ok)
	})

	t.Run("poor payout", func(t *testing.T) {
		c := trendingMarket("EURUSD")
		c.UpdatePayout("EURUSD", 0.60)
		eng := NewEngine(c, nil, DefaultOptions())

		_, ok := eng.Evaluate(context.Background(), "EURUSD")
		assert.False(t, ok)
	})
}

func TestEvaluateGate(t *testing.T) {
	t.Run("low probability rejects", func(t *testing.T) {
		eng := NewEngine(trendingMarket("EURUSD"), stubGate{prob: 0.2}, DefaultOptions())
		_, ok := eng.Evaluate(context.Background(), "EURUSD")
		assert.False(t, ok)
	})

	t.Run("gate failure admits on score alone", func(t *testing.T) {
		eng := NewEngine(trendingMarket("EURUSD"), stubGate{err: errors.New("down")}, DefaultOptions())
		cand, ok := eng.Evaluate(context.Background(), "EURUSD")
		require.True(t, ok)
		assert.NotContains(t, cand.Context, "prob_win")
	})
}

func TestBestPicksHighestScore(t *testing.T) {
	c := trendingMarket("EURUSD")
	eng := NewEngine(c, nil, DefaultOptions())

	best, ok := eng.Best(context.Background(), []string{"GBPUSD", "EURUSD"})
	require.True(t, ok)
	assert.Equal(t, "EURUSD", best.Asset)
}

func TestRangeBounds(t *testing.T) {
	candles := []types.Candle{
		{High: 1.10, Low: 1.02},
		{High: 1.15, Low: 1.05},
		{High: 1.08, Low: 1.00},
	}
	support, resistance := rangeBounds(candles, 40)
	assert.Equal(t, 1.00, support)
	assert.Equal(t, 1.15, resistance)
}

func TestPivots(t *testing.T) {
	p, r1, s1 := pivots([]types.Candle{{High: 1.2, Low: 0.9, Close: 1.05}})
	assert.InDelta(t, 1.05, p, 1e-9)
	assert.InDelta(t, 1.20, r1, 1e-9)
	assert.InDelta(t, 0.90, s1, 1e-9)
}
