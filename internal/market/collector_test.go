package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradinglions/internal/types"
)

func bar(from int64, close float64) types.Candle {
	return types.Candle{From: from, Open: close - 1, High: close + 1, Low: close - 2, Close: close}
}

func TestCollectorIngest(t *testing.T) {
	t.Run("upserts the forming candle by timestamp", func(t *testing.T) {
		c := NewCollector()
		c.Ingest("EURUSD", types.TimeframeM1, bar(60, 1.10), bar(120, 1.11))
		c.Ingest("EURUSD", types.TimeframeM1, bar(120, 1.12))

		got := c.Candles("EURUSD", types.TimeframeM1)
		require.Len(t, got, 2)
		assert.Equal(t, 1.12, got[1].Close)
	})

	t.Run("inserts out-of-order bars in place", func(t *testing.T) {
		c := NewCollector()
		c.Ingest("EURUSD", types.TimeframeM1, bar(60, 1.0), bar(180, 3.0))
		c.Ingest("EURUSD", types.TimeframeM1, bar(120, 2.0))

		got := c.Candles("EURUSD", types.TimeframeM1)
		require.Len(t, got, 3)
		assert.Equal(t, []int64{60, 120, 180}, []int64{got[0].From, got[1].From, got[2].From})
	})

	t.Run("caps the series per timeframe", func(t *testing.T) {
		c := NewCollector()
		for i := 0; i < capacityM1+25; i++ {
			c.Ingest("EURUSD", types.TimeframeM1, bar(int64(60*(i+1)), 1.0))
		}
		assert.Equal(t, capacityM1, c.Len("EURUSD", types.TimeframeM1))

		got := c.Candles("EURUSD", types.TimeframeM1)
		assert.Equal(t, int64(60*26), got[0].From)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		c := NewCollector()
		c.Ingest("EURUSD", types.TimeframeM1, bar(60, 1.0))
		got := c.Candles("EURUSD", types.TimeframeM1)
		got[0].Close = 9.9

		again := c.Candles("EURUSD", types.TimeframeM1)
		assert.Equal(t, 1.0, again[0].Close)
	})
}

func TestCollectorLast(t *testing.T) {
	c := NewCollector()
	_, ok := c.Last("EURUSD", types.TimeframeM1)
	assert.False(t, ok)

	c.Ingest("EURUSD", types.TimeframeM1, bar(60, 1.0), bar(120, 2.0))
	last, ok := c.Last("EURUSD", types.TimeframeM1)
	require.True(t, ok)
	assert.Equal(t, int64(120), last.From)
}

func TestCollectorPayout(t *testing.T) {
	c := NewCollector()
	assert.Zero(t, c.Payout("EURUSD"))

	c.UpdatePayout("EURUSD", 0.82)
	assert.Equal(t, 0.82, c.Payout("EURUSD"))
}

func TestCollectorAssets(t *testing.T) {
	c := NewCollector()
	c.Ingest("GBPUSD", types.TimeframeM1, bar(60, 1.0))
	c.Ingest("EURUSD", types.TimeframeM5, bar(300, 1.0))
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, c.Assets())
}
