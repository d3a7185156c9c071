// Package market maintains rolling candle history and payout quotes per asset.
package market

import (
	"sort"
	"sync"

	"tradinglions/internal/types"
)

const (
	capacityM1 = 720 // 12h of minute bars
	capacityM5 = 288 // 24h of five-minute bars
)

// Collector is a concurrency-safe store of recent candles keyed by asset and
// timeframe. Bars are upserted by open timestamp, so a repeated fetch of the
// still-forming candle replaces the earlier partial one.
type Collector struct {
	mu      sync.RWMutex
	candles map[string]map[types.Timeframe][]types.Candle
	payouts map[string]float64
}

func NewCollector() *Collector {
	return &Collector{
		candles: make(map[string]map[types.Timeframe][]types.Candle),
		payouts: make(map[string]float64),
	}
}

func capacityFor(tf types.Timeframe) int {
	if tf == types.TimeframeM5 {
		return capacityM5
	}
	return capacityM1
}

// Ingest merges candles into the asset's series, newest kept, capped per
// timeframe. Out-of-order and duplicate bars are tolerated.
func (c *Collector) Ingest(asset string, tf types.Timeframe, candles ...types.Candle) {
	if c == nil || asset == "" || len(candles) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byTF := c.candles[asset]
	if byTF == nil {
		byTF = make(map[types.Timeframe][]types.Candle)
		c.candles[asset] = byTF
	}
	series := byTF[tf]
	for _, in := range candles {
		series = upsert(series, in)
	}
	if max := capacityFor(tf); len(series) > max {
		series = append(series[:0], series[len(series)-max:]...)
	}
	byTF[tf] = series
}

func upsert(series []types.Candle, in types.Candle) []types.Candle {
	n := len(series)
	if n == 0 || in.From > series[n-1].From {
		return append(series, in)
	}
	i := sort.Search(n, func(i int) bool { return series[i].From >= in.From })
	if i < n && series[i].From == in.From {
		series[i] = in
		return series
	}
	series = append(series, types.Candle{})
	copy(series[i+1:], series[i:])
	series[i] = in
	return series
}

// Candles returns a copy of the asset's series for the timeframe, oldest first.
func (c *Collector) Candles(asset string, tf types.Timeframe) []types.Candle {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	series := c.candles[asset][tf]
	if len(series) == 0 {
		return nil
	}
	out := make([]types.Candle, len(series))
	copy(out, series)
	return out
}

// Last returns the most recent candle for the asset and timeframe.
func (c *Collector) Last(asset string, tf types.Timeframe) (types.Candle, bool) {
	if c == nil {
		return types.Candle{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	series := c.candles[asset][tf]
	if len(series) == 0 {
		return types.Candle{}, false
	}
	return series[len(series)-1], true
}

// Len reports how many bars are held for the asset and timeframe.
func (c *Collector) Len(asset string, tf types.Timeframe) int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.candles[asset][tf])
}

// UpdatePayout records the latest payout quote (fraction, e.g. 0.82).
func (c *Collector) UpdatePayout(asset string, payout float64) {
	if c == nil || asset == "" {
		return
	}
	c.mu.Lock()
	c.payouts[asset] = payout
	c.mu.Unlock()
}

// Payout returns the last known payout for the asset, zero if never quoted.
func (c *Collector) Payout(asset string) float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.payouts[asset]
}

// Assets lists every asset with at least one stored candle, sorted.
func (c *Collector) Assets() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.candles))
	for asset := range c.candles {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}
