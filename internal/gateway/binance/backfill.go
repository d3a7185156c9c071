// Package binance seeds candle history from Binance spot klines so the
// signal engine has enough bars before the broker stream warms up.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	bapi "github.com/adshao/go-binance/v2"

	"tradinglions/internal/logger"
	"tradinglions/internal/market"
	"tradinglions/internal/types"
)

const maxHistoryLimit = 1000

// Backfiller maps broker asset names to Binance symbols and pulls klines.
type Backfiller struct {
	client  *bapi.Client
	symbols map[string]string
}

func NewBackfiller(symbols map[string]string) *Backfiller {
	norm := make(map[string]string, len(symbols))
	for asset, sym := range symbols {
		asset = strings.ToUpper(strings.TrimSpace(asset))
		sym = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(sym), "/", ""))
		if asset != "" && sym != "" {
			norm[asset] = sym
		}
	}
	return &Backfiller{client: bapi.NewClient("", ""), symbols: norm}
}

// FetchHistory returns closed candles for the asset, oldest first. The
// still-forming kline is dropped.
func (b *Backfiller) FetchHistory(ctx context.Context, asset string, tf types.Timeframe, limit int) ([]types.Candle, error) {
	symbol, ok := b.symbols[strings.ToUpper(strings.TrimSpace(asset))]
	if !ok {
		return nil, fmt.Errorf("no binance symbol mapped for asset %s", asset)
	}
	if limit <= 0 {
		limit = 100
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	kls, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval(intervalFor(tf)).
		Limit(limit).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	step := int64(tf)
	cutoff := time.Now().Unix()
	out := make([]types.Candle, 0, len(kls))
	for _, kl := range kls {
		if kl == nil {
			continue
		}
		from := kl.OpenTime / 1000
		if from+step > cutoff {
			continue // still forming
		}
		out = append(out, types.Candle{
			From:   from,
			Open:   parseFloat(kl.Open),
			High:   parseFloat(kl.High),
			Low:    parseFloat(kl.Low),
			Close:  parseFloat(kl.Close),
			Volume: parseFloat(kl.Volume),
		})
	}
	return out, nil
}

// Seed loads M1 and M5 history for every mapped asset into the collector.
// Failures are logged and skipped: backfill is best effort.
func (b *Backfiller) Seed(ctx context.Context, collector *market.Collector, assets []string) {
	for _, asset := range assets {
		for _, tf := range []types.Timeframe{types.TimeframeM1, types.TimeframeM5} {
			candles, err := b.FetchHistory(ctx, asset, tf, 300)
			if err != nil {
				logger.Warnf("backfill %s %ds failed: %v", asset, int(tf), err)
				continue
			}
			collector.Ingest(asset, tf, candles...)
			logger.Infof("backfilled %d %ds candles for %s", len(candles), int(tf), asset)
		}
	}
}

func intervalFor(tf types.Timeframe) string {
	if tf == types.TimeframeM5 {
		return "5m"
	}
	return "1m"
}

func parseFloat(v string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f
}
