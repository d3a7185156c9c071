// Package decision turns stored market history into scored entry candidates.
package decision

import (
	"context"
	"math"

	"tradinglions/internal/analysis/indicator"
	"tradinglions/internal/logger"
	"tradinglions/internal/market"
	"tradinglions/internal/signal"
	"tradinglions/internal/types"
)

const (
	RegimeTrend = "trend"
	RegimeRange = "range"
)

// Options tune candidate scoring and admission.
type Options struct {
	MinScore      float64 // reject candidates scoring below this
	MinProb       float64 // reject candidates the gate rates below this
	MinPayout     float64 // skip assets quoted below this payout
	MinHistory    int     // minute bars required before evaluating
	TrendSlopeMin float64 // |bias| at or above this switches to trend regime
	RangeLookback int     // minute bars scanned for support/resistance
	RangeTol      float64 // bound proximity as a multiple of average range
	EMAFast       int
	EMASlow       int
}

func DefaultOptions() Options {
	return Options{
		MinScore:      0.55,
		MinProb:       0.55,
		MinPayout:     0.70,
		MinHistory:    60,
		TrendSlopeMin: 0.3,
		RangeLookback: 40,
		RangeTol:      0.35,
		EMAFast:       20,
		EMASlow:       40,
	}
}

// Engine evaluates one asset at a time against the collector's history.
type Engine struct {
	market *market.Collector
	gate   Gate
	opts   Options
}

func NewEngine(m *market.Collector, gate Gate, opts Options) *Engine {
	if gate == nil {
		gate = NopGate{}
	}
	if opts.MinHistory <= 0 {
		opts = DefaultOptions()
	}
	return &Engine{market: m, gate: gate, opts: opts}
}

// Evaluate builds and scores an entry candidate for the asset. It returns
// false when history is short, the payout is poor, no pattern fires, the
// score misses the floor, or the gate rejects the setup.
func (e *Engine) Evaluate(ctx context.Context, asset string) (types.Candidate, bool) {
	m1 := e.market.Candles(asset, types.TimeframeM1)
	if len(m1) < e.opts.MinHistory {
		return types.Candidate{}, false
	}
	payout := e.market.Payout(asset)
	if payout < e.opts.MinPayout {
		return types.Candidate{}, false
	}

	bias := e.trendBias(asset)
	regime := RegimeRange
	if math.Abs(bias) >= e.opts.TrendSlopeMin {
		regime = RegimeTrend
	}

	last := m1[len(m1)-1]
	dir, reason, ok := e.pickDirection(m1, regime, bias)
	if !ok {
		return types.Candidate{}, false
	}
	sig, ok := signal.Detect(m1, dir)
	if !ok {
		return types.Candidate{}, false
	}

	score := e.score(sig, last, payout, regime, bias)
	if score < e.opts.MinScore {
		return types.Candidate{}, false
	}

	cand := types.Candidate{
		Asset:     asset,
		Direction: dir,
		Score:     score,
		Regime:    regime,
		Reason:    sig.Reason + "; " + reason,
		Pattern:   sig.Pattern,
		Payout:    payout,
		Price:     last.Close,
		Context:   e.buildContext(asset, m1, regime, bias, sig, score),
	}

	prob, err := e.gate.Score(ctx, cand)
	if err != nil {
		logger.Warnf("gate unavailable for %s, admitting on score alone: %v", asset, err)
		return cand, true
	}
	cand.Context["prob_win"] = prob
	if prob < e.opts.MinProb {
		logger.Debugf("gate rejected %s %s: prob %.2f < %.2f", asset, dir, prob, e.opts.MinProb)
		return types.Candidate{}, false
	}
	return cand, true
}

// Best evaluates every asset and keeps the highest-scoring candidate.
func (e *Engine) Best(ctx context.Context, assets []string) (types.Candidate, bool) {
	var best types.Candidate
	found := false
	for _, asset := range assets {
		cand, ok := e.Evaluate(ctx, asset)
		if ok && (!found || cand.Score > best.Score) {
			best = cand
			found = true
		}
	}
	return best, found
}

// trendBias returns the fast/slow EMA separation on the five-minute series,
// normalized by the average bar range and clamped to [-1, 1].
func (e *Engine) trendBias(asset string) float64 {
	m5 := e.market.Candles(asset, types.TimeframeM5)
	if len(m5) < e.opts.EMASlow {
		return 0
	}
	closes := indicator.Closes(m5)
	fast := indicator.EMA(closes, e.opts.EMAFast)
	slow := indicator.EMA(closes, e.opts.EMASlow)
	avg := indicator.AverageRange(m5)
	if avg <= 0 {
		return 0
	}
	return clamp((fast-slow)/avg, -1, 1)
}

func (e *Engine) pickDirection(m1 []types.Candle, regime string, bias float64) (types.Direction, string, bool) {
	if regime == RegimeTrend {
		if bias > 0 {
			return types.DirectionCall, "with uptrend", true
		}
		return types.DirectionPut, "with downtrend", true
	}

	support, resistance := rangeBounds(m1, e.opts.RangeLookback)
	tol := e.opts.RangeTol * indicator.AverageRange(tail(m1, e.opts.RangeLookback))
	price := m1[len(m1)-1].Close
	switch {
	case price <= support+tol:
		return types.DirectionCall, "bounce off support", true
	case price >= resistance-tol:
		return types.DirectionPut, "fade at resistance", true
	}
	return "", "", false
}

// score layers body conviction, payout quality and, in a trend, alignment
// strength on top of the pattern's base confidence.
func (e *Engine) score(sig types.Signal, last types.Candle, payout float64, regime string, bias float64) float64 {
	s := sig.Strength
	s += 0.2 * indicator.BodyRatio(last)
	s += 0.1 * clamp((payout-e.opts.MinPayout)/0.25, 0, 1)
	if regime == RegimeTrend {
		s += 0.15 * math.Abs(bias)
	}
	return clamp(s, 0, 1)
}

func (e *Engine) buildContext(asset string, m1 []types.Candle, regime string, bias float64, sig types.Signal, score float64) map[string]any {
	closes := indicator.Closes(m1)
	upper, basis, lower := indicator.BBands(closes, 20, 2)
	support, resistance := rangeBounds(m1, e.opts.RangeLookback)
	pivot, r1, s1 := pivots(e.market.Candles(asset, types.TimeframeM5))

	return map[string]any{
		"regime":     regime,
		"trend_bias": bias,
		"pattern":    sig.Pattern,
		"strength":   sig.Strength,
		"score":      score,
		"atr":        indicator.ATR(m1, 14),
		"momentum":   indicator.MomentumScore(closes, 5),
		"bollinger":  map[string]float64{"upper": upper, "basis": basis, "lower": lower},
		"range":      map[string]float64{"support": support, "resistance": resistance},
		"pivots":     map[string]float64{"p": pivot, "r1": r1, "s1": s1},
	}
}

// rangeBounds scans the last lookback bars for the extreme low and high.
func rangeBounds(candles []types.Candle, lookback int) (support, resistance float64) {
	window := tail(candles, lookback)
	if len(window) == 0 {
		return 0, 0
	}
	support, resistance = window[0].Low, window[0].High
	for _, c := range window[1:] {
		if c.Low < support {
			support = c.Low
		}
		if c.High > resistance {
			resistance = c.High
		}
	}
	return support, resistance
}

// pivots derives classic floor levels from the most recent completed bar.
func pivots(candles []types.Candle) (p, r1, s1 float64) {
	if len(candles) == 0 {
		return 0, 0, 0
	}
	c := candles[len(candles)-1]
	p = (c.High + c.Low + c.Close) / 3
	return p, 2*p - c.Low, 2*p - c.High
}

func tail(candles []types.Candle, n int) []types.Candle {
	if len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
