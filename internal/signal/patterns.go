// Package signal detects entry patterns on the latest closed candles.
package signal

import (
	"tradinglions/internal/analysis/indicator"
	"tradinglions/internal/types"
)

const (
	momentumBodyMin = 0.6
	momentumWickMax = 0.25
	reversalWickMin = 0.5
	reversalBodyMax = 0.4
	vetoCompression = 0.18

	patternEngulfing = "engulfing"
	patternMomentum  = "momentum"
	patternReversal  = "reversal"
)

// Detect looks for a setup in the requested direction on the last candles.
// A compressed micro range on the final three bars vetoes everything.
func Detect(candles []types.Candle, dir types.Direction) (types.Signal, bool) {
	if len(candles) < 2 {
		return types.Signal{}, false
	}
	vetoBars := 3
	if len(candles) < vetoBars {
		vetoBars = len(candles)
	}
	if indicator.MicroRange(candles, vetoBars, vetoCompression) {
		return types.Signal{}, false
	}

	prev := candles[len(candles)-2]
	last := candles[len(candles)-1]
	bullish := dir == types.DirectionCall

	if engulfing(prev, last, bullish) {
		return named(patternEngulfing, dir, 0.70, describe(bullish, "engulfing")), true
	}
	if momentumBar(last, bullish) {
		return named(patternMomentum, dir, 0.65, describe(bullish, "impulse")), true
	}
	if reversal(last, bullish) {
		return named(patternReversal, dir, 0.60, describe(bullish, "rejection")), true
	}
	return types.Signal{}, false
}

func named(pattern string, dir types.Direction, strength float64, reason string) types.Signal {
	return types.Signal{Pattern: pattern, Direction: dir, Strength: strength, Reason: reason}
}

func describe(bullish bool, what string) string {
	if bullish {
		return "bullish " + what
	}
	return "bearish " + what
}

// engulfing requires the last body to swallow the previous bar's full range.
func engulfing(prev, last types.Candle, bullish bool) bool {
	if bullish {
		return last.Bullish() && last.Close >= prev.High && last.Open <= prev.Low
	}
	return last.Bearish() && last.Close <= prev.Low && last.Open >= prev.High
}

// momentumBar is a decisive bar: dominant body, negligible opposing wick.
func momentumBar(c types.Candle, bullish bool) bool {
	ratio := indicator.BodyRatio(c)
	lowerWick, upperWick := indicator.WickRatios(c)
	if bullish {
		return c.Bullish() && ratio >= momentumBodyMin && upperWick <= momentumWickMax
	}
	return c.Bearish() && ratio >= momentumBodyMin && lowerWick <= momentumWickMax
}

// reversal is a hammer-like rejection: long wick against the move, small body.
func reversal(c types.Candle, bullish bool) bool {
	lowerWick, upperWick := indicator.WickRatios(c)
	ratio := indicator.BodyRatio(c)
	if bullish {
		return c.Bullish() && lowerWick >= reversalWickMin && ratio <= reversalBodyMax
	}
	return c.Bearish() && upperWick >= reversalWickMin && ratio <= reversalBodyMax
}
