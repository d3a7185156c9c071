// Package indicator wraps the technical primitives the signal stack needs:
// talib series plus candle anatomy ratios.
package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"tradinglions/internal/types"
)

// Closes extracts the close series from candles.
func Closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// EMA returns the latest EMA value, or 0 when the series is too short.
func EMA(values []float64, period int) float64 {
	series := EMASeries(values, period)
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] != 0 && !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return 0
}

// EMASeries computes the full EMA series. talib pads the warmup region with
// zeros, which callers must skip.
func EMASeries(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return nil
	}
	return talib.Ema(values, period)
}

// ATR averages the true range over period. Series shorter than period+1
// fall back to the plain average bar range.
func ATR(candles []types.Candle, period int) float64 {
	if len(candles) < 2 {
		return 0
	}
	if period >= 1 && len(candles) > period {
		highs := make([]float64, len(candles))
		lows := make([]float64, len(candles))
		closes := make([]float64, len(candles))
		for i, c := range candles {
			highs[i], lows[i], closes[i] = c.High, c.Low, c.Close
		}
		series := talib.Atr(highs, lows, closes, period)
		if v := lastNonZero(series); v > 0 {
			return v
		}
	}
	return AverageRange(candles)
}

// BBands returns the latest Bollinger band values over period with mult
// standard deviations.
func BBands(closes []float64, period int, mult float64) (upper, basis, lower float64) {
	if period <= 0 || len(closes) < period {
		return 0, 0, 0
	}
	up, mid, low := talib.BBands(closes, period, mult, mult, talib.SMA)
	return lastNonZero(up), lastNonZero(mid), lastNonZero(low)
}

// RangeWidth is the full high-low span across candles.
func RangeWidth(candles []types.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	high := candles[0].High
	low := candles[0].Low
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}
	return high - low
}

// AverageRange is the mean single-bar range.
func AverageRange(candles []types.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candles {
		sum += c.Range()
	}
	return sum / float64(len(candles))
}

// BodyRatio is body size over total range, 0..1.
func BodyRatio(c types.Candle) float64 {
	full := math.Max(c.Range(), 1e-9)
	return c.Body() / full
}

// WickRatios returns the lower and upper wick shares of the total range.
func WickRatios(c types.Candle) (lower, upper float64) {
	full := math.Max(c.Range(), 1e-9)
	return c.LowerWick() / full, c.UpperWick() / full
}

// MomentumScore is the net close-to-close move over lookback, normalized by
// the amplitude, in -1..1.
func MomentumScore(closes []float64, lookback int) float64 {
	if lookback <= 0 || len(closes) < lookback {
		return 0
	}
	subset := closes[len(closes)-lookback:]
	if len(subset) < 2 {
		return 0
	}
	high, low := subset[0], subset[0]
	for _, v := range subset {
		if v > high {
			high = v
		}
		if v < low {
			low = v
		}
	}
	amplitude := high - low
	if amplitude == 0 {
		amplitude = 1e-9
	}
	return (subset[len(subset)-1] - subset[0]) / amplitude
}

// MicroRange reports whether the last lookback candles compressed into a
// sliver: their total span no wider than compression times the average bar
// range of the whole series.
func MicroRange(candles []types.Candle, lookback int, compression float64) bool {
	if lookback <= 0 || len(candles) < lookback {
		return false
	}
	avg := AverageRange(candles)
	if avg <= 0 {
		return true
	}
	recent := candles[len(candles)-lookback:]
	return RangeWidth(recent) <= avg*compression
}

func lastNonZero(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] != 0 && !math.IsNaN(series[i]) {
			return series[i]
		}
	}
	return 0
}
