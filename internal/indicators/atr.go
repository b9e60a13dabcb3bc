// Package indicators provides the volatility estimators used by the quoting
// engine.
package indicators

import (
	"math"

	"mmsim/internal/models"
)

// MinATRLength and MaxATRLength bound the configurable lookback.
const (
	MinATRLength = 5
	MaxATRLength = 50
)

// ClampLength forces an ATR lookback into [MinATRLength, MaxATRLength].
func ClampLength(n int) int {
	if n < MinATRLength {
		return MinATRLength
	}
	if n > MaxATRLength {
		return MaxATRLength
	}
	return n
}

// ATR returns the Average True Range over the last min(len-1, length)
// adjacent candle pairs: the plain arithmetic mean of true ranges, no
// smoothing. Returns 0 when fewer than two candles exist.
func ATR(candles []models.Candle, length int) float64 {
	if len(candles) < 2 || length <= 0 {
		return 0
	}

	pairs := len(candles) - 1
	if pairs > length {
		pairs = length
	}

	sum := 0.0
	for i := len(candles) - pairs; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1])
	}
	return sum / float64(pairs)
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(current, previous models.Candle) float64 {
	highLow := current.High - current.Low
	highClose := math.Abs(current.High - previous.Close)
	lowClose := math.Abs(current.Low - previous.Close)
	return math.Max(highLow, math.Max(highClose, lowClose))
}
