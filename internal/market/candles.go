// Package market provides the price sources feeding the quoting engine: a
// candle aggregator shared by simulated and live feeds, and the geometric
// Brownian motion process used in simulation mode.
package market

import (
	"time"

	"mmsim/internal/models"
)

// DefaultCandleWindow is the wall-clock duration of one candle.
const DefaultCandleWindow = 5 * time.Second

// DefaultMaxCandles bounds the candle history; older candles are evicted FIFO.
const DefaultMaxCandles = 50

// Aggregator groups a stream of price samples into fixed-duration OHLC
// candles. Not safe for concurrent use; owned by the engine's tick loop.
type Aggregator struct {
	window     time.Duration
	maxCandles int

	open    *models.Candle
	history []models.Candle
}

// NewAggregator creates an aggregator with the given window. A zero or
// negative window falls back to DefaultCandleWindow.
func NewAggregator(window time.Duration) *Aggregator {
	if window <= 0 {
		window = DefaultCandleWindow
	}
	return &Aggregator{
		window:     window,
		maxCandles: DefaultMaxCandles,
	}
}

// Add folds one price sample into the open candle. When the sample falls past
// the open candle's window the candle is closed into history and a new one is
// opened seeded by the sample.
func (a *Aggregator) Add(price float64, ts time.Time) {
	if a.open == nil || ts.Sub(a.open.StartTime) >= a.window {
		if a.open != nil {
			a.history = append(a.history, *a.open)
			if len(a.history) > a.maxCandles {
				a.history = a.history[len(a.history)-a.maxCandles:]
			}
		}
		a.open = &models.Candle{
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			StartTime: ts,
		}
		return
	}

	if price > a.open.High {
		a.open.High = price
	}
	if price < a.open.Low {
		a.open.Low = price
	}
	a.open.Close = price
}

// Candles returns the closed history plus the open candle, oldest first.
// The returned slice is a copy.
func (a *Aggregator) Candles() []models.Candle {
	out := make([]models.Candle, 0, len(a.history)+1)
	out = append(out, a.history...)
	if a.open != nil {
		out = append(out, *a.open)
	}
	return out
}

// Reset discards all candles.
func (a *Aggregator) Reset() {
	a.open = nil
	a.history = nil
}
