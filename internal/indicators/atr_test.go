package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mmsim/internal/models"
)

func TestATR(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		candles  []models.Candle
		length   int
		expected float64
	}{
		{
			name:     "empty",
			candles:  nil,
			length:   14,
			expected: 0,
		},
		{
			name: "single_candle",
			candles: []models.Candle{
				{High: 10, Low: 8, Close: 9},
			},
			length:   14,
			expected: 0,
		},
		{
			name: "pair_high_low_dominates",
			candles: []models.Candle{
				{High: 10, Low: 8, Close: 9},
				{High: 11, Low: 9, Close: 10},
			},
			length:   1,
			expected: 2, // max(11-9, |11-9|, |9-9|)
		},
		{
			name: "gap_up_high_close_dominates",
			candles: []models.Candle{
				{High: 10, Low: 8, Close: 9},
				{High: 14, Low: 13, Close: 13.5},
			},
			length:   1,
			expected: 5, // |14-9| exceeds high-low of 1
		},
		{
			name: "gap_down_low_close_dominates",
			candles: []models.Candle{
				{High: 10, Low: 8, Close: 10},
				{High: 6, Low: 5, Close: 5.5},
			},
			length:   1,
			expected: 5, // |5-10| exceeds high-low of 1
		},
		{
			name: "mean_over_window",
			candles: []models.Candle{
				{High: 10, Low: 8, Close: 9},
				{High: 11, Low: 9, Close: 10},  // TR 2
				{High: 12, Low: 10, Close: 11}, // TR 2
				{High: 15, Low: 13, Close: 14}, // TR 4
			},
			length:   3,
			expected: (2 + 2 + 4) / 3.0,
		},
		{
			name: "window_shorter_than_history",
			candles: []models.Candle{
				{High: 100, Low: 90, Close: 95}, // excluded by lookback
				{High: 11, Low: 9, Close: 10},
				{High: 12, Low: 10, Close: 11}, // TR 2
				{High: 13, Low: 11, Close: 12}, // TR 2
			},
			length:   2,
			expected: 2,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expected, ATR(tt.candles, tt.length), 1e-12)
		})
	}
}

func TestATRNeverNegative(t *testing.T) {
	t.Parallel()

	candles := []models.Candle{
		{High: 5, Low: 4, Close: 4.5},
		{High: 4.6, Low: 4.4, Close: 4.5},
		{High: 4.5, Low: 4.5, Close: 4.5},
	}
	assert.GreaterOrEqual(t, ATR(candles, 14), 0.0)
}

func TestClampLength(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MinATRLength, ClampLength(0))
	assert.Equal(t, MinATRLength, ClampLength(-3))
	assert.Equal(t, 14, ClampLength(14))
	assert.Equal(t, MaxATRLength, ClampLength(500))
}
