package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmsim/internal/models"
	"mmsim/internal/rng"
)

var testAsset = models.AssetConfig{
	Symbol:      "BTC-USD",
	TickSize:    0.5,
	InitPrice:   60000,
	BaseVol:     0.6,
	MaxPosition: 5,
}

func TestAggregatorOpensAndUpdates(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(5 * time.Second)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	agg.Add(100, base)
	agg.Add(103, base.Add(time.Second))
	agg.Add(99, base.Add(2*time.Second))
	agg.Add(101, base.Add(3*time.Second))

	candles := agg.Candles()
	require.Len(t, candles, 1)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 103.0, candles[0].High)
	assert.Equal(t, 99.0, candles[0].Low)
	assert.Equal(t, 101.0, candles[0].Close)
	assert.Equal(t, base, candles[0].StartTime)
}

func TestAggregatorClosesOnWindowBoundary(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(5 * time.Second)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	agg.Add(100, base)
	agg.Add(102, base.Add(4*time.Second))
	agg.Add(110, base.Add(5*time.Second)) // new window

	candles := agg.Candles()
	require.Len(t, candles, 2)
	assert.Equal(t, 102.0, candles[0].Close)
	assert.Equal(t, 110.0, candles[1].Open)
	assert.Equal(t, 110.0, candles[1].Low)
	assert.Equal(t, base.Add(5*time.Second), candles[1].StartTime)
}

func TestAggregatorEvictsOldestBeyondBound(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(time.Second)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 60; i++ {
		agg.Add(float64(100+i), base.Add(time.Duration(i)*time.Second))
	}

	candles := agg.Candles()
	// 59 closed candles capped at 50, plus the open one.
	require.Len(t, candles, DefaultMaxCandles+1)
	assert.Equal(t, 109.0, candles[0].Open) // first nine evicted
	assert.Equal(t, 159.0, candles[len(candles)-1].Close)
}

func TestAggregatorReset(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(time.Second)
	agg.Add(100, time.Now())
	agg.Reset()
	assert.Empty(t, agg.Candles())
}

func TestProcessStepIsDeterministic(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	run := func() []float64 {
		src := rng.New(42)
		p := NewProcess(testAsset, models.RegimeMedium, 0.05, src, NewAggregator(5*time.Second))
		out := make([]float64, 100)
		for i := range out {
			out[i] = p.Step(base.Add(time.Duration(i) * time.Second))
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestProcessClampsAtOneTick(t *testing.T) {
	t.Parallel()

	asset := testAsset
	asset.InitPrice = 1
	asset.BaseVol = 50 // absurd vol to force the clamp

	src := rng.New(7)
	p := NewProcess(asset, models.RegimeHigh, 0, src, NewAggregator(5*time.Second))
	base := time.Now()
	for i := 0; i < 500; i++ {
		price := p.Step(base.Add(time.Duration(i) * time.Second))
		require.GreaterOrEqual(t, price, asset.TickSize)
	}
}

func TestProcessRegimeScalesVolatility(t *testing.T) {
	t.Parallel()

	spread := func(regime models.Regime) float64 {
		src := rng.New(42)
		p := NewProcess(testAsset, regime, 0, src, NewAggregator(5*time.Second))
		base := time.Now()
		hi, lo := p.Price(), p.Price()
		for i := 0; i < 200; i++ {
			v := p.Step(base.Add(time.Duration(i) * time.Second))
			if v > hi {
				hi = v
			}
			if v < lo {
				lo = v
			}
		}
		return hi - lo
	}

	assert.Greater(t, spread(models.RegimeHigh), spread(models.RegimeLow))
}

func TestProcessResetRestartsIdenticalPath(t *testing.T) {
	t.Parallel()

	src := rng.New(11)
	p := NewProcess(testAsset, models.RegimeMedium, 0, src, NewAggregator(5*time.Second))
	base := time.Now()

	first := make([]float64, 50)
	for i := range first {
		first[i] = p.Step(base.Add(time.Duration(i) * time.Second))
	}

	p.Reset()
	assert.Equal(t, testAsset.InitPrice, p.Price())

	for i := range first {
		require.Equal(t, first[i], p.Step(base.Add(time.Duration(i)*time.Second)))
	}
}

func TestProcessObserveFeedsCandles(t *testing.T) {
	t.Parallel()

	src := rng.New(1)
	agg := NewAggregator(5 * time.Second)
	p := NewProcess(testAsset, models.RegimeMedium, 0, src, agg)

	p.Observe(61000, time.Now())
	assert.Equal(t, 61000.0, p.Price())
	require.Len(t, agg.Candles(), 1)
	assert.Equal(t, 61000.0, agg.Candles()[0].Close)
}
