package quote

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mmsim/internal/models"
)

var btc = models.AssetConfig{
	Symbol:      "BTC-USD",
	KVol:        1.2,
	KPos:        0.6,
	TickSize:    0.5,
	MaxPosition: 5,
	Precision:   1,
}

func TestComputeFlatInventory(t *testing.T) {
	t.Parallel()

	q := Compute(60000, 100, 0, 0, btc)

	assert.Equal(t, 0.0, q.Imbalance)
	assert.Equal(t, 0.0, q.Skew)
	assert.InDelta(t, 120.0, q.BaseSpread, 1e-9) // kVol*vol over the 1.0 floor
	assert.InDelta(t, 59940.0, q.Bid, 1e-9)
	assert.InDelta(t, 60060.0, q.Ask, 1e-9)
	assert.InDelta(t, 120.0, q.Spread, 1e-9)
}

func TestComputeSpreadFloor(t *testing.T) {
	t.Parallel()

	// Tiny volatility: the 2-tick minimum spread applies.
	q := Compute(60000, 0.0001, 0, 0, btc)
	assert.InDelta(t, 1.0, q.BaseSpread, 1e-9)
	assert.InDelta(t, 59999.5, q.Bid, 1e-9)
	assert.InDelta(t, 60000.5, q.Ask, 1e-9)
}

func TestComputeLongInventorySkewsDown(t *testing.T) {
	t.Parallel()

	flat := Compute(60000, 100, 0, 0, btc)
	long := Compute(60000, 100, 2.5, 0, btc)

	// imbalance 0.5, skew = 0.6*0.5*120 = 36: both quotes shift down by 36.
	assert.InDelta(t, 0.5, long.Imbalance, 1e-9)
	assert.InDelta(t, 36.0, long.Skew, 1e-9)
	assert.InDelta(t, flat.Bid-36, long.Bid, 1e-9)
	assert.InDelta(t, flat.Ask-36, long.Ask, 1e-9)
	assert.InDelta(t, flat.Spread, long.Spread, 1e-9)
}

func TestComputeShortInventorySkewsUp(t *testing.T) {
	t.Parallel()

	flat := Compute(60000, 100, 0, 0, btc)
	short := Compute(60000, 100, 0, 2.5, btc)

	assert.InDelta(t, -0.5, short.Imbalance, 1e-9)
	assert.InDelta(t, flat.Bid+36, short.Bid, 1e-9)
	assert.InDelta(t, flat.Ask+36, short.Ask, 1e-9)
}

func TestComputeZeroPrecisionRoundsToInteger(t *testing.T) {
	t.Parallel()

	perp := models.AssetConfig{
		Symbol:      "BTC-PERP",
		KVol:        1.0,
		KPos:        0.5,
		TickSize:    1,
		MaxPosition: 10,
		Precision:   0,
	}

	q := Compute(60000.37, 33.3, 1, 0, perp)
	assert.Equal(t, q.Bid, float64(int64(q.Bid)))
	assert.Equal(t, q.Ask, float64(int64(q.Ask)))
}

func TestComputeTickRounding(t *testing.T) {
	t.Parallel()

	q := Compute(100.13, 0.0001, 0, 0, models.AssetConfig{
		KVol:        1,
		KPos:        0.5,
		TickSize:    0.25,
		MaxPosition: 10,
		Precision:   2,
	})
	assert.InDelta(t, 0.0, remainder(q.Bid, 0.25), 1e-9)
	assert.InDelta(t, 0.0, remainder(q.Ask, 0.25), 1e-9)
}

func remainder(v, tick float64) float64 {
	n := v / tick
	frac := n - float64(int64(n+0.5))
	if frac < 0 {
		frac = -frac
	}
	return frac
}
