package market

import (
	"math"
	"time"

	"mmsim/internal/models"
	"mmsim/internal/rng"
)

// DefaultDT is the year-fraction advanced per simulated step. One step per
// second of wall clock maps a session hour to roughly a trading year so the
// configured annualized volatility produces visible intraday movement.
const DefaultDT = 1.0 / 8760.0

// Process generates the next mid-price by geometric Brownian motion and feeds
// every sample to the candle aggregator.
type Process struct {
	asset  models.AssetConfig
	regime models.Regime
	drift  float64
	dt     float64

	price float64
	rand  *rng.Source
	agg   *Aggregator
}

// NewProcess creates a price process starting at the asset's initial price.
func NewProcess(asset models.AssetConfig, regime models.Regime, drift float64, rand *rng.Source, agg *Aggregator) *Process {
	return &Process{
		asset:  asset,
		regime: regime,
		drift:  drift,
		dt:     DefaultDT,
		price:  asset.InitPrice,
		rand:   rand,
		agg:    agg,
	}
}

// SetDT overrides the per-step year fraction. Non-positive values are ignored.
func (p *Process) SetDT(dt float64) {
	if dt > 0 {
		p.dt = dt
	}
}

// SetRegime switches the volatility regime for subsequent steps.
func (p *Process) SetRegime(regime models.Regime) {
	p.regime = regime
}

// SetDrift updates the drift for subsequent steps.
func (p *Process) SetDrift(drift float64) {
	p.drift = drift
}

// Price returns the current mid-price.
func (p *Process) Price() float64 {
	return p.price
}

// Step advances the price one increment and records the sample at ts.
// The price is clamped to at least one tick so it can never go non-positive.
func (p *Process) Step(ts time.Time) float64 {
	vol := p.asset.BaseVol * p.regime.Multiplier()
	z := p.rand.Normal(0, 1)
	p.price += p.drift*p.price*p.dt + vol*p.price*math.Sqrt(p.dt)*z
	if p.price < p.asset.TickSize {
		p.price = p.asset.TickSize
	}
	p.agg.Add(p.price, ts)
	return p.price
}

// Observe records an externally sourced price (live mode) without advancing
// the simulated path.
func (p *Process) Observe(price float64, ts time.Time) {
	p.price = price
	p.agg.Add(price, ts)
}

// Reset restores the initial price, clears candles, and rewinds the RNG.
func (p *Process) Reset() {
	p.price = p.asset.InitPrice
	p.agg.Reset()
	p.rand.Rewind()
}
