// Package models provides domain models for the market-making simulator.
package models

import (
	"time"
)

// Side represents the direction of an inventory position or fill.
type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// Mode selects the price source driving the engine.
type Mode string

const (
	ModeSimulation Mode = "simulation"
	ModeLive       Mode = "live"
)

// Regime selects the volatility regime multiplier for the simulated price path.
type Regime string

const (
	RegimeLow    Regime = "low"
	RegimeMedium Regime = "medium"
	RegimeHigh   Regime = "high"
)

// Multiplier returns the volatility multiplier for the regime.
// Unknown regimes default to medium.
func (r Regime) Multiplier() float64 {
	switch r {
	case RegimeLow:
		return 0.5
	case RegimeHigh:
		return 2.0
	default:
		return 1.0
	}
}

// AssetConfig holds the immutable per-asset quoting parameters.
// Selected once per session; changed only through an explicit update.
type AssetConfig struct {
	Symbol      string  `json:"symbol"`
	KVol        float64 `json:"k_vol"`
	KPos        float64 `json:"k_pos"`
	TickSize    float64 `json:"tick_size"`
	MaxPosition float64 `json:"max_position"`
	InitPrice   float64 `json:"init_price"`
	Precision   int     `json:"precision"`
	BaseVol     float64 `json:"base_vol"` // annualized volatility for the simulated path
	FeedID      string  `json:"feed_id"`  // external price-feed identifier
}

// Candle represents OHLC data aggregated over a fixed time window.
type Candle struct {
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	StartTime time.Time `json:"start_time"`
}

// Position is one side of the book's inventory.
// AvgPrice is meaningful only while Size > 0 and is zeroed when Size reaches 0.
type Position struct {
	Size     float64 `json:"size"`
	AvgPrice float64 `json:"avg_price"`
}

// Trade records a simulated fill against one of the engine's quotes.
type Trade struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
	Margin    float64   `json:"margin"`
}

// Collapse records an internal netting of offsetting long/short inventory.
type Collapse struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Size        float64   `json:"size"`
	RealizedPnL float64   `json:"realized_pnl"`
}

// DataPoint is the per-tick metrics snapshot appended to the bounded history.
// Field order defines the CSV column order of exports.
type DataPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Tick          int64     `json:"tick"`
	Mid           float64   `json:"mid"`
	Bid           float64   `json:"bid"`
	Ask           float64   `json:"ask"`
	Spread        float64   `json:"spread"`
	ATR           float64   `json:"atr"`
	CashBalance   float64   `json:"cash_balance"`
	Equity        float64   `json:"equity"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	RealizedPnL   float64   `json:"realized_pnl"`
	LongSize      float64   `json:"long_size"`
	ShortSize     float64   `json:"short_size"`
}

// LedgerSnapshot is a read-only view of the ledger state handed to observers
// and exports.
type LedgerSnapshot struct {
	CashBalance   float64  `json:"cash_balance"`
	Leverage      float64  `json:"leverage"`
	Long          Position `json:"long"`
	Short         Position `json:"short"`
	RealizedPnL   float64  `json:"realized_pnl"`
	TradeCount    int      `json:"trade_count"`
	CollapseCount int      `json:"collapse_count"`
}
