// Package quote implements the volatility-adaptive, inventory-aware quote
// calculation. Compute is a pure function; all state lives with the caller.
package quote

import (
	"math"

	"mmsim/internal/models"
)

// Quote is the bid/ask pair derived from one mid-price.
type Quote struct {
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Spread     float64 `json:"spread"` // post-rounding ask-bid
	BaseSpread float64 `json:"base_spread"`
	Skew       float64 `json:"skew"`
	Imbalance  float64 `json:"imbalance"`
}

// Compute derives quotes from the mid price, the volatility estimate, and the
// current inventory. The skew shifts bid and ask by the same signed amount so
// inventory pressure biases fills without widening the spread.
func Compute(mid, vol, longSize, shortSize float64, asset models.AssetConfig) Quote {
	minSpread := asset.TickSize * 2
	baseSpread := math.Max(minSpread, asset.KVol*vol)

	imbalance := 0.0
	if asset.MaxPosition > 0 {
		imbalance = (longSize - shortSize) / asset.MaxPosition
	}
	skew := asset.KPos * imbalance * baseSpread

	bid := roundPrice(mid-baseSpread/2-skew, asset)
	ask := roundPrice(mid+baseSpread/2-skew, asset)

	return Quote{
		Bid:        bid,
		Ask:        ask,
		Spread:     ask - bid,
		BaseSpread: baseSpread,
		Skew:       skew,
		Imbalance:  imbalance,
	}
}

// roundPrice rounds to the nearest integer for zero-precision assets,
// otherwise to the nearest tick-size multiple.
func roundPrice(price float64, asset models.AssetConfig) float64 {
	if asset.Precision == 0 {
		return math.Round(price)
	}
	if asset.TickSize <= 0 {
		return price
	}
	return math.Round(price/asset.TickSize) * asset.TickSize
}
