package config

import "mmsim/internal/models"

// BuiltinAssets returns the asset table shipped with the simulator.
// Feed ids are Binance spot symbols. BTC-PERP quotes at whole-number
// precision, exercising the integer rounding path.
func BuiltinAssets() map[string]models.AssetConfig {
	return map[string]models.AssetConfig{
		"BTC-USD": {
			Symbol:      "BTC-USD",
			KVol:        1.2,
			KPos:        0.6,
			TickSize:    0.5,
			MaxPosition: 5,
			InitPrice:   60000,
			Precision:   1,
			BaseVol:     0.6,
			FeedID:      "BTCUSDT",
		},
		"ETH-USD": {
			Symbol:      "ETH-USD",
			KVol:        1.4,
			KPos:        0.7,
			TickSize:    0.05,
			MaxPosition: 50,
			InitPrice:   3000,
			Precision:   2,
			BaseVol:     0.8,
			FeedID:      "ETHUSDT",
		},
		"SOL-USD": {
			Symbol:      "SOL-USD",
			KVol:        1.6,
			KPos:        0.8,
			TickSize:    0.01,
			MaxPosition: 500,
			InitPrice:   150,
			Precision:   2,
			BaseVol:     1.0,
			FeedID:      "SOLUSDT",
		},
		"BTC-PERP": {
			Symbol:      "BTC-PERP",
			KVol:        1.2,
			KPos:        0.6,
			TickSize:    1,
			MaxPosition: 5,
			InitPrice:   60000,
			Precision:   0,
			BaseVol:     0.6,
			FeedID:      "BTCUSDT",
		},
	}
}

// AssetSymbols returns the built-in symbols in a stable order.
func AssetSymbols() []string {
	return []string{"BTC-USD", "ETH-USD", "SOL-USD", "BTC-PERP"}
}
