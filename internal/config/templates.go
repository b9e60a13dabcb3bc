package config

import (
	"os"
	"path/filepath"

	"mmsim/internal/errors"
)

const configTemplate = `# Market-Making Simulator Configuration

# Asset to quote, one of: BTC-USD, ETH-USD, SOL-USD, BTC-PERP
asset = "BTC-USD"
# Price source: "simulation" or "live"
mode = "simulation"
# Volatility regime: low, medium, high
regime = "medium"
# RNG seed; identical seeds replay identical simulated sessions
seed = 42
# Annualized drift of the simulated price path
drift = 0.0
# ATR lookback in candles, clamped to [5, 50]
atr_length = 14

# Account
initial_balance = 10000.0
leverage = 10.0
order_notional = 1000.0
collapse_threshold = 2500.0

[feed]
# Live price source: "rest" (polling) or "ws" (trade stream)
source = "rest"
# Minimum spacing between REST requests
min_spacing = "2s"

[log]
# Log level: trace, debug, info, warn, error
level = "info"
# Also log to the terminal
console = false

[ui]
color_enabled = true
# Print a tick line every N ticks during a run (0 disables)
tick_every = 10

# Per-asset overrides, e.g.:
# [assets.BTC-USD]
# k_vol = 1.5
# max_position = 10.0
`

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return errors.Wrap(err, "writing config template")
	}
	return nil
}
