// Package config provides configuration management for the simulator.
package config

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mmsim/internal/errors"
	"mmsim/internal/indicators"
	"mmsim/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Asset             string  `mapstructure:"asset"`
	Mode              string  `mapstructure:"mode"` // "simulation", "live"
	Regime            string  `mapstructure:"regime"`
	Seed              uint32  `mapstructure:"seed"`
	Drift             float64 `mapstructure:"drift"`
	ATRLength         int     `mapstructure:"atr_length"`
	InitialBalance    float64 `mapstructure:"initial_balance"`
	Leverage          float64 `mapstructure:"leverage"`
	OrderNotional     float64 `mapstructure:"order_notional"`
	CollapseThreshold float64 `mapstructure:"collapse_threshold"`

	Assets map[string]AssetOverride `mapstructure:"assets"`

	Feed  FeedConfig  `mapstructure:"feed"`
	Log   LogConfig   `mapstructure:"log"`
	Store StoreConfig `mapstructure:"store"`
	UI    UIConfig    `mapstructure:"ui"`
}

// AssetOverride adjusts individual parameters of a built-in asset.
// Zero values leave the built-in parameter untouched.
type AssetOverride struct {
	KVol        float64 `mapstructure:"k_vol"`
	KPos        float64 `mapstructure:"k_pos"`
	TickSize    float64 `mapstructure:"tick_size"`
	MaxPosition float64 `mapstructure:"max_position"`
	InitPrice   float64 `mapstructure:"init_price"`
	BaseVol     float64 `mapstructure:"base_vol"`
	FeedID      string  `mapstructure:"feed_id"`
}

// FeedConfig holds live price feed configuration.
type FeedConfig struct {
	Source     string        `mapstructure:"source"` // "rest", "ws"
	BaseURL    string        `mapstructure:"base_url"`
	WsURL      string        `mapstructure:"ws_url"`
	MinSpacing time.Duration `mapstructure:"min_spacing"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// StoreConfig holds session persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// UIConfig holds terminal output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
	TickEvery    int  `mapstructure:"tick_every"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/mmsim"
	}
	return filepath.Join(home, ".config", "mmsim")
}

// Load loads configuration from the specified directory. If configDir is
// empty the default directory is used. A missing config file is replaced
// by a template plus built-in defaults rather than an error, so a first
// run works out of the box.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := writeTemplate(configDir); werr != nil {
				return nil, errors.Wrap(werr, "creating config template")
			}
		} else {
			return nil, errors.Wrap(err, "reading config.toml")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config.toml")
	}

	applyEnvOverrides(cfg)
	cfg.clamp()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("asset", "BTC-USD")
	v.SetDefault("mode", string(models.ModeSimulation))
	v.SetDefault("regime", string(models.RegimeMedium))
	v.SetDefault("seed", 42)
	v.SetDefault("drift", 0.0)
	v.SetDefault("atr_length", 14)
	v.SetDefault("initial_balance", 10000.0)
	v.SetDefault("leverage", 10.0)
	v.SetDefault("order_notional", 1000.0)
	v.SetDefault("collapse_threshold", 2500.0)

	v.SetDefault("feed.source", "rest")
	v.SetDefault("feed.base_url", "")
	v.SetDefault("feed.ws_url", "")
	v.SetDefault("feed.min_spacing", "2s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(configDir, "logs", "mmsim.log"))
	v.SetDefault("log.console", false)

	v.SetDefault("store.path", filepath.Join(configDir, "sessions.db"))

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.tick_every", 10)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MMSIM_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("MMSIM_ASSET"); v != "" {
		cfg.Asset = v
	}
	if v := os.Getenv("MMSIM_SEED"); v != "" {
		if seed, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Seed = uint32(seed)
		}
	}
}

// clamp forces out-of-range numeric settings back to safe values.
// Misconfiguration degrades, it does not crash a session.
func (c *Config) clamp() {
	c.ATRLength = indicators.ClampLength(c.ATRLength)
	if math.IsNaN(c.Drift) || math.IsInf(c.Drift, 0) {
		c.Drift = 0
	}
	if c.InitialBalance <= 0 {
		c.InitialBalance = 10000
	}
	if c.Leverage <= 0 {
		c.Leverage = 10
	}
	if c.OrderNotional <= 0 {
		c.OrderNotional = 1000
	}
	if c.CollapseThreshold < 0 {
		c.CollapseThreshold = 2500
	}
	switch models.Regime(c.Regime) {
	case models.RegimeLow, models.RegimeMedium, models.RegimeHigh:
	default:
		c.Regime = string(models.RegimeMedium)
	}
}

// Validate rejects settings that cannot be clamped into shape.
func (c *Config) Validate() error {
	if c.Mode != string(models.ModeSimulation) && c.Mode != string(models.ModeLive) {
		return errors.NewValidationError("mode", c.Mode, "must be 'simulation' or 'live'")
	}
	if _, err := c.ResolveAsset(c.Asset); err != nil {
		return errors.NewValidationError("asset", c.Asset, "not in the asset table")
	}
	for symbol, ov := range c.Assets {
		if ov.TickSize < 0 {
			return errors.NewValidationError("assets."+symbol+".tick_size", ov.TickSize, "must be positive")
		}
		if ov.MaxPosition < 0 {
			return errors.NewValidationError("assets."+symbol+".max_position", ov.MaxPosition, "must be positive")
		}
	}
	return nil
}

// IsLive reports whether the live price feed drives the engine.
func (c *Config) IsLive() bool {
	return c.Mode == string(models.ModeLive)
}

// ResolveAsset returns the effective asset configuration for symbol:
// the built-in entry with any [assets.<symbol>] overrides applied.
func (c *Config) ResolveAsset(symbol string) (models.AssetConfig, error) {
	asset, ok := BuiltinAssets()[symbol]
	if !ok {
		return models.AssetConfig{}, errors.Wrapf(errors.ErrUnknownAsset, "asset %q", symbol)
	}

	// Viper lowercases table keys, so match symbols case-insensitively.
	if ov, ok := c.override(symbol); ok {
		if ov.KVol > 0 {
			asset.KVol = ov.KVol
		}
		if ov.KPos > 0 {
			asset.KPos = ov.KPos
		}
		if ov.TickSize > 0 {
			asset.TickSize = ov.TickSize
		}
		if ov.MaxPosition > 0 {
			asset.MaxPosition = ov.MaxPosition
		}
		if ov.InitPrice > 0 {
			asset.InitPrice = ov.InitPrice
		}
		if ov.BaseVol > 0 {
			asset.BaseVol = ov.BaseVol
		}
		if ov.FeedID != "" {
			asset.FeedID = ov.FeedID
		}
	}
	return asset, nil
}

func (c *Config) override(symbol string) (AssetOverride, bool) {
	for key, ov := range c.Assets {
		if strings.EqualFold(key, symbol) {
			return ov, true
		}
	}
	return AssetOverride{}, false
}
