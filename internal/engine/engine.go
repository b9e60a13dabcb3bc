// Package engine drives the market-making simulation: one repeating tick that
// advances the price, re-estimates volatility, nets inventory when cash runs
// low, recomputes quotes, simulates fills, and records metrics. All engine
// state is owned by the tick loop; observers only ever see value snapshots.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mmsim/internal/errors"
	"mmsim/internal/indicators"
	"mmsim/internal/ledger"
	"mmsim/internal/logging"
	"mmsim/internal/market"
	"mmsim/internal/models"
	"mmsim/internal/quote"
	"mmsim/internal/rng"
	"mmsim/internal/stream"
)

// State is the engine lifecycle state. Idle and Stopped differ only in
// whether the engine has run before.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Defaults for the tick cycle.
const (
	DefaultSimInterval  = 1 * time.Second
	DefaultLiveInterval = 3 * time.Second
	DefaultMaxHistory   = 1000

	fillProbability = 0.25
	minFillFraction = 0.5
	maxFillFraction = 1.0
)

// PriceFeed is the live price collaborator: last traded price in, or
// unavailable out. RequestRefresh must never block and must coalesce
// overlapping calls.
type PriceFeed interface {
	Last() (price float64, ok bool)
	RequestRefresh()
}

// Config parameterizes an engine instance. Each engine owns its configuration
// value; nothing is shared between instances, so parallel backtests can run
// independently.
type Config struct {
	Asset          models.AssetConfig
	Mode           models.Mode
	Regime         models.Regime
	Drift          float64
	Seed           uint32
	ATRLength      int
	InitialBalance float64

	Leverage          float64
	OrderNotional     float64
	CollapseThreshold float64

	SimInterval  time.Duration
	LiveInterval time.Duration
	CandleWindow time.Duration
	MaxHistory   int
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = models.ModeSimulation
	}
	if c.Regime == "" {
		c.Regime = models.RegimeMedium
	}
	c.ATRLength = indicators.ClampLength(c.ATRLength)
	if c.SimInterval <= 0 {
		c.SimInterval = DefaultSimInterval
	}
	if c.LiveInterval <= 0 {
		c.LiveInterval = DefaultLiveInterval
	}
	if c.CandleWindow <= 0 {
		c.CandleWindow = market.DefaultCandleWindow
	}
	if c.MaxHistory <= 0 {
		c.MaxHistory = DefaultMaxHistory
	}
}

// Engine is the simulation orchestrator.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	rand    *rng.Source
	agg     *market.Aggregator
	process *market.Process
	book    *ledger.Ledger
	hub     *stream.Hub
	feed    PriceFeed
	logger  zerolog.Logger

	state     State
	tickCount int64
	lastQuote quote.Quote
	history   []models.DataPoint

	stop chan struct{}
	done chan struct{}
	now  func() time.Time
}

// New creates an engine. feed may be nil in simulation mode.
func New(cfg Config, feed PriceFeed, logger zerolog.Logger) *Engine {
	cfg.applyDefaults()

	src := rng.New(cfg.Seed)
	agg := market.NewAggregator(cfg.CandleWindow)
	return &Engine{
		cfg:     cfg,
		rand:    src,
		agg:     agg,
		process: market.NewProcess(cfg.Asset, cfg.Regime, cfg.Drift, src, agg),
		book: ledger.New(ledger.Config{
			InitialBalance:    cfg.InitialBalance,
			Leverage:          cfg.Leverage,
			OrderNotional:     cfg.OrderNotional,
			CollapseThreshold: cfg.CollapseThreshold,
		}),
		hub:    stream.NewHub(),
		feed:   feed,
		logger: logging.WithAsset(logger, cfg.Asset.Symbol),
		state:  StateIdle,
		now:    time.Now,
	}
}

// Hub returns the engine's event hub for observers to subscribe on.
func (e *Engine) Hub() *stream.Hub { return e.hub }

// State returns the lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Start begins the repeating tick. A no-op when already running. The first
// tick executes immediately rather than waiting for the first interval. In
// live mode one blocking fetch seeds the mid before the loop starts.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return nil
	}
	e.state = StateRunning
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done

	interval := e.cfg.SimInterval
	if e.cfg.Mode == models.ModeLive {
		interval = e.cfg.LiveInterval
		if e.feed != nil {
			e.feed.RequestRefresh()
			if price, ok := e.feed.Last(); ok {
				e.process.Observe(price, e.now())
			}
		}
	}
	e.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		e.Tick()
		for {
			select {
			case <-ctx.Done():
				e.markStopped()
				return
			case <-stop:
				return
			case <-ticker.C:
				e.Tick()
			}
		}
	}()

	e.logger.Info().
		Str("mode", string(e.cfg.Mode)).
		Dur("interval", interval).
		Msg("Engine started")
	return nil
}

// Stop cancels the repeating tick. Safe to call at any time, from any
// goroutine; every call returns only after the loop has exited, so no
// tick fires after it. A tick already in progress completes. The state
// flips to Stopped before the lock is released, so a concurrent Stop
// never closes the stop channel twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	done := e.done
	if e.state != StateRunning {
		e.mu.Unlock()
		if done != nil {
			<-done
		}
		return
	}
	e.state = StateStopped
	close(e.stop)
	e.mu.Unlock()

	<-done
	e.logger.Info().Msg("Engine stopped")
}

func (e *Engine) markStopped() {
	e.mu.Lock()
	if e.state == StateRunning {
		e.state = StateStopped
	}
	e.mu.Unlock()
}

// Tick runs one full cycle. Exported so tests and backtests can drive the
// engine without the wall-clock scheduler.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	ts := e.now()

	// 1. Advance price.
	var mid float64
	if e.cfg.Mode == models.ModeLive {
		if e.feed != nil {
			e.feed.RequestRefresh()
			if price, ok := e.feed.Last(); ok {
				e.process.Observe(price, ts)
			} else {
				// Feed unavailable: reuse the last known price.
				e.process.Observe(e.process.Price(), ts)
			}
		}
		mid = e.process.Price()
	} else {
		mid = e.process.Step(ts)
	}

	// 2. Volatility estimate.
	atr := indicators.ATR(e.agg.Candles(), e.cfg.ATRLength)

	// 3. Net matched inventory when cash is low.
	if e.book.ShouldCollapse() {
		if c := e.book.Collapse(ts); c != nil {
			logging.LogCollapse(e.logger, c.Size, c.RealizedPnL)
			e.hub.Publish(stream.Event{
				Type:      stream.EventCollapse,
				Timestamp: ts,
				Collapse:  c,
			})
		}
	}

	// 4. Quotes from current mid, volatility, and inventory.
	q := quote.Compute(mid, atr, e.book.Long().Size, e.book.Short().Size, e.cfg.Asset)
	e.lastQuote = q

	// 5. Probabilistic market activity against the quotes.
	if e.rand.Next() < fillProbability {
		buySide := e.rand.Next() < 0.5
		frac := e.rand.InRange(minFillFraction, maxFillFraction)

		// A market buy lifts the ask, putting the engine short; a market
		// sell hits the bid, putting the engine long.
		side, price := models.SideLong, q.Bid
		if buySide {
			side, price = models.SideShort, q.Ask
		}
		size := frac * e.book.OrderSize(price)
		if size > 0 {
			if tr := e.book.Enter(side, price, size, ts); tr != nil {
				logging.LogTrade(e.logger, string(tr.Side), tr.Price, tr.Size, tr.Margin)
				e.hub.Publish(stream.Event{
					Type:      stream.EventTrade,
					Timestamp: ts,
					Trade:     tr,
				})
			}
		}
	}

	// 6-7. Metrics snapshot into the bounded history.
	e.tickCount++
	point := models.DataPoint{
		Timestamp:     ts,
		Tick:          e.tickCount,
		Mid:           mid,
		Bid:           q.Bid,
		Ask:           q.Ask,
		Spread:        q.Spread,
		ATR:           atr,
		CashBalance:   e.book.Cash(),
		Equity:        e.book.Equity(mid),
		UnrealizedPnL: e.book.Unrealized(mid),
		RealizedPnL:   e.book.RealizedPnL(),
		LongSize:      e.book.Long().Size,
		ShortSize:     e.book.Short().Size,
	}
	e.history = append(e.history, point)
	if len(e.history) > e.cfg.MaxHistory {
		e.history = e.history[len(e.history)-e.cfg.MaxHistory:]
	}

	logging.LogTick(e.logger, point.Tick, point.Mid, point.Bid, point.Ask, point.Equity)

	// 8. Notify observers.
	e.hub.Publish(stream.Event{
		Type:      stream.EventTick,
		Timestamp: ts,
		Point:     &point,
		Quote:     &q,
	})
}

// Reset restores the engine to a fresh session: initial balance, empty
// histories, price at its initial value, RNG rewound to the seed.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		return errors.ErrEngineRunning
	}
	e.book.Reset(e.cfg.InitialBalance)
	e.process.Reset()
	e.history = nil
	e.tickCount = 0
	e.lastQuote = quote.Quote{}
	e.state = StateIdle
	return nil
}

// UpdateAsset overwrites the per-asset parameters. Rejected while running so
// a tick never sees a half-applied configuration.
func (e *Engine) UpdateAsset(asset models.AssetConfig) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateRunning {
		return errors.ErrEngineRunning
	}
	e.cfg.Asset = asset
	e.process = market.NewProcess(asset, e.cfg.Regime, e.cfg.Drift, e.rand, e.agg)
	return nil
}

// History returns a copy of the recorded data points, oldest first.
func (e *Engine) History() []models.DataPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.DataPoint, len(e.history))
	copy(out, e.history)
	return out
}

// Trades returns the ledger's trade history, newest first.
func (e *Engine) Trades() []models.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Trades()
}

// Collapses returns the ledger's collapse history, newest first.
func (e *Engine) Collapses() []models.Collapse {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Collapses()
}

// Snapshot returns the current ledger snapshot.
func (e *Engine) Snapshot() models.LedgerSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Snapshot()
}

// LastQuote returns the quote from the most recent tick.
func (e *Engine) LastQuote() quote.Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastQuote
}

// Asset returns the active asset configuration.
func (e *Engine) Asset() models.AssetConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Asset
}

// Mode returns the configured price-source mode.
func (e *Engine) Mode() models.Mode { return e.cfg.Mode }

// Regime returns the configured volatility regime.
func (e *Engine) Regime() models.Regime { return e.cfg.Regime }

// SetClock overrides the engine's time source. Test hook.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}
