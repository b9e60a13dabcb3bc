package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mmsim/internal/engine"
	"mmsim/internal/export"
	"mmsim/internal/feed"
	"mmsim/internal/models"
	"mmsim/internal/notify"
	"mmsim/internal/performance"
)

func newRunCmd(app *App) *cobra.Command {
	var (
		flagAsset   string
		flagMode    string
		flagRegime  string
		flagSeed    uint32
		flagTicks   int
		flagFast    bool
		flagSave    bool
		flagCSV     string
		flagJSON    string
		flagQuiet   bool
		flagBalance float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a quoting session",
		Long: `Run a quoting session against the simulated price path or a live
exchange feed. Simulated sessions with the same seed replay tick for
tick; --fast skips the wall-clock wait between ticks.

Stop a running session with Ctrl-C; the summary still prints and
--save still persists it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			output := NewOutput(cmd)

			if flagAsset == "" {
				flagAsset = cfg.Asset
			}
			asset, err := cfg.ResolveAsset(flagAsset)
			if err != nil {
				return err
			}
			if flagMode == "" {
				flagMode = cfg.Mode
			}
			if flagRegime == "" {
				flagRegime = cfg.Regime
			}
			if !cmd.Flags().Changed("seed") {
				flagSeed = cfg.Seed
			}
			if !cmd.Flags().Changed("balance") {
				flagBalance = cfg.InitialBalance
			}

			mode := models.Mode(flagMode)
			var priceFeed engine.PriceFeed
			var closeFeed func()
			if mode == models.ModeLive {
				priceFeed, closeFeed, err = buildFeed(cmd.Context(), app, asset)
				if err != nil {
					return err
				}
				defer closeFeed()
			}

			eng := engine.New(engine.Config{
				Asset:             asset,
				Mode:              mode,
				Regime:            models.Regime(flagRegime),
				Seed:              flagSeed,
				Drift:             cfg.Drift,
				ATRLength:         cfg.ATRLength,
				InitialBalance:    flagBalance,
				Leverage:          cfg.Leverage,
				OrderNotional:     cfg.OrderNotional,
				CollapseThreshold: cfg.CollapseThreshold,
			}, priceFeed, app.Logger)

			if !flagQuiet && !output.IsJSON() {
				reporter := notify.NewTerminalReporter(output.Writer(), asset.Precision, cfg.UI.TickEvery)
				eng.Hub().RegisterConsumer(reporter)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if flagFast && mode == models.ModeSimulation {
				runFast(ctx, eng, flagTicks)
			} else {
				if err := runTimed(ctx, eng, flagTicks); err != nil {
					return err
				}
			}

			summary := performance.Compute(eng.History(), eng.Trades(), eng.Collapses())
			if output.IsJSON() {
				output.JSON(map[string]interface{}{
					"asset":   asset.Symbol,
					"mode":    string(mode),
					"seed":    flagSeed,
					"summary": summary,
				})
			} else {
				performance.Print(output.Writer(), asset.Symbol, summary)
			}

			sess := buildSession(eng, flagSeed)
			if flagSave {
				if app.Store == nil {
					output.Warning("Session store unavailable, not saved")
				} else {
					sessionID, err := app.Store.Save(cmd.Context(), sess)
					if err != nil {
						return err
					}
					if !output.IsJSON() {
						output.Success("Session saved: %s", sessionID)
					}
				}
			}
			if flagCSV != "" {
				if err := export.HistoryCSVFile(flagCSV, eng.History()); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Info("History written to %s", flagCSV)
				}
			}
			if flagJSON != "" {
				if err := export.JSONFile(flagJSON, sess); err != nil {
					return err
				}
				if !output.IsJSON() {
					output.Info("Session written to %s", flagJSON)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagAsset, "asset", "", "asset symbol (default from config)")
	cmd.Flags().StringVar(&flagMode, "mode", "", "price source: simulation or live")
	cmd.Flags().StringVar(&flagRegime, "regime", "", "volatility regime: low, medium, high")
	cmd.Flags().Uint32Var(&flagSeed, "seed", 0, "RNG seed")
	cmd.Flags().IntVar(&flagTicks, "ticks", 0, "stop after N ticks (0: run until interrupted)")
	cmd.Flags().BoolVar(&flagFast, "fast", false, "skip the wall-clock wait between ticks (simulation only)")
	cmd.Flags().BoolVar(&flagSave, "save", false, "save the finished session to the store")
	cmd.Flags().StringVar(&flagCSV, "export-csv", "", "write the tick history to a CSV file")
	cmd.Flags().StringVar(&flagJSON, "export-json", "", "write the full session to a JSON file")
	cmd.Flags().BoolVar(&flagQuiet, "quiet", false, "suppress per-event output")
	cmd.Flags().Float64Var(&flagBalance, "balance", 0, "initial cash balance")

	return cmd
}

// buildFeed wires the configured live price source: a polling REST
// client or a websocket trade stream.
func buildFeed(ctx context.Context, app *App, asset models.AssetConfig) (engine.PriceFeed, func(), error) {
	cfg := app.Config
	if cfg.Feed.Source == "ws" {
		streamer := feed.NewStreamer(feed.StreamerConfig{
			URL:    cfg.Feed.WsURL,
			FeedID: asset.FeedID,
		}, app.Logger)
		if err := streamer.Start(ctx); err != nil {
			return nil, nil, err
		}
		return streamer, streamer.Close, nil
	}

	poller := feed.NewPoller(feed.PollerConfig{
		BaseURL:    cfg.Feed.BaseURL,
		FeedID:     asset.FeedID,
		MinSpacing: cfg.Feed.MinSpacing,
	}, app.Logger)
	if _, err := poller.Prime(ctx); err != nil {
		// The engine falls back to the asset's initial price until the
		// feed recovers.
		app.Logger.Warn().Err(err).Msg("Initial price fetch failed")
	}
	return poller, func() {}, nil
}

// runFast drives ticks back to back without the scheduler.
func runFast(ctx context.Context, eng *engine.Engine, ticks int) {
	if ticks <= 0 {
		ticks = engine.DefaultMaxHistory
	}
	for i := 0; i < ticks; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		eng.Tick()
	}
}

// runTimed starts the engine's scheduler and waits for the tick count
// or an interrupt.
func runTimed(ctx context.Context, eng *engine.Engine, ticks int) error {
	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer eng.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// The history is a bounded ring, so count by the absolute
				// tick index rather than the slice length.
				if h := eng.History(); ticks > 0 && len(h) > 0 && h[len(h)-1].Tick >= int64(ticks) {
					return
				}
			}
		}
	}()
	<-done
	return nil
}

// buildSession captures the engine state as a storable session.
func buildSession(eng *engine.Engine, seed uint32) export.Session {
	return export.Session{
		CreatedAt: time.Now().UTC(),
		Asset:     eng.Asset(),
		Mode:      eng.Mode(),
		Regime:    eng.Regime(),
		Seed:      seed,
		Ledger:    eng.Snapshot(),
		Trades:    eng.Trades(),
		Collapses: eng.Collapses(),
		History:   eng.History(),
	}
}
