package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mmsim/internal/config"
	"mmsim/internal/logging"
	"mmsim/internal/store"
)

// Version information
const (
	Version = "0.1.0"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.SessionStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	sessionStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to open session store, persistence disabled")
	} else {
		app.Store = sessionStore
		logger.Debug().Str("path", cfg.Store.Path).Msg("Session store opened")
	}

	rootCmd := &cobra.Command{
		Use:   "mmsim",
		Short: "Single-asset market-making simulator",
		Long: `mmsim simulates a market maker quoting a single asset: a seeded
price path (or a live exchange feed), volatility-aware spreads,
inventory skew, and a margin ledger with position collapse.

Identical seeds replay identical simulated sessions.

Use 'mmsim help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/mmsim)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newRunCmd(app))
	rootCmd.AddCommand(newAssetsCmd(app))
	rootCmd.AddCommand(newSessionsCmd(app))
	rootCmd.AddCommand(newExportCmd(app))
	rootCmd.AddCommand(newStatsCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"version": Version})
			} else {
				output.Printf("mmsim v%s\n", Version)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the simulator configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Session")
	output.Printf("  Asset:              %s\n", cfg.Asset)
	output.Printf("  Mode:               %s\n", cfg.Mode)
	output.Printf("  Regime:             %s\n", cfg.Regime)
	output.Printf("  Seed:               %d\n", cfg.Seed)
	output.Printf("  ATR Length:         %d\n", cfg.ATRLength)
	output.Println()

	output.Bold("Account")
	output.Printf("  Initial Balance:    %.2f\n", cfg.InitialBalance)
	output.Printf("  Leverage:           %.1fx\n", cfg.Leverage)
	output.Printf("  Order Notional:     %.2f\n", cfg.OrderNotional)
	output.Printf("  Collapse Threshold: %.2f\n", cfg.CollapseThreshold)
	output.Println()

	output.Bold("Feed")
	output.Printf("  Source:             %s\n", cfg.Feed.Source)
	output.Printf("  Min Spacing:        %s\n", cfg.Feed.MinSpacing)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:               %s\n", cfg.Store.Path)
}
