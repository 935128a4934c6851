package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pattern-engine/internal/analysis/patterns"
	"pattern-engine/internal/config"
	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/logging"
	"pattern-engine/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2024-06-01"
)

// App holds the application dependencies.
type App struct {
	ConfigDir  string
	Config     *config.Config
	Logger     zerolog.Logger
	Store      store.CandleStore
	Recognizer *patterns.PatternRecognizer
}

// OpenStore opens the candle database on first use.
func (a *App) OpenStore() (store.CandleStore, error) {
	if a.Store != nil {
		return a.Store, nil
	}

	s, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		return nil, apperrors.Wrapf(fmt.Errorf("%w: %w", apperrors.ErrDatabaseError, err), "opening %s", a.Config.Store.Path)
	}
	a.Store = s
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store initialized")
	return s, nil
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:   "patterns",
		Short: "Candlestick and chart pattern detection",
		Long: `Pattern engine detects candlestick patterns and chart formations
in OHLCV price series.

Bars are read from a CSV file (--file) or from the local candle store,
which is filled with 'patterns data import'.

Use 'patterns types' to list every pattern the engine knows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/pattern-engine)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Float64("min-confidence", 0, "override patterns.min_confidence")

	addCoreCommands(rootCmd, app)
	addPatternCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addHelpCommands(rootCmd)

	return rootCmd
}

// setup loads configuration and builds the logger and recognizer.
func (a *App) setup(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		dir = config.DefaultConfigDir()
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("min-confidence") {
		cfg.Patterns.MinConfidence, _ = cmd.Flags().GetFloat64("min-confidence")
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger := logging.NewLoggerWithConfig(cfg.Logging.LogConfig())
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		logger = logger.Level(zerolog.DebugLevel)
	}
	logger = logging.WithOperation(logger, cmd.CommandPath())
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

	if !cfg.UI.ColorEnabled {
		color.NoColor = true
	}

	a.ConfigDir = dir
	a.Config = cfg
	a.Logger = logger
	a.Recognizer = patterns.NewPatternRecognizer(cfg.Patterns, patterns.WithLogger(logger))

	logger.Debug().Str("config_dir", dir).Msg("Configuration loaded")
	return nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Pattern Engine v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the pattern engine configuration.",
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
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := config.ConfigPath(app.ConfigDir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	p := cfg.Patterns
	output.Bold("Candlestick Thresholds")
	output.Printf("  Doji Body Ratio:     %.3f\n", p.DojiBodyRatio)
	output.Printf("  Shadow Body Ratio:   %.3f\n", p.ShadowBodyRatio)
	output.Printf("  Marubozu Shadow:     %.3f\n", p.MarubozuShadowRatio)
	output.Printf("  Engulfing Ratio:     %.3f\n", p.EngulfingRatio)
	output.Printf("  Star Gap Ratio:      %.3f\n", p.StarGapRatio)
	output.Println()

	output.Bold("Chart Thresholds")
	output.Printf("  Pivot Lookback:      %d\n", p.PivotLookback)
	output.Printf("  Pattern Bars:        %d-%d\n", p.MinPatternBars, p.MaxPatternBars)
	output.Printf("  Price Tolerance:     %.3f\n", p.PriceTolerance)
	output.Printf("  Slope Tolerance:     %.3f\n", p.SlopeTolerance)
	output.Printf("  Min Confidence:      %s\n", FormatConfidence(p.MinConfidence))
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:                %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Scan")
	output.Printf("  Workers:             %d\n", cfg.Scan.Workers)
	output.Printf("  Limit:               %d\n", cfg.Scan.Limit)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:               %s\n", cfg.Logging.Level)
	output.Printf("  Console:             %v\n", cfg.Logging.Console)
	output.Printf("  File:                %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)
}
