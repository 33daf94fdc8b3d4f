// Package cli provides the command-line interface for the navigator.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/config"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/logging"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/marketdata"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/metrics"
	"github.com/seyoungseyoung/GoldenEyeNavigator/internal/store"
)

// Version information, overridable with -ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the application dependencies.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	configDir string
	closers   []func() error
	prices    marketdata.Provider
	subs      store.SubscriptionStore
}

// NewRootCmd creates the root command. Configuration is loaded from the
// --config directory before any subcommand runs.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

// newRootCmd builds the command tree around app. A preset app.Config skips loading.
func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "navigator",
		Short: "GoldenEye Navigator - AI-selected indicator timing signals",
		Long: `GoldenEye Navigator asks a language model to pick three technical indicators
for a stock and a trading style, replays them over the last year of daily prices
and reports a consolidated BUY/SELL timeline with a five-point verdict.

Subscribers receive the verdict by email every morning. The model also drafts
personalised investment strategies from survey answers and answers questions
about them.

Use 'navigator examples' to see common workflows.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/goldeneye-navigator)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newTimingCmd(app))
	rootCmd.AddCommand(newServeCmd(app))
	addAlertCommands(rootCmd, app)
	addAdvisorCommands(rootCmd, app)
	rootCmd.AddCommand(newExamplesCmd())

	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		if dir == "" {
			dir = config.DefaultConfigDir()
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.Config = cfg
		a.configDir = dir

		a.Logger = logging.NewLoggerWithConfig(logging.LogConfig{
			Level:      cfg.Log.Level,
			Console:    cfg.Log.Console,
			File:       cfg.Log.File,
			FilePath:   cfg.Log.FilePath,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
		})
	}
	if a.configDir == "" {
		a.configDir = config.DefaultConfigDir()
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	if a.Metrics == nil {
		a.Metrics = metrics.New()
	}
	return nil
}

// Close releases resources opened while wiring components.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("GoldenEye Navigator v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
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
				output.JSON(map[string]string{"path": app.configDir})
			} else {
				output.Println(app.configDir)
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if err := app.Config.RequireLLM(); err != nil {
				output.Error("Credentials check failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Model")
	output.Printf("  Provider:        %s\n", cfg.LLM.Provider)
	output.Printf("  Model:           %s\n", orDefault(cfg.LLM.Model))
	output.Printf("  Attempts:        %d (every %s)\n", cfg.LLM.MaxAttempts, cfg.LLM.RetryDelay)
	output.Printf("  Temperature:     %.2f\n", cfg.LLM.Temperature)
	output.Printf("  Credentials:     %s\n", present(cfg.RequireLLM() == nil))
	output.Println()

	output.Bold("Market Data")
	output.Printf("  Provider:        %s\n", cfg.MarketData.Provider)
	output.Printf("  History:         %d days\n", cfg.MarketData.HistoryDays)
	if cfg.MarketData.Provider == "csv" {
		output.Printf("  CSV dir:         %s\n", cfg.MarketData.CSVDir)
	}
	output.Println()

	output.Bold("Alerts")
	output.Printf("  Enabled:         %v\n", cfg.Alerts.Enabled)
	output.Printf("  Schedule:        %s (%s)\n", cfg.Alerts.Schedule, cfg.Alerts.Timezone)
	output.Printf("  SMTP:            %s\n", present(cfg.Credentials.SMTP.Configured()))
	output.Printf("  Store:           %s at %s\n", cfg.Store.Driver, cfg.Store.Path)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:         %s\n", cfg.Server.Addr)
	output.Printf("  Cron secret:     %s\n", present(cfg.Server.CronSecret != ""))
}

func orDefault(s string) string {
	if s == "" {
		return "(provider default)"
	}
	return s
}

func present(ok bool) string {
	if ok {
		return "configured"
	}
	return "missing"
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			examples := []struct{ title, command string }{
				{"Timing signals for a ticker", "navigator timing AAPL --style 단기"},
				{"Resolve a company name first", "navigator timing 삼성전자 --resolve"},
				{"Subscribe to the daily email", "navigator subscribe me@example.com 005930.KS"},
				{"Run the daily job once", "navigator alerts run"},
				{"Draft a strategy and save it", "navigator strategy --profile profile.json --out strategy.json"},
				{"Ask about the saved strategy", "navigator ask 채권 비중을 늘려야 할까요? --strategy strategy.json"},
				{"Read the market news", "navigator insight --file news.txt"},
				{"Serve the HTTP API with the scheduler", "navigator serve --addr :8080"},
			}
			for _, ex := range examples {
				output.Bold(ex.title)
				output.Printf("  %s\n\n", ex.command)
			}
			output.Dim("Add --json to any command for machine-readable output.")
		},
	}
}
