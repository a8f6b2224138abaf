// Package cli provides the command-line interface for liquidity-lag.
package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"liquidity-lag/internal/config"
	"liquidity-lag/internal/logging"
	"liquidity-lag/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2026-10-19"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	ConfigDir string
	Logger    zerolog.Logger

	// OpenStore opens the series store at path. Replaced in tests.
	OpenStore func(path string) (store.SeriesStore, error)
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, configDir string, logger zerolog.Logger) *cobra.Command {
	return newRootCmd(&App{
		Config:    cfg,
		ConfigDir: configDir,
		Logger:    logger,
		OpenStore: func(path string) (store.SeriesStore, error) {
			return store.NewSQLiteStore(path)
		},
	})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "liquidity-lag",
		Short: "Measure how asset prices lag money supply",
		Long: `liquidity-lag correlates a money-supply index series against asset
price series shifted by 1..N steps and reports the lag with the strongest
positive Pearson correlation.

Import series with 'liquidity-lag series import', then run
'liquidity-lag correlate <asset>'.`,
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

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/liquidity-lag)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "series database path (overrides storage.db_path)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newAssetsCmd(app))
	rootCmd.AddCommand(newCorrelateCmd(app))
	rootCmd.AddCommand(newSeriesCmd(app))

	return rootCmd
}

// withStore opens the series store for the duration of fn.
func (app *App) withStore(cmd *cobra.Command, fn func(st store.SeriesStore) error) (err error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = app.Config.Storage.DBPath
	}

	st, err := app.OpenStore(path)
	if err != nil {
		return fmt.Errorf("opening series store: %w", err)
	}
	app.Logger.Debug().Str("db_path", path).Msg("Series store opened")
	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing series store: %w", cerr)
		}
	}()

	return fn(st)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, true)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("liquidity-lag v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newAssetsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assets",
		Short: "List the configured asset selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app.Config.UI.ColorEnabled)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbols": app.Config.Assets.Symbols,
					"default": app.Config.Assets.Default,
					"index":   app.Config.Analysis.IndexSeries,
				})
			}

			if len(app.Config.Assets.Symbols) == 0 {
				output.Warning("No assets configured; add symbols under [assets] in config.toml")
				return nil
			}
			output.Bold("Assets (index: %s)", app.Config.Analysis.IndexSeries)
			for _, s := range app.Config.Assets.Symbols {
				if strings.EqualFold(s, app.Config.Assets.Default) {
					output.Success("* %s (default)", s)
				} else {
					output.Printf("  %s\n", s)
				}
			}
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app.Config.UI.ColorEnabled)
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
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app.Config.UI.ColorEnabled)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"path": app.ConfigDir,
					"file": config.TemplatePath(app.ConfigDir),
				})
			}
			output.Println(app.ConfigDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app.Config.UI.ColorEnabled)
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

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the configuration template",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd, app.Config.UI.ColorEnabled)
			force, _ := cmd.Flags().GetBool("force")
			path, err := config.WriteTemplate(app.ConfigDir, force)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"file": path})
			}
			output.Success("✓ Wrote %s", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config.toml")
	cmd.AddCommand(initCmd)

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Analysis")
	output.Printf("  Max Lag:          %d\n", cfg.Analysis.MaxLag)
	output.Printf("  Index Series:     %s\n", cfg.Analysis.IndexSeries)
	output.Printf("  MA Window:        %d\n", cfg.Analysis.MovingAverageWindow)
	output.Printf("  Start Date:       %s\n", orDash(cfg.Analysis.StartDate))
	output.Printf("  End Date:         %s\n", orDash(cfg.Analysis.EndDate))
	output.Println()

	output.Bold("Assets")
	output.Printf("  Symbols:          %s\n", orDash(strings.Join(cfg.Assets.Symbols, ", ")))
	output.Printf("  Default:          %s\n", orDash(cfg.Assets.Default))
	output.Println()

	output.Bold("Storage")
	output.Printf("  Database:         %s\n", cfg.Storage.DBPath)
	output.Println()

	output.Bold("UI")
	output.Printf("  Color:            %v\n", cfg.UI.ColorEnabled)
	output.Printf("  Date Format:      %s\n", cfg.UI.DateFormat)
	output.Printf("  Max Rows:         %d\n", cfg.UI.MaxRows)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:            %s\n", cfg.Logging.Level)
	output.Printf("  Console:          %v\n", cfg.Logging.Console)
	output.Printf("  File:             %v\n", cfg.Logging.File)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
