// Package config provides configuration management for the lag-correlation tool.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"

	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/logging"
	"liquidity-lag/internal/models"
)

// DateLayout is the layout used for dates in configuration and flags.
const DateLayout = "2006-01-02"

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" json:"analysis"`
	Assets   AssetsConfig   `mapstructure:"assets" json:"assets"`
	Storage  StorageConfig  `mapstructure:"storage" json:"storage"`
	UI       UIConfig       `mapstructure:"ui" json:"ui"`
	Logging  LoggingConfig  `mapstructure:"logging" json:"logging"`
}

// AnalysisConfig holds the lag sweep defaults.
type AnalysisConfig struct {
	MaxLag              int    `mapstructure:"max_lag" json:"max_lag"`
	IndexSeries         string `mapstructure:"index_series" json:"index_series"`
	MovingAverageWindow int    `mapstructure:"moving_average_window" json:"moving_average_window"`
	StartDate           string `mapstructure:"start_date" json:"start_date"` // 2006-01-02, empty = unbounded
	EndDate             string `mapstructure:"end_date" json:"end_date"`
}

// AssetsConfig holds the selectable asset list.
type AssetsConfig struct {
	Symbols []string `mapstructure:"symbols" json:"symbols"`
	Default string   `mapstructure:"default" json:"default"`
}

// StorageConfig holds series store configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path" json:"db_path"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled" json:"color_enabled"`
	DateFormat   string `mapstructure:"date_format" json:"date_format"`
	MaxRows      int    `mapstructure:"max_rows" json:"max_rows"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	Console    bool   `mapstructure:"console" json:"console"`
	File       bool   `mapstructure:"file" json:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" json:"max_age_days"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/liquidity-lag"
	}
	return filepath.Join(home, ".config", "liquidity-lag")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	v.SetEnvPrefix("LIQUIDITY_LAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	configDir := DefaultConfigDir()
	return &Config{
		Analysis: AnalysisConfig{
			MaxLag:              12,
			IndexSeries:         "M2",
			MovingAverageWindow: 6,
		},
		Assets: AssetsConfig{
			Symbols: []string{"SPY", "QQQ", "GLD", "BTC"},
			Default: "SPY",
		},
		Storage: StorageConfig{DBPath: filepath.Join(configDir, "series.db")},
		UI:      UIConfig{ColorEnabled: true, DateFormat: DateLayout, MaxRows: 12},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			File:       true,
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

func setDefaults(v *viper.Viper, configDir string) {
	d := Default()
	d.Storage.DBPath = filepath.Join(configDir, "series.db")

	v.SetDefault("analysis.max_lag", d.Analysis.MaxLag)
	v.SetDefault("analysis.index_series", d.Analysis.IndexSeries)
	v.SetDefault("analysis.moving_average_window", d.Analysis.MovingAverageWindow)
	v.SetDefault("analysis.start_date", "")
	v.SetDefault("analysis.end_date", "")

	v.SetDefault("assets.symbols", d.Assets.Symbols)
	v.SetDefault("assets.default", d.Assets.Default)

	v.SetDefault("storage.db_path", d.Storage.DBPath)

	v.SetDefault("ui.color_enabled", d.UI.ColorEnabled)
	v.SetDefault("ui.date_format", d.UI.DateFormat)
	v.SetDefault("ui.max_rows", d.UI.MaxRows)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
}

// applyEnvOverrides handles variables that do not map onto a single key.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIQUIDITY_LAG_ASSETS"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, strings.ToUpper(s))
			}
		}
		cfg.Assets.Symbols = symbols
	}
	if v := os.Getenv("LIQUIDITY_LAG_MAX_LAG"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.MaxLag = n
		}
	}
}

// Validate validates the configuration and reports every violation.
func (c *Config) Validate() error {
	var errs error

	if c.Analysis.MaxLag < 1 {
		errs = multierr.Append(errs, apperrors.NewValidationError("analysis.max_lag", c.Analysis.MaxLag, "must be at least 1"))
	}
	if c.Analysis.IndexSeries == "" {
		errs = multierr.Append(errs, apperrors.NewValidationError("analysis.index_series", c.Analysis.IndexSeries, "is required"))
	}
	if c.Analysis.MovingAverageWindow < 1 {
		errs = multierr.Append(errs, apperrors.NewValidationError("analysis.moving_average_window", c.Analysis.MovingAverageWindow, "must be at least 1"))
	}
	if _, err := c.DateRange(); err != nil {
		errs = multierr.Append(errs, err)
	}

	if c.Assets.Default != "" && len(c.Assets.Symbols) > 0 && !c.HasAsset(c.Assets.Default) {
		errs = multierr.Append(errs, apperrors.NewValidationError("assets.default", c.Assets.Default, "is not listed in assets.symbols"))
	}

	if c.Storage.DBPath == "" {
		errs = multierr.Append(errs, apperrors.NewValidationError("storage.db_path", c.Storage.DBPath, "is required"))
	}

	if c.UI.MaxRows < 0 {
		errs = multierr.Append(errs, apperrors.NewValidationError("ui.max_rows", c.UI.MaxRows, "must not be negative"))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = multierr.Append(errs, apperrors.NewValidationError("logging.level", c.Logging.Level, "must be one of: debug, info, warn, error"))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, errs)
	}
	return nil
}

// DateRange parses the configured analysis window.
func (c *Config) DateRange() (models.DateRange, error) {
	var r models.DateRange
	var err error
	if r.Start, err = ParseDate(c.Analysis.StartDate); err != nil {
		return r, apperrors.NewValidationError("analysis.start_date", c.Analysis.StartDate, err.Error())
	}
	if r.End, err = ParseDate(c.Analysis.EndDate); err != nil {
		return r, apperrors.NewValidationError("analysis.end_date", c.Analysis.EndDate, err.Error())
	}
	if err := r.Validate(); err != nil {
		return r, err
	}
	return r, nil
}

// AnalysisDefaults returns the per-request analysis configuration.
func (c *Config) AnalysisDefaults() (models.AnalysisConfig, error) {
	r, err := c.DateRange()
	if err != nil {
		return models.AnalysisConfig{}, err
	}
	return models.AnalysisConfig{
		MaxLag:              c.Analysis.MaxLag,
		DateRange:           r,
		MovingAverageWindow: c.Analysis.MovingAverageWindow,
	}, nil
}

// HasAsset reports whether symbol is in the configured asset list.
func (c *Config) HasAsset(symbol string) bool {
	for _, s := range c.Assets.Symbols {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}

// LogConfig converts the logging section for the logging package.
func (c *Config) LogConfig(configDir string) logging.LogConfig {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   filepath.Join(configDir, "logs", "liquidity-lag.log"),
		MaxSize:    c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAgeDays,
	}
}

// ParseDate parses a 2006-01-02 date in UTC. An empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected date as YYYY-MM-DD: %w", err)
	}
	return t, nil
}
