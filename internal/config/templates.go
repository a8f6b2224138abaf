package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Liquidity Lag Configuration

[analysis]
# Largest lag (in series steps) to evaluate; lags run from 1 to max_lag
max_lag = 12
# Name of the stored money-supply series correlated against each asset
index_series = "M2"
# Window of the moving average drawn through the asset at the optimal lag
moving_average_window = 6
# Optional analysis window (YYYY-MM-DD); leave empty for the full history
start_date = ""
end_date = ""

[assets]
# Selectable asset series
symbols = ["SPY", "QQQ", "GLD", "BTC"]
# Asset used when none is given on the command line
default = "SPY"

[storage]
# SQLite database holding imported series (defaults to <config dir>/series.db)
# db_path = ""

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "2006-01-02"
# Scatter rows shown in terminal output (0 hides the scatter table)
max_rows = 12

[logging]
# Level: debug, info, warn, error
level = "info"
console = true
file = true
max_size_mb = 50
max_backups = 5
max_age_days = 30
`

// TemplatePath returns where the config template lives in configDir.
func TemplatePath(configDir string) string {
	return filepath.Join(configDir, "config.toml")
}

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := TemplatePath(configDir)
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

// WriteTemplate writes the config template, refusing to overwrite an
// existing file unless force is set.
func WriteTemplate(configDir string, force bool) (string, error) {
	path := TemplatePath(configDir)
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("config file already exists at %s", path)
	}
	return path, createTemplateConfig(configDir)
}
