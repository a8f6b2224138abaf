package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "liquidity-lag/internal/errors"
)

func TestLoad_CreatesTemplateAndUsesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, statErr, "template should be written on first load")

	assert.Equal(t, 12, cfg.Analysis.MaxLag)
	assert.Equal(t, "M2", cfg.Analysis.IndexSeries)
	assert.Equal(t, "SPY", cfg.Assets.Default)
	assert.Equal(t, filepath.Join(dir, "series.db"), cfg.Storage.DBPath)
}

func TestLoad_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[analysis]
max_lag = 24
index_series = "M2SL"
start_date = "2015-01-01"
end_date = "2020-12-31"

[assets]
symbols = ["AAPL", "MSFT"]
default = "MSFT"

[storage]
db_path = "/tmp/custom.db"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Analysis.MaxLag)
	assert.Equal(t, "M2SL", cfg.Analysis.IndexSeries)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Assets.Symbols)
	assert.Equal(t, "/tmp/custom.db", cfg.Storage.DBPath)

	ac, err := cfg.AnalysisDefaults()
	require.NoError(t, err)
	assert.Equal(t, 24, ac.MaxLag)
	assert.Equal(t, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC), ac.DateRange.Start)
	assert.Equal(t, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), ac.DateRange.End)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIQUIDITY_LAG_MAX_LAG", "7")
	t.Setenv("LIQUIDITY_LAG_ASSETS", "spy, tlt")
	t.Setenv("LIQUIDITY_LAG_ANALYSIS_INDEX_SERIES", "WM2NS")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Analysis.MaxLag)
	assert.Equal(t, []string{"SPY", "TLT"}, cfg.Assets.Symbols)
	assert.Equal(t, "WM2NS", cfg.Analysis.IndexSeries)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := Default()
	cfg.Analysis.MaxLag = 0
	cfg.Analysis.IndexSeries = ""
	cfg.Analysis.StartDate = "2021-06-01"
	cfg.Analysis.EndDate = "2020-01-01"
	cfg.Assets.Default = "DOGE"
	cfg.Logging.Level = "trace"

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
	for _, field := range []string{"analysis.max_lag", "analysis.index_series", "date_range", "assets.default", "logging.level"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestValidate_Default(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = ParseDate(" 2019-03-04 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, 3, 4, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("03/04/2019")
	assert.Error(t, err)
}

func TestWriteTemplate(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteTemplate(dir, false)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = WriteTemplate(dir, false)
	assert.Error(t, err)

	_, err = WriteTemplate(dir, true)
	assert.NoError(t, err)
}

func TestHasAsset(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.HasAsset("spy"))
	assert.False(t, cfg.HasAsset("DOGE"))
}
