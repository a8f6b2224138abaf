// Package analysis runs lag-correlation requests: it loads the index and
// asset series, sweeps the lags and assembles the result handed to a
// reporter.
package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"liquidity-lag/internal/analysis/lagcorr"
	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/logging"
	"liquidity-lag/internal/models"
)

// Loader supplies named time series restricted to a date range.
type Loader interface {
	LoadSeries(ctx context.Context, name string, dateRange models.DateRange) (*models.Series, error)
}

// Request selects the pair to correlate and how.
type Request struct {
	Asset  string
	Index  string
	Config models.AnalysisConfig
}

// Validate checks the request before any data is loaded.
func (r Request) Validate() error {
	if r.Config.MaxLag < 1 {
		return fmt.Errorf("%w: max lag must be at least 1, got %d", apperrors.ErrInvalidRange, r.Config.MaxLag)
	}
	if strings.TrimSpace(r.Asset) == "" {
		return apperrors.NewValidationError("asset", r.Asset, "asset is required")
	}
	if strings.TrimSpace(r.Index) == "" {
		return apperrors.NewValidationError("index", r.Index, "index series is required")
	}
	return r.Config.DateRange.Validate()
}

// Engine answers recompute requests. It keeps no state between calls.
type Engine struct {
	loader Loader
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewEngine creates an Engine reading series from loader.
func NewEngine(loader Loader, logger zerolog.Logger) *Engine {
	return &Engine{
		loader: loader,
		logger: logging.WithOperation(logger, "recompute"),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// Recompute loads both series, sweeps lags 1..MaxLag and returns the
// correlation map, the optimal lag and the scatter at that lag.
//
// If no lag has a defined coefficient the error wraps ErrNoValidLag and the
// returned Result still holds the correlation map.
func (e *Engine) Recompute(ctx context.Context, req Request) (*models.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := e.now()
	ctx, logger := logging.WithRequestID(ctx, e.logger, e.newID())
	logger = logging.WithPair(logger, req.Index, req.Asset)
	logger.Debug().Int("max_lag", req.Config.MaxLag).Msg("Recompute requested")

	index, err := e.load(ctx, logger, req.Index, req.Config.DateRange)
	if err != nil {
		return nil, err
	}
	asset, err := e.load(ctx, logger, req.Asset, req.Config.DateRange)
	if err != nil {
		return nil, err
	}

	result := &models.Result{
		RequestID:   logging.RequestIDFromContext(ctx),
		Asset:       req.Asset,
		Index:       req.Index,
		Config:      req.Config,
		IndexPoints: index.Len(),
		AssetPoints: asset.Len(),
		ComputedAt:  start.UTC(),
	}

	sweep, err := lagcorr.Analyze(index, asset, req.Config.MaxLag)
	if sweep != nil {
		result.Correlations = sweep.Correlations
	}
	result.Duration = e.now().Sub(start)
	if err != nil {
		logger.Warn().Err(err).Int("lags", len(result.Correlations)).Msg("No valid lag found")
		return result, apperrors.NewAnalysisError(req.Asset, req.Index, req.Config.MaxLag, err)
	}

	optimal := sweep.Optimal
	result.Optimal = &optimal
	result.Scatter = Scatter(index, asset, optimal.Lag, req.Config.MovingAverageWindow)
	result.Duration = e.now().Sub(start)

	logging.LogAnalysis(logger, len(result.Correlations), result.Correlations.Defined(), optimal.Lag, optimal.Coefficient, result.Duration)
	return result, nil
}

func (e *Engine) load(ctx context.Context, logger zerolog.Logger, name string, dateRange models.DateRange) (*models.Series, error) {
	began := e.now()
	series, err := e.loader.LoadSeries(ctx, name, dateRange)
	logging.LogStoreCall(logger, "load", name, e.now().Sub(began), err)
	if err != nil {
		return nil, apperrors.Wrapf(err, "loading %s", name)
	}
	return series, nil
}

// Scatter pairs the index with the asset shifted by lag and attaches a
// trailing moving average of the asset column. The average is omitted for
// rows before the window fills or when window is not positive.
func Scatter(index, asset *models.Series, lag, window int) []models.ScatterPoint {
	rows := lagcorr.Align(index, lagcorr.Shift(asset, lag))
	if len(rows) == 0 {
		return nil
	}

	_, assetValues := lagcorr.Columns(rows)
	averages, err := lagcorr.MovingAverage(assetValues, window)
	if err != nil {
		averages = nil
	}

	points := make([]models.ScatterPoint, len(rows))
	for i, r := range rows {
		points[i] = models.ScatterPoint{
			Timestamp: r.Timestamp,
			Index:     r.A,
			Asset:     r.B,
		}
		if averages != nil && models.IsDefined(averages[i]) {
			avg := averages[i]
			points[i].MovingAverage = &avg
		}
	}
	return points
}
