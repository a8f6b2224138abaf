// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"liquidity-lag/internal/models"
)

// SeriesStore defines the interface for time series persistence.
type SeriesStore interface {
	// SaveSeries stores a series, replacing any series with the same name.
	SaveSeries(ctx context.Context, series *models.Series) error
	// LoadSeries returns the named series restricted to the date range.
	LoadSeries(ctx context.Context, name string, dateRange models.DateRange) (*models.Series, error)
	ListSeries(ctx context.Context) ([]SeriesInfo, error)
	DeleteSeries(ctx context.Context, name string) error
	GetSeriesFreshness(ctx context.Context, name string) (time.Time, error)

	// Lifecycle
	Close() error
}

// SeriesInfo summarizes a stored series.
type SeriesInfo struct {
	Name    string    `json:"name"`
	Points  int       `json:"points"`
	Missing int       `json:"missing"`
	First   time.Time `json:"first"`
	Last    time.Time `json:"last"`
}
