package models

import (
	"encoding/json"
	"math"
	"sort"
	"time"
)

// AnalysisConfig is the per-request configuration of a lag sweep.
type AnalysisConfig struct {
	MaxLag              int       `json:"max_lag"`
	DateRange           DateRange `json:"date_range"`
	MovingAverageWindow int       `json:"moving_average_window"`
}

// CorrelationMap maps a lag to its Pearson coefficient. A lag with no
// overlapping data has no entry; a lag whose coefficient is undefined
// holds NaN.
type CorrelationMap map[int]float64

// Lags returns the lags present in the map in ascending order.
func (m CorrelationMap) Lags() []int {
	lags := make([]int, 0, len(m))
	for lag := range m {
		lags = append(lags, lag)
	}
	sort.Ints(lags)
	return lags
}

// Defined returns the number of entries with a finite coefficient.
func (m CorrelationMap) Defined() int {
	n := 0
	for _, r := range m {
		if IsDefined(r) {
			n++
		}
	}
	return n
}

type lagCorrelation struct {
	Lag         int      `json:"lag"`
	Correlation *float64 `json:"correlation"`
}

// MarshalJSON encodes the map as a lag-ordered list; undefined coefficients
// become null.
func (m CorrelationMap) MarshalJSON() ([]byte, error) {
	out := make([]lagCorrelation, 0, len(m))
	for _, lag := range m.Lags() {
		entry := lagCorrelation{Lag: lag}
		if r := m[lag]; IsDefined(r) {
			entry.Correlation = &r
		}
		out = append(out, entry)
	}
	return json.Marshal(out)
}

// IsDefined reports whether a coefficient is usable for comparison.
func IsDefined(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}

// OptimalLag is the lag with the highest defined coefficient.
type OptimalLag struct {
	Lag         int     `json:"lag"`
	Coefficient float64 `json:"coefficient"`
}

// AlignedRow is one row of the inner join of two series.
type AlignedRow struct {
	Timestamp time.Time
	A         float64
	B         float64
}

// ScatterPoint is one row of the index/asset scatter at the optimal lag.
// MovingAverage is nil until the averaging window is filled.
type ScatterPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Index         float64   `json:"index"`
	Asset         float64   `json:"asset"`
	MovingAverage *float64  `json:"moving_average,omitempty"`
}

// Result is the response to a single recompute request.
type Result struct {
	RequestID    string         `json:"request_id"`
	Asset        string         `json:"asset"`
	Index        string         `json:"index"`
	Config       AnalysisConfig `json:"config"`
	IndexPoints  int            `json:"index_points"`
	AssetPoints  int            `json:"asset_points"`
	Correlations CorrelationMap `json:"correlations"`
	Optimal      *OptimalLag    `json:"optimal,omitempty"`
	Scatter      []ScatterPoint `json:"scatter,omitempty"`
	ComputedAt   time.Time      `json:"computed_at"`
	Duration     time.Duration  `json:"duration_ns"`
}
