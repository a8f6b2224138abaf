// Package models provides domain models for lag-correlation analysis.
package models

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	apperrors "liquidity-lag/internal/errors"
)

// Point is a single observation of a time series. A NaN value marks a
// missing observation.
type Point struct {
	Timestamp time.Time
	Value     float64
}

type pointJSON struct {
	Timestamp time.Time `json:"timestamp"`
	Value     *float64  `json:"value"`
}

// MarshalJSON encodes missing values as null.
func (p Point) MarshalJSON() ([]byte, error) {
	out := pointJSON{Timestamp: p.Timestamp}
	if !math.IsNaN(p.Value) && !math.IsInf(p.Value, 0) {
		v := p.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null or absent value as a missing observation.
func (p *Point) UnmarshalJSON(data []byte) error {
	var in pointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	p.Timestamp = in.Timestamp
	if in.Value == nil {
		p.Value = math.NaN()
	} else {
		p.Value = *in.Value
	}
	return nil
}

// Series is a named time series ordered ascending by timestamp with no
// duplicate timestamps. It is immutable once constructed.
type Series struct {
	name   string
	points []Point
}

// NewSeries builds a Series from points in any order.
func NewSeries(name string, points []Point) (*Series, error) {
	if err := ValidateSeriesName(name); err != nil {
		return nil, err
	}

	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Timestamp.Equal(sorted[i-1].Timestamp) {
			return nil, apperrors.NewValidationError("timestamp", sorted[i].Timestamp, "duplicate timestamp in series "+name)
		}
	}

	return &Series{name: name, points: sorted}, nil
}

// Name returns the series name.
func (s *Series) Name() string {
	return s.name
}

// Len returns the number of points.
func (s *Series) Len() int {
	return len(s.points)
}

// At returns the i-th point in timestamp order.
func (s *Series) At(i int) Point {
	return s.points[i]
}

// Points returns a copy of the points in timestamp order.
func (s *Series) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// First returns the earliest point. ok is false for an empty series.
func (s *Series) First() (p Point, ok bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Last returns the latest point. ok is false for an empty series.
func (s *Series) Last() (p Point, ok bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Within returns the sub-series whose timestamps fall inside r.
func (s *Series) Within(r DateRange) *Series {
	start := sort.Search(len(s.points), func(i int) bool {
		return r.Start.IsZero() || !s.points[i].Timestamp.Before(r.Start)
	})
	end := sort.Search(len(s.points), func(i int) bool {
		return !r.End.IsZero() && s.points[i].Timestamp.After(r.End)
	})
	if end < start {
		end = start
	}
	return &Series{name: s.name, points: s.points[start:end:end]}
}

// MarshalJSON encodes the series as {"name": ..., "points": [...]}.
func (s *Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name   string  `json:"name"`
		Points []Point `json:"points"`
	}{s.name, s.points})
}

// DateRange is an inclusive time window. A zero bound is unbounded.
type DateRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// IsZero reports whether both bounds are open.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Validate rejects ranges that end before they start.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return apperrors.NewValidationError("date_range", r, "end is before start")
	}
	return nil
}
