// Package lagcorr computes Pearson correlation between two time series
// across a range of lags and selects the lag with the strongest positive
// correlation.
package lagcorr

import (
	"fmt"
	"math"

	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/models"
)

// Analysis is the outcome of one lag sweep.
type Analysis struct {
	Correlations models.CorrelationMap
	Optimal      models.OptimalLag
}

// Analyze correlates a with b shifted backward by every lag in [1, maxLag].
//
// When no lag yields a defined coefficient the returned error wraps
// ErrNoValidLag and the Analysis still carries the correlation map, so
// callers can inspect the undefined entries.
func Analyze(a, b *models.Series, maxLag int) (*Analysis, error) {
	if maxLag < 1 {
		return nil, fmt.Errorf("%w: max lag must be at least 1, got %d", apperrors.ErrInvalidRange, maxLag)
	}

	correlations := make(models.CorrelationMap, maxLag)
	for lag := 1; lag <= maxLag; lag++ {
		rows := Align(a, Shift(b, lag))
		if len(rows) == 0 {
			continue
		}
		xs, ys := Columns(rows)
		correlations[lag] = Pearson(xs, ys)
	}

	optimal, err := SelectOptimal(correlations)
	if err != nil {
		return &Analysis{Correlations: correlations}, err
	}

	return &Analysis{
		Correlations: correlations,
		Optimal:      optimal,
	}, nil
}

// Shift moves s backward by lag steps: the value observed at position i+lag
// is paired with the timestamp at position i. The last lag timestamps have
// no value and are dropped. A negative lag yields nil.
func Shift(s *models.Series, lag int) []models.Point {
	n := s.Len() - lag
	if lag < 0 || n <= 0 {
		return nil
	}

	shifted := make([]models.Point, n)
	for i := 0; i < n; i++ {
		shifted[i] = models.Point{
			Timestamp: s.At(i).Timestamp,
			Value:     s.At(i + lag).Value,
		}
	}
	return shifted
}

// Align inner-joins a with points on timestamp. points must be in ascending
// timestamp order. Rows where either value is missing are dropped.
func Align(a *models.Series, points []models.Point) []models.AlignedRow {
	var rows []models.AlignedRow
	i, j := 0, 0
	for i < a.Len() && j < len(points) {
		ta, tb := a.At(i).Timestamp, points[j].Timestamp
		switch {
		case ta.Before(tb):
			i++
		case tb.Before(ta):
			j++
		default:
			va, vb := a.At(i).Value, points[j].Value
			if !math.IsNaN(va) && !math.IsNaN(vb) {
				rows = append(rows, models.AlignedRow{Timestamp: ta, A: va, B: vb})
			}
			i++
			j++
		}
	}
	return rows
}

// Columns splits aligned rows into their two value columns.
func Columns(rows []models.AlignedRow) (xs, ys []float64) {
	xs = make([]float64, len(rows))
	ys = make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = r.A
		ys[i] = r.B
	}
	return xs, ys
}

// Pearson returns the Pearson correlation coefficient of xs and ys, which
// must have equal length. It returns NaN for empty input or when either
// column has zero variance.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return math.NaN()
	}
	// A constant column rarely averages exactly, so its float variance can
	// be a tiny positive residue. Check the values themselves.
	if constant(xs) || constant(ys) {
		return math.NaN()
	}

	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return math.NaN()
	}

	r := cov / (math.Sqrt(vx) * math.Sqrt(vy))
	// Rounding can push a perfect fit slightly past the bounds.
	return math.Max(-1, math.Min(1, r))
}

// SelectOptimal returns the lag with the highest defined coefficient,
// scanning lags in ascending order so the smallest lag wins ties.
func SelectOptimal(correlations models.CorrelationMap) (models.OptimalLag, error) {
	var best models.OptimalLag
	found := false
	for _, lag := range correlations.Lags() {
		r := correlations[lag]
		if !models.IsDefined(r) {
			continue
		}
		if !found || r > best.Coefficient {
			best = models.OptimalLag{Lag: lag, Coefficient: r}
			found = true
		}
	}
	if !found {
		return models.OptimalLag{}, fmt.Errorf("%w: %d lags evaluated, none defined", apperrors.ErrNoValidLag, len(correlations))
	}
	return best, nil
}

func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
