package lagcorr

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "liquidity-lag/internal/errors"
	"liquidity-lag/internal/models"
)

var epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// dailySeries builds a series with one point per day starting at epoch+offset days.
func dailySeries(t *testing.T, name string, offset int, values ...float64) *models.Series {
	t.Helper()
	points := make([]models.Point, len(values))
	for i, v := range values {
		points[i] = models.Point{Timestamp: epoch.AddDate(0, 0, offset+i), Value: v}
	}
	s, err := models.NewSeries(name, points)
	require.NoError(t, err)
	return s
}

func TestAnalyze_ConstantSeriesHasNoValidLag(t *testing.T) {
	a := dailySeries(t, "M2", 0, 10, 20, 30)
	b := dailySeries(t, "FLAT", 0, 5, 5, 5)

	result, err := Analyze(a, b, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNoValidLag)
	require.NotNil(t, result)

	// Lags 1 and 2 overlap and are undefined; lags 3..5 shift past the end.
	assert.Equal(t, []int{1, 2}, result.Correlations.Lags())
	for lag, r := range result.Correlations {
		assert.Truef(t, math.IsNaN(r), "lag %d should be undefined, got %v", lag, r)
	}
	assert.Equal(t, 0, result.Correlations.Defined())
}

func TestAnalyze_NonDyadicConstantSeriesHasNoValidLag(t *testing.T) {
	a := dailySeries(t, "M2", 0, 10, 20, 30, 45, 41, 60, 72, 80, 95, 99, 120, 130)
	flat := make([]float64, 12)
	for i := range flat {
		flat[i] = 0.1
	}
	b := dailySeries(t, "FLAT", 0, flat...)

	result, err := Analyze(a, b, 3)
	assert.ErrorIs(t, err, apperrors.ErrNoValidLag)
	require.NotNil(t, result)
	assert.Equal(t, models.OptimalLag{}, result.Optimal)

	assert.Equal(t, []int{1, 2, 3}, result.Correlations.Lags())
	for lag, r := range result.Correlations {
		assert.Truef(t, math.IsNaN(r), "lag %d should be undefined, got %v", lag, r)
	}
	assert.Equal(t, 0, result.Correlations.Defined())
}

func TestAnalyze_RecoversScaledShift(t *testing.T) {
	const shift = 3
	n := 40
	av := make([]float64, n)
	for i := range av {
		av[i] = float64((i*i)%17) + math.Sin(float64(i))
	}
	// b's value at t+3 is a scaled copy of a at t; the first few values are noise.
	bv := []float64{0.4, 7.1, 3.3}
	for i := 0; i+shift < n; i++ {
		bv = append(bv, 2*av[i]+5)
	}

	a := dailySeries(t, "M2", 0, av...)
	b := dailySeries(t, "ASSET", 0, bv...)

	result, err := Analyze(a, b, 10)
	require.NoError(t, err)
	assert.Equal(t, shift, result.Optimal.Lag)
	assert.InDelta(t, 1.0, result.Optimal.Coefficient, 1e-9)
	assert.Len(t, result.Correlations, 10)
}

func TestAnalyze_InvalidRange(t *testing.T) {
	a := dailySeries(t, "M2", 0, 1, 2, 3)
	b := dailySeries(t, "ASSET", 0, 3, 2, 1)

	for _, maxLag := range []int{0, -1, -50} {
		result, err := Analyze(a, b, maxLag)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRange)
	}
}

func TestAnalyze_TwoOverlappingPoints(t *testing.T) {
	a := dailySeries(t, "M2", 0, 1, 2, 3)
	b := dailySeries(t, "ASSET", 0, 99, 4, 8)

	result, err := Analyze(a, b, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Optimal.Lag)
	assert.InDelta(t, 1.0, result.Optimal.Coefficient, 1e-12)

	flat := dailySeries(t, "FLAT", 0, 99, 4, 4)
	result, err = Analyze(a, flat, 1)
	assert.ErrorIs(t, err, apperrors.ErrNoValidLag)
	require.NotNil(t, result)
	assert.True(t, math.IsNaN(result.Correlations[1]))
}

func TestAnalyze_DisjointTimestampsLeaveMapEmpty(t *testing.T) {
	// a on even days, b on odd days: no shift can produce an overlap.
	var ap, bp []models.Point
	for i := 0; i < 20; i++ {
		ap = append(ap, models.Point{Timestamp: epoch.AddDate(0, 0, 2*i), Value: float64(i)})
		bp = append(bp, models.Point{Timestamp: epoch.AddDate(0, 0, 2*i+1), Value: float64(i * i)})
	}
	a, err := models.NewSeries("M2", ap)
	require.NoError(t, err)
	b, err := models.NewSeries("ASSET", bp)
	require.NoError(t, err)

	result, err := Analyze(a, b, 6)
	assert.ErrorIs(t, err, apperrors.ErrNoValidLag)
	require.NotNil(t, result)
	assert.Empty(t, result.Correlations)
}

func TestAnalyze_MissingValuesAreDropped(t *testing.T) {
	nan := math.NaN()
	a := dailySeries(t, "M2", 0, 1, 2, nan, 4, 5, 6)
	b := dailySeries(t, "ASSET", 0, 0, 2, 4, 6, nan, 10)

	rows := Align(a, Shift(b, 1))
	// shifted b: d0=2 d1=4 d2=6 d3=NaN d4=10; a is NaN at d2.
	require.Len(t, rows, 3)
	assert.Equal(t, epoch, rows[0].Timestamp)
	assert.Equal(t, 1.0, rows[0].A)
	assert.Equal(t, 2.0, rows[0].B)
	assert.Equal(t, epoch.AddDate(0, 0, 4), rows[2].Timestamp)
	assert.Equal(t, 10.0, rows[2].B)
}

func TestShift(t *testing.T) {
	s := dailySeries(t, "S", 0, 1, 2, 3, 4)

	shifted := Shift(s, 2)
	require.Len(t, shifted, 2)
	assert.Equal(t, epoch, shifted[0].Timestamp)
	assert.Equal(t, 3.0, shifted[0].Value)
	assert.Equal(t, epoch.AddDate(0, 0, 1), shifted[1].Timestamp)
	assert.Equal(t, 4.0, shifted[1].Value)

	assert.Empty(t, Shift(s, 4))
	assert.Empty(t, Shift(s, 10))

	assert.Equal(t, s.Points(), Shift(s, 0))
	assert.Nil(t, Shift(s, -1))
}

func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
		want float64
	}{
		{"textbook", []float64{1, 2, 3, 4, 5}, []float64{2, 4, 5, 4, 5}, 0.7745966692414834},
		{"perfect positive", []float64{1, 2, 3}, []float64{10, 20, 30}, 1},
		{"perfect negative", []float64{1, 2, 3}, []float64{3, 2, 1}, -1},
		{"large magnitude", []float64{1e80, 2e80, 3e80}, []float64{2e80, 4e80, 6e80}, 1},
		{"large negative", []float64{1e100, 2e100, 3e100}, []float64{-3e50, -6e50, -9e50}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Pearson(tt.xs, tt.ys), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(Pearson(nil, nil)))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2}, []float64{1})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2, 3}, []float64{7, 7, 7})))
	assert.True(t, math.IsNaN(Pearson([]float64{42}, []float64{1})))
	assert.True(t, math.IsNaN(Pearson([]float64{1, 2, 3, 4, 5, 6}, []float64{5.3, 5.3, 5.3, 5.3, 5.3, 5.3})))
	assert.True(t, math.IsNaN(Pearson([]float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}, []float64{3, 1, 4, 1, 5, 9})))
}

func TestSelectOptimal(t *testing.T) {
	t.Run("first maximum wins", func(t *testing.T) {
		got, err := SelectOptimal(models.CorrelationMap{1: 0.5, 2: 0.9, 3: 0.9, 4: math.NaN()})
		require.NoError(t, err)
		assert.Equal(t, models.OptimalLag{Lag: 2, Coefficient: 0.9}, got)
	})

	t.Run("undefined entries are skipped", func(t *testing.T) {
		got, err := SelectOptimal(models.CorrelationMap{1: math.NaN(), 2: -0.3, 5: -0.7})
		require.NoError(t, err)
		assert.Equal(t, models.OptimalLag{Lag: 2, Coefficient: -0.3}, got)
	})

	t.Run("empty map", func(t *testing.T) {
		_, err := SelectOptimal(models.CorrelationMap{})
		assert.ErrorIs(t, err, apperrors.ErrNoValidLag)
	})
}

func TestMovingAverage(t *testing.T) {
	got, err := MovingAverage([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.True(t, math.IsNaN(got[0]))
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, got[1:])

	_, err = MovingAverage([]float64{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = MovingAverage([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
