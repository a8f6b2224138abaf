package lagcorr

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"liquidity-lag/internal/models"
)

// seriesFromValues places values on consecutive days starting offset days after epoch.
func seriesFromValues(name string, offset int, values []float64) *models.Series {
	points := make([]models.Point, len(values))
	for i, v := range values {
		points[i] = models.Point{Timestamp: epoch.AddDate(0, 0, offset+i), Value: v}
	}
	s, err := models.NewSeries(name, points)
	if err != nil {
		panic(err)
	}
	return s
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return gopter.NewProperties(parameters)
}

func valuesGen() gopter.Gen {
	return gen.SliceOf(gen.Float64Range(-1000.0, 1000.0))
}

// Property: every key lies in [1, L], a key is present exactly when the
// shift leaves overlapping rows, and every value is in [-1, 1] or NaN.
func TestProperty_CorrelationMapShape(t *testing.T) {
	properties := newProperties()

	properties.Property("keys are overlapping lags and values are bounded", prop.ForAll(
		func(av, bv []float64, offset, maxLag int) bool {
			a := seriesFromValues("A", 0, av)
			b := seriesFromValues("B", offset, bv)

			result, _ := Analyze(a, b, maxLag)
			if result == nil {
				return false
			}

			for lag, r := range result.Correlations {
				if lag < 1 || lag > maxLag {
					t.Logf("lag %d outside [1, %d]", lag, maxLag)
					return false
				}
				if !math.IsNaN(r) && (r < -1 || r > 1) {
					t.Logf("lag %d coefficient %v out of bounds", lag, r)
					return false
				}
			}

			for lag := 1; lag <= maxLag; lag++ {
				_, present := result.Correlations[lag]
				overlap := len(Align(a, Shift(b, lag))) > 0
				if present != overlap {
					t.Logf("lag %d present=%v overlap=%v", lag, present, overlap)
					return false
				}
			}
			return true
		},
		valuesGen(),
		valuesGen(),
		gen.IntRange(-5, 5),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

// Property: the optimal coefficient is the maximum defined value and no
// smaller lag reaches it.
func TestProperty_OptimalIsFirstMaximum(t *testing.T) {
	properties := newProperties()

	properties.Property("optimal lag is the smallest lag with the maximum coefficient", prop.ForAll(
		func(av, bv []float64, maxLag int) bool {
			result, err := Analyze(seriesFromValues("A", 0, av), seriesFromValues("B", 0, bv), maxLag)
			if err != nil {
				return result != nil && result.Correlations.Defined() == 0
			}

			best := math.Inf(-1)
			for _, r := range result.Correlations {
				if models.IsDefined(r) && r > best {
					best = r
				}
			}
			if result.Optimal.Coefficient != best {
				return false
			}
			for lag := 1; lag < result.Optimal.Lag; lag++ {
				if r, ok := result.Correlations[lag]; ok && r == best {
					return false
				}
			}
			return true
		},
		valuesGen(),
		valuesGen(),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

// Property: identical inputs produce identical maps and results.
func TestProperty_Idempotent(t *testing.T) {
	properties := newProperties()

	properties.Property("repeated analysis is identical", prop.ForAll(
		func(av, bv []float64, maxLag int) bool {
			a := seriesFromValues("A", 0, av)
			b := seriesFromValues("B", 0, bv)

			first, err1 := Analyze(a, b, maxLag)
			second, err2 := Analyze(a, b, maxLag)
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if first.Optimal != second.Optimal || len(first.Correlations) != len(second.Correlations) {
				return false
			}
			for lag, r := range first.Correlations {
				other, ok := second.Correlations[lag]
				if !ok {
					return false
				}
				if !(r == other || (math.IsNaN(r) && math.IsNaN(other))) {
					return false
				}
			}
			return true
		},
		valuesGen(),
		valuesGen(),
		gen.IntRange(1, 15),
	))

	properties.TestingRun(t)
}

// Property: a series that is a positive affine copy of another, delayed by
// k steps, is recovered at lag k with coefficient 1.
func TestProperty_RecoversDelayedCopy(t *testing.T) {
	properties := newProperties()

	properties.Property("delayed affine copy is found at its delay", prop.ForAll(
		func(av []float64, k int, scale, bias float64) bool {
			bv := make([]float64, len(av))
			for i := 0; i < k; i++ {
				bv[i] = float64(i)
			}
			for i := 0; i+k < len(av); i++ {
				bv[i+k] = scale*av[i] + bias
			}

			result, err := Analyze(seriesFromValues("A", 0, av), seriesFromValues("B", 0, bv), 10)
			if err != nil {
				t.Logf("unexpected error: %v", err)
				return false
			}
			if result.Optimal.Lag != k || math.Abs(result.Optimal.Coefficient-1) > 1e-9 {
				t.Logf("expected lag %d, got %+v", k, result.Optimal)
				return false
			}
			return true
		},
		gen.SliceOfN(60, gen.Float64Range(-1000.0, 1000.0)),
		gen.IntRange(1, 10),
		gen.Float64Range(0.1, 50.0),
		gen.Float64Range(-100.0, 100.0),
	))

	properties.TestingRun(t)
}
