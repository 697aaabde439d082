package analytics

import (
	"math"

	"finance-insights/pkg/errors"

	"github.com/sourcegraph/conc/panics"
)

// guard runs fn, converting a panic into an analytics error so that one
// failing sub-computation cannot take down an aggregate result.
func guard[T any](name string, fn func() (T, error)) (T, error) {
	var (
		result T
		err    error
		pc     panics.Catcher
	)

	pc.Try(func() {
		result, err = fn()
	})

	if r := pc.Recovered(); r != nil {
		var zero T
		return zero, errors.AnalyticsError(errors.CodeComputationFailed, name, r.AsError())
	}
	return result, err
}

// guardScore is guard for a scalar score, additionally rejecting NaN and ±Inf
func guardScore(name string, fn func() float64) (float64, error) {
	v, err := guard(name, func() (float64, error) {
		return fn(), nil
	})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.AnalyticsError(errors.CodeNonFiniteResult, name, nil)
	}
	return v, nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
