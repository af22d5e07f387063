package metrics

import (
	"errors"
	"sort"
)

var ErrNoValues = errors.New("quantile of empty series")

// Quantile returns the q-th quantile (q in [0,1]) of values using linear
// interpolation between closest ranks: pos = q*(n-1), interpolating between
// the values at floor(pos) and ceil(pos). This matches the convention the
// daily-volume threshold is defined in and is exactly reproducible for a
// given series.
func Quantile(values []float64, q float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoValues
	}
	if q < 0 || q > 1 {
		return 0, errors.New("quantile fraction out of [0,1]")
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo == len(sorted)-1 {
		return sorted[lo], nil
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}
