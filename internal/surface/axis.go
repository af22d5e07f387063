package surface

import (
	"sort"

	"github.com/PierreNiberon/0DTE/internal/metrics"
)

// AxisKind selects what quote field a grid axis is keyed on.
type AxisKind string

const (
	// AxisStrike keys cells on the raw strike price (dollar tolerance).
	AxisStrike AxisKind = "strike"
	// AxisMoneyness keys cells on (strike − spot)/spot (absolute tolerance
	// in moneyness units; 0.005 is 0.5% of spot).
	AxisMoneyness AxisKind = "moneyness"
	// AxisMoneynessDollars keys cells on strike − spot (dollar tolerance).
	AxisMoneynessDollars AxisKind = "moneyness_dollars"
)

// Default snapping tolerances per axis kind.
const (
	DefaultStrikeTolerance    = 5.0
	DefaultMoneynessTolerance = 0.005
)

// Axis is the ordered list of values one grid dimension is built over, plus
// the tolerance a quote's key must fall within to land in a cell.
type Axis struct {
	Kind      AxisKind
	Values    []float64
	Tolerance float64
}

func (a Axis) keyOf(q metrics.DerivedQuote) float64 {
	switch a.Kind {
	case AxisMoneyness:
		return q.Moneyness
	case AxisMoneynessDollars:
		return q.Strike - q.UnderlyingClose
	default:
		return q.Strike
	}
}

// DefaultTolerance returns the snapping tolerance conventionally used for the
// axis kind.
func (k AxisKind) DefaultTolerance() float64 {
	if k == AxisMoneyness {
		return DefaultMoneynessTolerance
	}
	return DefaultStrikeTolerance
}

// Linspace returns n evenly spaced values spanning [min, max] inclusive.
func Linspace(min, max float64, n int) []float64 {
	if n <= 1 {
		return []float64{min}
	}
	step := (max - min) / float64(n-1)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = min + float64(i)*step
	}
	vals[n-1] = max
	return vals
}

// DistinctStrikes returns the sorted distinct strikes present in the quotes.
func DistinctStrikes(quotes []metrics.DerivedQuote) []float64 {
	seen := make(map[float64]bool)
	var strikes []float64
	for _, q := range quotes {
		if !seen[q.Strike] {
			seen[q.Strike] = true
			strikes = append(strikes, q.Strike)
		}
	}
	sort.Float64s(strikes)
	return strikes
}

// StrikeAxis builds a strike-keyed axis over explicit values.
func StrikeAxis(values []float64, tolerance float64) Axis {
	return Axis{Kind: AxisStrike, Values: values, Tolerance: tolerance}
}

// MoneynessAxis builds a moneyness-keyed axis over explicit values.
func MoneynessAxis(values []float64, tolerance float64) Axis {
	return Axis{Kind: AxisMoneyness, Values: values, Tolerance: tolerance}
}
