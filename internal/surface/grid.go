package surface

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/PierreNiberon/0DTE/internal/dataset"
	"github.com/PierreNiberon/0DTE/internal/metrics"
)

// ErrNoQuotes means no quote matched the requested side.
var ErrNoQuotes = errors.New("no quotes for requested side")

// Metric names a DerivedQuote column a grid can be built over.
type Metric string

const (
	MetricLastPrice     Metric = "last_price"
	MetricImpliedVol    Metric = "implied_volatility"
	MetricLiquidityCost Metric = "effective_liquidity_cost"
	MetricTimeValue     Metric = "time_value"
	MetricMidPrice      Metric = "mid_price"
	MetricBidAskSpread  Metric = "bid_ask_spread"
)

// Metrics lists the valid metric names.
var Metrics = []Metric{
	MetricLastPrice, MetricImpliedVol, MetricLiquidityCost,
	MetricTimeValue, MetricMidPrice, MetricBidAskSpread,
}

// value extracts the metric from a quote. ok is false when the source never
// recorded the value (absent IV on illiquid strikes).
func (m Metric) value(q metrics.DerivedQuote) (float64, bool) {
	switch m {
	case MetricLastPrice:
		return q.LastPrice, true
	case MetricImpliedVol:
		if q.ImpliedVolatility == nil {
			return 0, false
		}
		return *q.ImpliedVolatility, true
	case MetricLiquidityCost:
		return q.EffectiveLiquidityCost, true
	case MetricTimeValue:
		return q.TimeValue, true
	case MetricMidPrice:
		return q.MidPrice, true
	case MetricBidAskSpread:
		return q.BidAskSpread, true
	default:
		return 0, false
	}
}

// Config parameterizes one surface build. Every surface variant is a
// configuration of the same builder; consumers never re-derive grids.
type Config struct {
	Side   dataset.Side
	Metric Metric
	Axis   Axis

	// AddUnderlying offsets each cell by the date's underlying close, so the
	// surface floats above the spot baseline by the metric amount.
	AddUnderlying bool

	// SampleEvery keeps every Nth date (<=1 keeps all).
	SampleEvery int
}

// Grid is a dense (date × axis value) surface. Missing cells hold NaN, never
// zero; Baseline carries the exact per-date underlying close.
type Grid struct {
	Side     dataset.Side
	Metric   Metric
	Axis     Axis
	Dates    []time.Time
	Cells    [][]float64 // Cells[dateIdx][axisIdx]
	Baseline []float64   // underlying close per date, copied exactly
}

// Missing is the sentinel stored in empty cells.
var missing = math.NaN()

// IsMissing reports whether a cell holds the missing sentinel.
func (g *Grid) IsMissing(dateIdx, axisIdx int) bool {
	return math.IsNaN(g.Cells[dateIdx][axisIdx])
}

// Build constructs the grid: for each (date, axis value) cell it snaps the
// nearest quote by the axis key and assigns the metric when the distance is
// strictly within the tolerance. Ties keep the first quote in input order.
func Build(quotes []metrics.DerivedQuote, cfg Config) (*Grid, error) {
	if len(cfg.Axis.Values) == 0 {
		return nil, errors.New("axis has no values")
	}
	if cfg.Axis.Tolerance <= 0 {
		return nil, errors.New("tolerance must be positive")
	}

	byDate := make(map[time.Time][]metrics.DerivedQuote)
	var dates []time.Time
	for _, q := range quotes {
		if q.Side != cfg.Side {
			continue
		}
		d := q.TradeDate.Time
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], q)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoQuotes, cfg.Side)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	dates = SampleDates(dates, cfg.SampleEvery)

	g := &Grid{
		Side:     cfg.Side,
		Metric:   cfg.Metric,
		Axis:     cfg.Axis,
		Dates:    dates,
		Cells:    make([][]float64, len(dates)),
		Baseline: make([]float64, len(dates)),
	}

	for i, d := range dates {
		dayQuotes := byDate[d]
		g.Baseline[i] = dayQuotes[0].UnderlyingClose

		row := make([]float64, len(cfg.Axis.Values))
		for j, target := range cfg.Axis.Values {
			row[j] = cellValue(dayQuotes, cfg, target, g.Baseline[i])
		}
		g.Cells[i] = row
	}

	return g, nil
}

func cellValue(dayQuotes []metrics.DerivedQuote, cfg Config, target, close float64) float64 {
	bestIdx := -1
	bestDist := math.Inf(1)
	for k, q := range dayQuotes {
		dist := math.Abs(cfg.Axis.keyOf(q) - target)
		if dist < bestDist {
			bestDist = dist
			bestIdx = k
		}
	}
	if bestIdx < 0 || bestDist >= cfg.Axis.Tolerance {
		return missing
	}

	v, ok := cfg.Metric.value(dayQuotes[bestIdx])
	if !ok {
		return missing
	}
	if cfg.AddUnderlying {
		v += close
	}
	return v
}

// SampleDates keeps every Nth date, as the surface renderers do when thinning
// long histories. every <= 1 keeps all dates.
func SampleDates(dates []time.Time, every int) []time.Time {
	if every <= 1 {
		return dates
	}
	var out []time.Time
	for i := 0; i < len(dates); i += every {
		out = append(out, dates[i])
	}
	return out
}

// Cell is one grid point in flat tabular form, for the output writers.
// Missing cells serialize with an empty value.
type Cell struct {
	Date            dataset.Date `csv:"trade_date"`
	AxisValue       float64      `csv:"axis_value"`
	Value           *float64     `csv:"value"`
	UnderlyingClose float64      `csv:"underlying_close"`
}

// Flatten expands the dense grid into one row per (date, axis value).
func (g *Grid) Flatten() []Cell {
	rows := make([]Cell, 0, len(g.Dates)*len(g.Axis.Values))
	for i, d := range g.Dates {
		for j, v := range g.Axis.Values {
			c := Cell{
				Date:            dataset.Date{Time: d},
				AxisValue:       v,
				UnderlyingClose: g.Baseline[i],
			}
			if !g.IsMissing(i, j) {
				val := g.Cells[i][j]
				c.Value = &val
			}
			rows = append(rows, c)
		}
	}
	return rows
}
