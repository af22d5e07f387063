package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PierreNiberon/0DTE/internal/metrics"
	"github.com/PierreNiberon/0DTE/internal/output"
	"github.com/PierreNiberon/0DTE/internal/surface"
)

func surfaceCmd() *cobra.Command {
	var (
		sideFlag      string
		metricFlag    string
		axisFlag      string
		axisMin       float64
		axisMax       float64
		axisPoints    int
		tolerance     float64
		sampleEvery   int
		addUnderlying bool
	)

	cmd := &cobra.Command{
		Use:   "surface [DATASET_DIR]",
		Short: "Build a time × strike surface grid of a metric",
		Long: `Build a dense (trade date × axis value) grid of a chosen metric by
nearest-match snapping within a tolerance, and write it in flat tabular form
for downstream rendering.

Without --min/--max/--points the axis covers the distinct strikes observed
in the data. With them, the axis is an evenly spaced range, e.g. a moneyness
band or a dollar offset band around the spot price.

Examples:
  # Call price surface over observed strikes
  zerodte surface --side call --metric last_price

  # IV surface over a moneyness band
  zerodte surface --side call --metric implied_volatility \
    --axis moneyness --min -0.02 --max 0.02 --points 41

  # "SPX + premium" surface over dollar offsets from spot
  zerodte surface --side put --metric last_price \
    --axis moneyness_dollars --min -200 --max 200 --points 41 --add-underlying`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := parseSide(sideFlag)
			if err != nil {
				return err
			}
			metric, err := parseMetric(metricFlag)
			if err != nil {
				return err
			}
			kind, err := parseAxisKind(axisFlag)
			if err != nil {
				return err
			}

			ds, _, err := loadDataset(datasetDir(args))
			if err != nil {
				return err
			}
			res := metrics.DeriveAll(ds)
			logWarnings(&res.Warnings)

			axis, err := buildAxis(kind, res.Quotes, axisMin, axisMax, axisPoints, tolerance)
			if err != nil {
				return err
			}

			every := sampleEvery
			if every == 0 {
				every = cfg.Surface.SampleEvery
			}

			grid, err := surface.Build(res.Quotes, surface.Config{
				Side:          side,
				Metric:        metric,
				Axis:          axis,
				AddUnderlying: addUnderlying,
				SampleEvery:   every,
			})
			if err != nil {
				return err
			}

			writer := output.NewWriter(cfg.Output.Directory, cfg.Output.Compress, logger)
			name := fmt.Sprintf("surface_%s_%s_%s.csv", side, metric, kind)
			path, err := writer.WriteCSV(name, grid.Flatten())
			if err != nil {
				return err
			}

			logger.Info("surface grid written",
				zap.String("path", path),
				zap.Int("dates", len(grid.Dates)),
				zap.Int("axis_values", len(axis.Values)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&sideFlag, "side", "call", "option side (call, put)")
	cmd.Flags().StringVar(&metricFlag, "metric", "last_price", "metric column to grid")
	cmd.Flags().StringVar(&axisFlag, "axis", "strike", "axis kind (strike, moneyness, moneyness_dollars)")
	cmd.Flags().Float64Var(&axisMin, "min", 0, "axis range minimum (with --points)")
	cmd.Flags().Float64Var(&axisMax, "max", 0, "axis range maximum (with --points)")
	cmd.Flags().IntVar(&axisPoints, "points", 0, "number of evenly spaced axis values")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "snapping tolerance (default per axis kind)")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", 0, "use every Nth date (default from config)")
	cmd.Flags().BoolVar(&addUnderlying, "add-underlying", false, "offset cells by the date's underlying close")

	return cmd
}

// buildAxis assembles the axis from flags: an explicit linspace when --points
// is given, otherwise the distinct strikes observed in the data.
func buildAxis(kind surface.AxisKind, quotes []metrics.DerivedQuote, min, max float64, points int, tolerance float64) (surface.Axis, error) {
	if tolerance == 0 {
		switch kind {
		case surface.AxisMoneyness:
			tolerance = cfg.Surface.MoneynessTolerance
		default:
			tolerance = cfg.Surface.StrikeTolerance
		}
	}

	if points > 0 {
		if max <= min {
			return surface.Axis{}, fmt.Errorf("axis range invalid: max (%g) must exceed min (%g)", max, min)
		}
		return surface.Axis{Kind: kind, Values: surface.Linspace(min, max, points), Tolerance: tolerance}, nil
	}

	if kind != surface.AxisStrike {
		return surface.Axis{}, fmt.Errorf("axis kind %s needs an explicit range (--min/--max/--points)", kind)
	}
	strikes := surface.DistinctStrikes(quotes)
	if len(strikes) == 0 {
		return surface.Axis{}, fmt.Errorf("no strikes in dataset")
	}
	return surface.StrikeAxis(strikes, tolerance), nil
}
