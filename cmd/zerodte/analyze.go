package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PierreNiberon/0DTE/internal/metrics"
	"github.com/PierreNiberon/0DTE/internal/output"
)

const derivedTableName = "liquidity_costs_analysis.csv"

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [DATASET_DIR]",
		Short: "Derive per-quote metrics and liquidity-cost summaries",
		Long: `Derive moneyness, intrinsic/time value, bid-ask spread and the
liquidity-cost decomposition for every quote, write the derived table, and
print volume-weighted summaries by side and by moneyness category.

Examples:
  zerodte analyze
  zerodte analyze ./dataset`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := loadDataset(datasetDir(args))
			if err != nil {
				return err
			}

			res := metrics.DeriveAll(ds)
			logWarnings(&res.Warnings)

			writer := output.NewWriter(cfg.Output.Directory, cfg.Output.Compress, logger)
			path, err := writer.WriteCSV(derivedTableName, res.Quotes)
			if err != nil {
				return err
			}
			logger.Info("derived table written", zap.String("path", path), zap.Int("rows", len(res.Quotes)))

			daily := metrics.SummarizeByDate(res.Quotes)
			threshold, err := metrics.FlagHighVolumeDays(daily, cfg.Analysis.HighVolumeQuantile)
			if err != nil {
				return err
			}

			sides := metrics.SummarizeBySide(res.Quotes)
			cats := metrics.SummarizeByCategory(res.Quotes)

			for _, key := range metrics.UndefinedGroups(sides, cats) {
				logger.Warn("weighted average undefined for zero-volume group", zap.String("group", key))
			}

			summary := metrics.Summarize(res.Quotes)
			printSummary(summary, sides, cats, daily, threshold)

			logger.Info("analysis complete",
				zap.Int64("total_volume", summary.TotalVolume),
				zap.Float64("estimated_mm_profit", metrics.TotalMarketMakerProfit(res.Quotes)),
			)
			return nil
		},
	}

	return cmd
}

func logWarnings(w *metrics.Warnings) {
	for _, src := range w.ExcludedSources {
		logger.Warn("source excluded from derivation (missing columns)", zap.String("source", src))
	}
	if w.UnknownSideRows > 0 {
		logger.Warn("rows excluded from derivation (unknown side)", zap.Int("rows", w.UnknownSideRows))
	}
	if w.ITMDisagreementCount > 0 {
		logger.Warn("ingested inTheMoney flag disagrees with computed is_itm",
			zap.Int("count", w.ITMDisagreementCount),
		)
		for _, d := range w.ITMDisagreements {
			logger.Debug("itm flag disagreement",
				zap.String("key", d.Key),
				zap.String("source", d.SourceID),
				zap.Bool("ingested", d.Ingested),
				zap.Bool("computed", d.Computed),
			)
		}
	}
}

func printSummary(summary metrics.DatasetSummary, sides []metrics.SideSummary, cats []metrics.CategorySummary, daily []metrics.DailyStat, threshold float64) {
	fmt.Printf("Records: %d  Trading dates: %d\n", summary.Records, summary.TradingDates)
	fmt.Printf("SPX range: $%.2f - $%.2f (avg $%.2f)\n", summary.UnderlyingMin, summary.UnderlyingMax, summary.UnderlyingMean)
	fmt.Printf("VIX range: %.2f - %.2f (avg %.2f)\n", summary.VolIndexMin, summary.VolIndexMax, summary.VolIndexMean)
	fmt.Printf("Total volume: %d  Total open interest: %d\n\n", summary.TotalVolume, summary.TotalOpenInterest)

	sideTable := tablewriter.NewWriter(os.Stdout)
	sideTable.SetHeader([]string{"Side", "Quotes", "Volume", "VW Cost", "Mean", "Median", "Mean Spread", "Mean IV", "MM Profit"})
	for _, s := range sides {
		sideTable.Append([]string{
			string(s.Side),
			fmt.Sprintf("%d", s.Count),
			fmt.Sprintf("%d", s.TotalVolume),
			formatWeighted(s.WeightedCost),
			fmt.Sprintf("$%.4f", s.MeanCost),
			fmt.Sprintf("$%.4f", s.MedianCost),
			fmt.Sprintf("$%.4f", s.MeanSpread),
			fmt.Sprintf("%.4f", s.MeanIV),
			fmt.Sprintf("$%.0f", s.MMProfit),
		})
	}
	sideTable.Render()

	catTable := tablewriter.NewWriter(os.Stdout)
	catTable.SetHeader([]string{"Side", "Category", "Quotes", "Volume", "VW Cost", "ITM Discount", "Spread Cost"})
	for _, c := range cats {
		catTable.Append([]string{
			string(c.Side),
			string(c.Category),
			fmt.Sprintf("%d", c.Count),
			fmt.Sprintf("%d", c.TotalVolume),
			formatWeighted(c.WeightedCost),
			fmt.Sprintf("$%.4f", c.MeanITMDiscount),
			fmt.Sprintf("$%.4f", c.MeanSpreadCost),
		})
	}
	catTable.Render()

	fmt.Printf("\nHigh-volume days (> %.0f):\n", threshold)
	hvTable := tablewriter.NewWriter(os.Stdout)
	hvTable.SetHeader([]string{"Date", "Volume", "P/C Ratio", "SPX", "VIX"})
	for _, d := range daily {
		if !d.HighVolume {
			continue
		}
		hvTable.Append([]string{
			d.Date.Format("2006-01-02"),
			fmt.Sprintf("%d", d.TotalVolume),
			fmt.Sprintf("%.2f", d.PutCallRatio),
			fmt.Sprintf("$%.0f", d.UnderlyingClose),
			fmt.Sprintf("%.1f", d.VolIndexClose),
		})
	}
	hvTable.Render()
}

func formatWeighted(w metrics.WeightedAvg) string {
	if !w.Valid {
		return "n/a"
	}
	return fmt.Sprintf("$%.4f", w.Value)
}
