package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PierreNiberon/0DTE/internal/coverage"
	"github.com/PierreNiberon/0DTE/internal/output"
)

func coverageCmd() *cobra.Command {
	var thresholdDays int

	cmd := &cobra.Command{
		Use:   "coverage [DATASET_DIR]",
		Short: "Report missing trading days and monthly coverage",
		Long: `Scan the distinct trade dates in the dataset for contiguous gaps beyond
the threshold and report monthly coverage against the expected trading-day
baseline. Gaps fully explained by weekends and NYSE holidays are marked as
such.

Examples:
  zerodte coverage
  zerodte coverage --gap-threshold 6 ./dataset`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, _, err := loadDataset(datasetDir(args))
			if err != nil {
				return err
			}

			threshold := thresholdDays
			if threshold == 0 {
				threshold = cfg.Coverage.GapThresholdDays
			}

			analyzer := coverage.NewAnalyzer(cfg.Coverage.Timezone)
			dates := ds.Dates()

			gaps := analyzer.FindGaps(dates, threshold)
			fmt.Printf("Trading dates: %d  Gaps > %d days: %d\n\n", len(dates), threshold, len(gaps))

			if len(gaps) > 0 {
				gapTable := tablewriter.NewWriter(os.Stdout)
				gapTable.SetHeader([]string{"From", "To", "Days", "Missing Business Days", "Holiday Explained"})
				for _, g := range gaps {
					gapTable.Append([]string{
						g.Before.Format("2006-01-02"),
						g.After.Format("2006-01-02"),
						fmt.Sprintf("%d", g.Days),
						fmt.Sprintf("%d", g.MissingBusinessDays),
						fmt.Sprintf("%t", g.HolidayExplained()),
					})
				}
				gapTable.Render()
			}

			months := analyzer.MonthlyCoverage(dates, cfg.Coverage.ExpectedDaysPerMonth)

			writer := output.NewWriter(cfg.Output.Directory, cfg.Output.Compress, logger)
			if len(gaps) > 0 {
				path, err := writer.WriteCSV("coverage_gaps.csv", coverage.FlattenGaps(gaps))
				if err != nil {
					return err
				}
				logger.Info("gap table written", zap.String("path", path))
			}
			path, err := writer.WriteCSV("coverage_monthly.csv", months)
			if err != nil {
				return err
			}
			logger.Info("monthly coverage written", zap.String("path", path))

			monthTable := tablewriter.NewWriter(os.Stdout)
			monthTable.SetHeader([]string{"Month", "Observed", "Expected", "NYSE Business Days"})
			for _, m := range months {
				monthTable.Append([]string{
					m.Month,
					fmt.Sprintf("%d", m.Observed),
					fmt.Sprintf("%d", m.Expected),
					fmt.Sprintf("%d", m.CalendarExpected),
				})
			}
			monthTable.Render()

			return nil
		},
	}

	cmd.Flags().IntVar(&thresholdDays, "gap-threshold", 0, "gap threshold in calendar days (default from config)")

	return cmd
}
