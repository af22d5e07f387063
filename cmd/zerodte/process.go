package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/PierreNiberon/0DTE/internal/output"
)

const combinedTableName = "spx_0dte_combined.csv"

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process [DATASET_DIR]",
		Short: "Ingest snapshot files into one normalized table",
		Long: `Ingest per-day, per-side snapshot CSV files, tag each row with its
trade date, option side and source file, and write the combined normalized
table.

The trade date comes from the 8-digit YYYYMMDD token in each file name and
the side from its calls/puts token. Sources that fail to parse are skipped
and logged; the run only fails when nothing loads at all.

Examples:
  # Ingest the configured dataset directory
  zerodte process

  # Ingest an explicit directory
  zerodte process ./dataset`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, report, err := loadDataset(datasetDir(args))
			if err != nil {
				return err
			}

			for _, s := range report.FailedSources() {
				logger.Warn("source skipped", zap.String("source", s.SourceID), zap.String("reason", s.Error))
			}

			writer := output.NewWriter(cfg.Output.Directory, cfg.Output.Compress, logger)
			path, err := writer.WriteCSV(combinedTableName, ds.Quotes)
			if err != nil {
				return err
			}

			dates := ds.Dates()
			logger.Info("normalized table written",
				zap.String("path", path),
				zap.Int("rows", ds.Len()),
				zap.Int("dates", len(dates)),
			)
			return nil
		},
	}

	return cmd
}
