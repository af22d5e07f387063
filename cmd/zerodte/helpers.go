package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/PierreNiberon/0DTE/internal/dataset"
	"github.com/PierreNiberon/0DTE/internal/surface"
)

// datasetDir resolves the dataset directory: positional argument wins over
// the configured default.
func datasetDir(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Dataset.Directory
}

// loadDataset runs ingestion and logs the per-source report.
func loadDataset(dir string) (*dataset.NormalizedDataset, *dataset.Report, error) {
	loader := dataset.NewLoader(dir, logger)
	ds, report, err := loader.Load()
	if err != nil {
		return nil, report, err
	}

	logger.Info("dataset loaded",
		zap.String("run_id", report.RunID),
		zap.String("dir", dir),
		zap.Int("sources", len(report.Sources)),
		zap.Int("failed_sources", len(report.FailedSources())),
		zap.Int("rows", ds.Len()),
		zap.Int("duplicate_keys", len(report.Duplicates)),
	)
	return ds, report, nil
}

// parseSide validates a --side flag value.
func parseSide(s string) (dataset.Side, error) {
	switch dataset.Side(s) {
	case dataset.SideCall, dataset.SidePut:
		return dataset.Side(s), nil
	default:
		return "", fmt.Errorf("invalid side %q (valid: call, put)", s)
	}
}

// parseMetric validates a --metric flag value.
func parseMetric(s string) (surface.Metric, error) {
	for _, m := range surface.Metrics {
		if surface.Metric(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid metric %q (valid: %v)", s, surface.Metrics)
}

// parseAxisKind validates an --axis flag value.
func parseAxisKind(s string) (surface.AxisKind, error) {
	switch surface.AxisKind(s) {
	case surface.AxisStrike, surface.AxisMoneyness, surface.AxisMoneynessDollars:
		return surface.AxisKind(s), nil
	default:
		return "", fmt.Errorf("invalid axis %q (valid: strike, moneyness, moneyness_dollars)", s)
	}
}
