package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// RequiredColumns are the source columns metric derivation depends on.
// A source missing any of them still lands in the normalized table but its
// rows are flagged and excluded from derived metrics.
var RequiredColumns = []string{
	"strike", "bid", "ask", "lastPrice",
	"volume", "openInterest", "impliedVolatility", "inTheMoney",
	"spx_close", "vix_close", "lastTradeDate",
}

// SourceStatus records the per-source outcome of an ingestion run.
type SourceStatus struct {
	SourceID       string
	TradeDate      Date
	Side           Side
	Rows           int
	MissingColumns []string
	Error          string
}

func (s SourceStatus) Failed() bool {
	return s.Error != ""
}

// Report is the structured ingestion log returned alongside the dataset, so
// callers decide how to surface diagnostics.
type Report struct {
	RunID      string
	Sources    []SourceStatus
	Duplicates []DuplicateKey
}

func (r *Report) FailedSources() []SourceStatus {
	var failed []SourceStatus
	for _, s := range r.Sources {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	return failed
}

// Loader ingests a directory of per-day, per-side snapshot files into one
// NormalizedDataset.
type Loader struct {
	dir    string
	logger *zap.Logger
}

func NewLoader(dir string, logger *zap.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Load discovers *.csv and *.csv.zst sources under the dataset directory,
// tags each row with trade date, side and source id, and concatenates
// everything preserving row order within each source and lexicographic
// source order overall. Per-source failures are skipped and recorded;
// ErrEmptyDataset is returned only when nothing loads at all.
func (l *Loader) Load() (*NormalizedDataset, *Report, error) {
	names, err := l.discover()
	if err != nil {
		return nil, nil, err
	}

	report := &Report{RunID: uuid.NewString()}
	ds := &NormalizedDataset{Incomplete: make(map[string][]string)}

	loaded := 0
	for _, name := range names {
		status := l.loadSource(name, ds)
		report.Sources = append(report.Sources, status)

		if status.Failed() {
			l.logger.Warn("skipping source",
				zap.String("source", status.SourceID),
				zap.String("reason", status.Error),
			)
			continue
		}

		loaded++
		l.logger.Info("loaded source",
			zap.String("source", status.SourceID),
			zap.String("date", status.TradeDate.String()),
			zap.String("side", string(status.Side)),
			zap.Int("rows", status.Rows),
		)
	}

	if loaded == 0 {
		return nil, report, fmt.Errorf("%s: %w", l.dir, ErrEmptyDataset)
	}

	report.Duplicates = ds.Duplicates()
	for _, d := range report.Duplicates {
		l.logger.Warn("duplicate quote key retained",
			zap.String("key", d.Key),
			zap.Int("count", d.Count),
			zap.Strings("sources", d.Sources),
		)
	}

	return ds, report, nil
}

func (l *Loader) discover() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dataset directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (l *Loader) loadSource(name string, ds *NormalizedDataset) SourceStatus {
	status := SourceStatus{SourceID: name}

	tradeDate, err := ExtractTradeDate(name)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.TradeDate = tradeDate
	status.Side = ExtractSide(name)

	raw, err := l.readSource(name)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	header, err := csv.NewReader(bytes.NewReader(raw)).Read()
	if err != nil {
		status.Error = fmt.Sprintf("reading header: %v", err)
		return status
	}
	status.MissingColumns = missingColumns(header)

	var rows []OptionQuote
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		status.Error = fmt.Sprintf("parsing rows: %v", err)
		return status
	}

	for i := range rows {
		rows[i].TradeDate = tradeDate
		rows[i].Side = status.Side
		rows[i].SourceID = name
	}
	ds.Quotes = append(ds.Quotes, rows...)
	status.Rows = len(rows)

	if len(status.MissingColumns) > 0 {
		ds.Incomplete[name] = status.MissingColumns
		l.logger.Warn("source missing required columns",
			zap.String("source", name),
			zap.Strings("columns", status.MissingColumns),
		)
	}

	return status
}

func (l *Loader) readSource(name string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		defer dec.Close()

		raw, err = dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing source: %w", err)
		}
	}

	return raw, nil
}

func missingColumns(header []string) []string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[strings.TrimSpace(h)] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}
