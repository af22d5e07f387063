// Package output persists pipeline tables as flat CSV files. The core stages
// never write anything themselves; callers hand their stage outputs here.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// Writer writes tables into a directory. Files land atomically: content goes
// to a temp file first and is renamed into place, so a crashed run never
// leaves a half-written table behind.
type Writer struct {
	dir      string
	compress bool
	logger   *zap.Logger
}

// NewWriter creates a writer rooted at dir. With compress set, tables are
// zstd-compressed and named *.csv.zst.
func NewWriter(dir string, compress bool, logger *zap.Logger) *Writer {
	return &Writer{dir: dir, compress: compress, logger: logger}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteCSV marshals rows (a slice of csv-tagged structs) to name under the
// output directory and returns the final path.
func (w *Writer) WriteCSV(name string, rows interface{}) (string, error) {
	if err := os.MkdirAll(w.dir, 0750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	content, err := gocsv.MarshalString(rows)
	if err != nil {
		return "", fmt.Errorf("marshaling %s: %w", name, err)
	}
	data := []byte(content)

	path := filepath.Join(w.dir, name)
	if w.compress {
		path += ".zst"
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return "", fmt.Errorf("creating zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("closing zstd encoder: %w", err)
		}
	}

	if err := w.writeAtomic(path, data); err != nil {
		return "", err
	}

	w.logger.Info("wrote table",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return path, nil
}

func (w *Writer) writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0640); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
