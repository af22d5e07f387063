package output

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

type row struct {
	Name  string  `csv:"name"`
	Value float64 `csv:"value"`
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false, zap.NewNop())

	path, err := w.WriteCSV("table.csv", []row{{"a", 1.5}, {"b", 2.0}})
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(dir, "table.csv") {
		t.Errorf("unexpected path %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "name,value\n") {
		t.Errorf("missing header: %q", content)
	}
	if !strings.Contains(content, "a,1.5") || !strings.Contains(content, "b,2") {
		t.Errorf("missing rows: %q", content)
	}
}

func TestWriteCSVCompressed(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, true, zap.NewNop())

	path, err := w.WriteCSV("table.csv", []row{{"a", 1.5}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "table.csv.zst") {
		t.Errorf("expected .csv.zst suffix, got %s", path)
	}

	compressed, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "name,value\n") {
		t.Errorf("round trip lost the header: %q", string(data))
	}
}

func TestWriteCSVLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false, zap.NewNop())

	if _, err := w.WriteCSV("table.csv", []row{{"a", 1.5}}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}
}

func TestWriteCSVCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := NewWriter(dir, false, zap.NewNop())

	if _, err := w.WriteCSV("table.csv", []row{{"a", 1.5}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "table.csv")); err != nil {
		t.Errorf("expected table in created directory: %v", err)
	}
}
