// Package report emits the per-run reconciliation report operators review
// after each pipeline invocation.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Row is one reconciliation outcome: which entity, what happened, and any
// detail worth a human's attention.
type Row struct {
	Entity string
	Status string
	Detail string
}

// Writer writes timestamped CSV reports into a fixed directory.
type Writer struct {
	dir string
}

func New(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write saves the rows as <dir>/<name>_<timestamp>.csv and returns the path.
// An empty row set still produces a file so operators can tell "ran, nothing
// to do" apart from "never ran".
func (w *Writer) Write(name string, rows []Row) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	ts := time.Now().UTC().Format("20060102_150405")
	path := filepath.Join(w.dir, fmt.Sprintf("%s_%s.csv", name, ts))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"entity", "status", "detail"})
	for _, r := range rows {
		records = append(records, []string{r.Entity, r.Status, r.Detail})
	}
	if err := cw.WriteAll(records); err != nil {
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}
