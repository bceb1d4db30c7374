// Package snapshot archives raw and cleaned series per symbol so a run can
// be audited or replayed without refetching. The bronze tier holds data as
// delivered upstream, the silver tier holds the validated series.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"marketetl/internal/series"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
)

// FileStore writes one CSV file per symbol under <dir>/<tier>/prices/.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// WriteRaw archives a symbol's series exactly as the provider delivered it.
func (s *FileStore) WriteRaw(symbol string, rows []series.RawBar) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"date", "open", "high", "low", "close", "adj_close", "volume"})
	for _, r := range rows {
		records = append(records, []string{
			r.Date,
			nullDecimalString(r.Open),
			nullDecimalString(r.High),
			nullDecimalString(r.Low),
			nullDecimalString(r.Close),
			nullDecimalString(r.AdjClose),
			nullIntString(r.Volume),
		})
	}
	return s.write(symbol, TierBronze, records)
}

// WriteClean archives a symbol's validated series.
func (s *FileStore) WriteClean(symbol string, bars []series.Bar) error {
	records := make([][]string, 0, len(bars)+1)
	records = append(records, []string{"date", "open", "high", "low", "close", "adj_close", "volume"})
	for _, b := range bars {
		records = append(records, []string{
			b.Date.Format("2006-01-02"),
			nullDecimalString(b.Open),
			nullDecimalString(b.High),
			nullDecimalString(b.Low),
			nullDecimalString(b.Close),
			nullDecimalString(b.AdjClose),
			fmt.Sprintf("%d", b.Volume),
		})
	}
	return s.write(symbol, TierSilver, records)
}

func (s *FileStore) write(symbol string, tier Tier, records [][]string) error {
	dir := filepath.Join(s.dir, string(tier), "prices")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, symbol+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

func nullDecimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func nullIntString(v null.Int) string {
	if !v.Valid {
		return ""
	}
	return fmt.Sprintf("%d", v.Int64)
}
