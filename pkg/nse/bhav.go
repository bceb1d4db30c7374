package nse

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"marketetl/internal/fetch"
)

// FetchForDate downloads the exchange's end-of-day bhavcopy for one trade
// date and returns the base-symbol -> traded quantity mapping. Returns
// fetch.ErrNotAvailable when no bhavcopy exists for the date (holiday).
func (c *Client) FetchForDate(ctx context.Context, date time.Time) (map[string]int64, error) {
	url, inner := bhavURL(c.archivesURL, date)

	var body []byte
	err := fetch.Retry(ctx, c.policy, func() error {
		b, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseBhav(body, inner)
}

// bhavURL builds the archive path for a date, e.g.
// /content/historical/EQUITIES/2024/JAN/cm02JAN2024bhav.csv.zip
func bhavURL(base string, date time.Time) (url, innerCSV string) {
	mon := strings.ToUpper(date.Format("Jan"))
	dd := date.Format("02")
	yyyy := date.Format("2006")

	innerCSV = fmt.Sprintf("cm%s%s%sbhav.csv", dd, mon, yyyy)
	url = fmt.Sprintf("%s/content/historical/EQUITIES/%s/%s/%s.zip", base, yyyy, mon, innerCSV)
	return url, innerCSV
}

func parseBhav(zipBytes []byte, innerCSV string) (map[string]int64, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, fmt.Errorf("open bhav zip: %w", err)
	}

	target := findCSVEntry(zr, innerCSV)
	if target == nil {
		return nil, fmt.Errorf("no csv inside bhav zip")
	}

	f, err := target.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", target.Name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read bhav header: %w", err)
	}
	symIdx, ok := bhavSymbolColumn.Find(header)
	if !ok {
		return nil, fmt.Errorf("bhav csv: no %s column", bhavSymbolColumn.Canonical)
	}
	volIdx, ok := bhavVolumeColumn.Find(header)
	if !ok {
		return nil, fmt.Errorf("bhav csv: no %s column", bhavVolumeColumn.Canonical)
	}

	mapping := map[string]int64{}
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if symIdx >= len(row) || volIdx >= len(row) {
			continue
		}
		sym := strings.ToUpper(strings.TrimSpace(row[symIdx]))
		if sym == "" {
			continue
		}
		mapping[sym] = parseQuantity(row[volIdx])
	}
	return mapping, nil
}

func findCSVEntry(zr *zip.Reader, innerCSV string) *zip.File {
	for _, f := range zr.File {
		if strings.Contains(strings.ToLower(f.Name), strings.ToLower(innerCSV)) {
			return f
		}
	}
	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".csv") {
			return f
		}
	}
	return nil
}

// parseQuantity tolerates thousands separators and float-formatted
// quantities; garbage collapses to zero.
func parseQuantity(raw string) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
