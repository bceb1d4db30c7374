package nse

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"sync"
	"time"

	"marketetl/internal/fetch"
	"marketetl/internal/metadata"
	"marketetl/internal/universe"

	"github.com/guregu/null/v6"
)

const equityListPath = "/content/equities/EQUITY_L.csv"

// listingDateLayout is the format EQUITY_L.csv uses, e.g. "08-Nov-1995".
const listingDateLayout = "02-Jan-2006"

// EquityListing is one row of the exchange's official listed-securities file.
type EquityListing struct {
	Symbol      string
	Name        string
	ISIN        string
	ListingDate time.Time // zero when the file carries no parseable date
}

// FetchEquityList downloads and parses the full EQUITY_L.csv file.
func (c *Client) FetchEquityList(ctx context.Context) ([]EquityListing, error) {
	var body []byte
	err := fetch.Retry(ctx, c.policy, func() error {
		b, err := c.get(ctx, c.archivesURL+equityListPath)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseEquityList(body)
}

func parseEquityList(body []byte) ([]EquityListing, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read equity list header: %w", err)
	}

	symIdx, ok := equitySymbolColumn.Find(header)
	if !ok {
		return nil, fmt.Errorf("equity list: no %s column", equitySymbolColumn.Canonical)
	}
	nameIdx, hasName := equityNameColumn.Find(header)
	isinIdx, hasISIN := equityISINColumn.Find(header)
	dateIdx, hasDate := equityListingDateColumn.Find(header)

	var out []EquityListing
	for {
		row, err := r.Read()
		if err != nil {
			break
		}
		if symIdx >= len(row) {
			continue
		}
		l := EquityListing{Symbol: strings.ToUpper(strings.TrimSpace(row[symIdx]))}
		if l.Symbol == "" {
			continue
		}
		if hasName && nameIdx < len(row) {
			l.Name = strings.TrimSpace(row[nameIdx])
		}
		if hasISIN && isinIdx < len(row) {
			l.ISIN = strings.TrimSpace(row[isinIdx])
		}
		if hasDate && dateIdx < len(row) {
			if d, err := time.Parse(listingDateLayout, strings.TrimSpace(row[dateIdx])); err == nil {
				l.ListingDate = d.UTC()
			}
		}
		out = append(out, l)
	}
	return out, nil
}

// EquityListSource adapts the equity list to the metadata source interface.
// The bulk file is downloaded once and shared across FetchOne calls.
type EquityListSource struct {
	client *Client

	once   sync.Once
	byBase map[string]EquityListing
	err    error
}

func NewEquityListSource(client *Client) *EquityListSource {
	return &EquityListSource{client: client}
}

// FetchOne returns the partial record the equity list knows for a symbol:
// name, ISIN and listing date. Sector and industry are never present here.
func (s *EquityListSource) FetchOne(ctx context.Context, symbol string) (metadata.Record, error) {
	s.once.Do(func() {
		listings, err := s.client.FetchEquityList(ctx)
		if err != nil {
			s.err = err
			return
		}
		s.byBase = make(map[string]EquityListing, len(listings))
		for _, l := range listings {
			s.byBase[l.Symbol] = l
		}
	})

	rec := metadata.Record{Source: "nse_equity_list"}
	if s.err != nil {
		return rec, s.err
	}

	l, ok := s.byBase[universe.BaseSymbol(symbol)]
	if !ok {
		return rec, nil
	}
	if l.Name != "" {
		rec.Name = null.StringFrom(l.Name)
	}
	if l.ISIN != "" {
		rec.ISIN = null.StringFrom(l.ISIN)
	}
	if !l.ListingDate.IsZero() {
		rec.ListingDate = null.TimeFrom(l.ListingDate)
	}
	return rec, nil
}
