// Package fundamentals maps provider balance-sheet statements onto the
// stored field set. Providers have renamed statement labels across format
// revisions ("Total Liab" became "Total Liabilities Net Minority Interest"),
// so fields are resolved through a versioned label table instead of
// hard-coded keys.
package fundamentals

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical balance-sheet field names, matching the stored columns.
const (
	TotalAssets        = "total_assets"
	TotalLiabilities   = "total_liabilities"
	ShareholderEquity  = "shareholder_equity"
	CurrentAssets      = "current_assets"
	CurrentLiabilities = "current_liabilities"
	CashAndEquivalents = "cash_and_equivalents"
	Inventory          = "inventory"
	Receivables        = "receivables"
	LongTermDebt       = "long_term_debt"
	ShortTermDebt      = "short_term_debt"
	RetainedEarnings   = "retained_earnings"
)

// Statement is one reporting period's balance sheet, keyed by canonical
// field name. Fields absent upstream are simply missing from Values.
type Statement struct {
	ReportDate time.Time
	Values     map[string]decimal.NullDecimal
}

// FiscalYear derives the fiscal year from the report date.
func (s Statement) FiscalYear() int {
	return s.ReportDate.Year()
}

// FiscalQuarter derives the calendar quarter (1-4) from the report date.
func (s Statement) FiscalQuarter() int {
	return (int(s.ReportDate.Month())-1)/3 + 1
}

// LabelAlias maps a canonical field to the provider labels that have carried
// it over the years. Lookup is exact-match first, substring second, same
// discipline as the exchange CSV column aliases.
type LabelAlias struct {
	Canonical string
	Exact     []string
	Substring []string
}

// balanceSheetFields is the label table. Labels are compared after
// normalization (upper-cased, spaces and underscores stripped), so
// "Total Liab" and "totalLiab" resolve identically.
var balanceSheetFields = []LabelAlias{
	{Canonical: TotalAssets, Exact: []string{"TOTALASSETS"}},
	{Canonical: TotalLiabilities, Exact: []string{"TOTALLIAB", "TOTALLIABILITIESNETMINORITYINTEREST"}},
	{Canonical: ShareholderEquity, Exact: []string{"TOTALSTOCKHOLDEREQUITY", "SHAREHOLDEREQUITY", "TOTALEQUITY"}, Substring: []string{"STOCKHOLDEREQUITY"}},
	{Canonical: CurrentAssets, Exact: []string{"TOTALCURRENTASSETS"}},
	{Canonical: CurrentLiabilities, Exact: []string{"TOTALCURRENTLIABILITIES"}},
	{Canonical: CashAndEquivalents, Exact: []string{"CASH", "CASHANDCASHEQUIVALENTS"}},
	{Canonical: Inventory, Exact: []string{"INVENTORY"}},
	{Canonical: Receivables, Exact: []string{"NETRECEIVABLES", "RECEIVABLES"}},
	{Canonical: LongTermDebt, Exact: []string{"LONGTERMDEBT"}},
	{Canonical: ShortTermDebt, Exact: []string{"SHORTLONGTERMDEBT", "SHORTTERMDEBT"}},
	{Canonical: RetainedEarnings, Exact: []string{"RETAINEDEARNINGS"}},
}

// MapLabels resolves raw provider labels onto the canonical field set. For
// each canonical field the first exact label match wins, then the first
// substring match; fields with no matching label stay absent.
func MapLabels(labels map[string]decimal.NullDecimal) map[string]decimal.NullDecimal {
	norm := make(map[string]decimal.NullDecimal, len(labels))
	for label, v := range labels {
		norm[normalizeLabel(label)] = v
	}

	out := make(map[string]decimal.NullDecimal, len(balanceSheetFields))
	for _, alias := range balanceSheetFields {
		if v, ok := alias.find(norm); ok {
			out[alias.Canonical] = v
		}
	}
	return out
}

func (a LabelAlias) find(norm map[string]decimal.NullDecimal) (decimal.NullDecimal, bool) {
	for _, want := range a.Exact {
		if v, ok := norm[want]; ok {
			return v, true
		}
	}
	for _, want := range a.Substring {
		for label, v := range norm {
			if strings.Contains(label, want) {
				return v, true
			}
		}
	}
	return decimal.NullDecimal{}, false
}

func normalizeLabel(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "")
	return strings.ReplaceAll(s, "_", "")
}
