package fundamentals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func val(f float64) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f), Valid: true}
}

func TestMapLabelsAcrossLabelStylings(t *testing.T) {
	// camelCase API labels and title-case spreadsheet labels resolve the same
	camel := MapLabels(map[string]decimal.NullDecimal{
		"totalAssets": val(1000),
		"totalLiab":   val(600),
	})
	title := MapLabels(map[string]decimal.NullDecimal{
		"Total Assets": val(1000),
		"Total Liab":   val(600),
	})
	assert.Equal(t, camel, title)
	require.Contains(t, camel, TotalAssets)
	assert.True(t, camel[TotalLiabilities].Decimal.Equal(decimal.NewFromInt(600)))
}

func TestMapLabelsRenamedLiabilitiesLabel(t *testing.T) {
	out := MapLabels(map[string]decimal.NullDecimal{
		"Total Liabilities Net Minority Interest": val(600),
	})
	require.Contains(t, out, TotalLiabilities)
	assert.True(t, out[TotalLiabilities].Decimal.Equal(decimal.NewFromInt(600)))
}

func TestMapLabelsExactBeatsSubstring(t *testing.T) {
	// both labels contain STOCKHOLDEREQUITY; the exact one must win
	out := MapLabels(map[string]decimal.NullDecimal{
		"Total Stockholder Equity":    val(400),
		"Minority Stockholder Equity": val(1),
	})
	require.Contains(t, out, ShareholderEquity)
	assert.True(t, out[ShareholderEquity].Decimal.Equal(decimal.NewFromInt(400)))
}

func TestMapLabelsUnknownFieldsStayAbsent(t *testing.T) {
	out := MapLabels(map[string]decimal.NullDecimal{
		"Total Assets":   val(1000),
		"Goodwill":       val(50),
		"Treasury Stock": val(5),
	})
	require.Contains(t, out, TotalAssets)
	assert.NotContains(t, out, Inventory)
	assert.Len(t, out, 1)
}

func TestFiscalPeriod(t *testing.T) {
	cases := []struct {
		date    string
		quarter int
	}{
		{"2024-03-31", 1},
		{"2024-06-30", 2},
		{"2024-09-30", 3},
		{"2024-12-31", 4},
		{"2024-01-01", 1},
	}
	for _, tc := range cases {
		d, err := time.Parse("2006-01-02", tc.date)
		require.NoError(t, err)
		s := Statement{ReportDate: d}
		assert.Equal(t, 2024, s.FiscalYear(), tc.date)
		assert.Equal(t, tc.quarter, s.FiscalQuarter(), tc.date)
	}
}
