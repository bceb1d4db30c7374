package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"marketetl/internal/fundamentals"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1696032000 = 2023-09-30, 1688083200 = 2023-06-30
func balanceSheetJSON() string {
	return `{
		"quoteSummary": {
			"result": [{
				"balanceSheetHistoryQuarterly": {
					"balanceSheetStatements": [
						{
							"maxAge": 86400,
							"endDate": {"raw": 1696032000, "fmt": "2023-09-30"},
							"totalAssets": {"raw": 5000000000, "fmt": "5B"},
							"totalLiab": {"raw": 3000000000, "fmt": "3B"},
							"totalStockholderEquity": {"raw": 2000000000, "fmt": "2B"},
							"cash": {"raw": 250000000, "fmt": "250M"}
						},
						{
							"maxAge": 86400,
							"endDate": {"raw": 1688083200, "fmt": "2023-06-30"},
							"totalAssets": {"raw": 4800000000, "fmt": "4.8B"}
						}
					]
				}
			}],
			"error": null
		}
	}`
}

func TestFetchQuarterlyParsesStatements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v10/finance/quoteSummary/RELIANCE.NS", r.URL.Path)
		assert.Equal(t, "balanceSheetHistoryQuarterly", r.URL.Query().Get("modules"))
		fmt.Fprint(w, balanceSheetJSON())
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	stmts, err := c.FetchQuarterly(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	first := stmts[0]
	assert.Equal(t, "2023-09-30", first.ReportDate.Format("2006-01-02"))
	assert.Equal(t, 2023, first.FiscalYear())
	assert.Equal(t, 3, first.FiscalQuarter())
	assert.True(t, first.Values[fundamentals.TotalAssets].Decimal.Equal(decimal.NewFromInt(5000000000)))
	assert.True(t, first.Values[fundamentals.TotalLiabilities].Decimal.Equal(decimal.NewFromInt(3000000000)))
	assert.True(t, first.Values[fundamentals.ShareholderEquity].Decimal.Equal(decimal.NewFromInt(2000000000)))
	assert.True(t, first.Values[fundamentals.CashAndEquivalents].Decimal.Equal(decimal.NewFromInt(250000000)))
	// fields the provider did not report stay absent
	assert.NotContains(t, first.Values, fundamentals.Inventory)

	second := stmts[1]
	assert.Equal(t, 2, second.FiscalQuarter())
	assert.NotContains(t, second.Values, fundamentals.TotalLiabilities)
}

func TestFetchQuarterlyUnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	stmts, err := c.FetchQuarterly(context.Background(), "NOPE.NS")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestFetchQuarterlyServerErrorIsTransient(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, balanceSheetJSON())
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	stmts, err := c.FetchQuarterly(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, stmts, 2)
}
