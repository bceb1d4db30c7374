package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"marketetl/internal/fetch"
	"marketetl/internal/fundamentals"

	"github.com/shopspring/decimal"
)

// FetchQuarterly fetches the quarterly balance-sheet history for one symbol.
// Statements come back newest first as the provider delivers them; fields the
// provider does not report for the company stay absent.
func (c *Client) FetchQuarterly(ctx context.Context, symbol string) ([]fundamentals.Statement, error) {
	var stmts []fundamentals.Statement
	err := fetch.Retry(ctx, c.policy, func() error {
		s, err := c.getBalanceSheets(ctx, symbol)
		if err != nil {
			return err
		}
		stmts = s
		return nil
	})
	return stmts, err
}

// balanceSheetResponse is the envelope of the balanceSheetHistoryQuarterly
// quoteSummary module. Each statement is a flat label -> value object; labels
// vary across provider format revisions, so they are decoded raw and resolved
// through the fundamentals label table.
type balanceSheetResponse struct {
	QuoteSummary struct {
		Result []struct {
			BalanceSheetHistoryQuarterly struct {
				BalanceSheetStatements []map[string]json.RawMessage `json:"balanceSheetStatements"`
			} `json:"balanceSheetHistoryQuarterly"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

type fundamentalValue struct {
	Raw *float64 `json:"raw"`
}

func (c *Client) getBalanceSheets(ctx context.Context, symbol string) ([]fundamentals.Statement, error) {
	q := url.Values{}
	q.Set("modules", "balanceSheetHistoryQuarterly")
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetch.MarkTransient(fmt.Errorf("making request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil // nothing known about this symbol
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fetch.MarkTransient(fmt.Errorf("yahoo http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yahoo error: %s", body)
	}

	var raw balanceSheetResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if raw.QuoteSummary.Error != nil || len(raw.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	var out []fundamentals.Statement
	for _, stmt := range raw.QuoteSummary.Result[0].BalanceSheetHistoryQuarterly.BalanceSheetStatements {
		s, ok := parseStatement(stmt)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// parseStatement flattens one raw statement: endDate carries the reporting
// date as an epoch, every other {raw} field is a candidate balance-sheet
// label. Non-numeric fields (maxAge and friends) are skipped.
func parseStatement(stmt map[string]json.RawMessage) (fundamentals.Statement, bool) {
	labels := make(map[string]decimal.NullDecimal, len(stmt))
	var reportDate time.Time

	for label, msg := range stmt {
		var v fundamentalValue
		if err := json.Unmarshal(msg, &v); err != nil || v.Raw == nil {
			continue
		}
		if label == "endDate" {
			reportDate = time.Unix(int64(*v.Raw), 0).UTC().Truncate(24 * time.Hour)
			continue
		}
		labels[label] = decimal.NullDecimal{Decimal: decimal.NewFromFloat(*v.Raw), Valid: true}
	}

	if reportDate.IsZero() {
		return fundamentals.Statement{}, false
	}
	return fundamentals.Statement{
		ReportDate: reportDate,
		Values:     fundamentals.MapLabels(labels),
	}, true
}
