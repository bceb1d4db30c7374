package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"marketetl/config"
	"marketetl/internal/fetch"
	"marketetl/internal/series"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// Client fetches daily OHLCV history and company profiles from the Yahoo
// Finance REST API. All calls carry a per-request timeout via the underlying
// http.Client and go through the shared retry policy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     fetch.Policy
}

func NewClient(cfg config.YahooConfig, policy fetch.Policy) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		policy:     policy,
	}
}

func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// FetchRange fetches the raw daily series for every symbol in the batch and
// classifies each outcome. One symbol failing never fails the batch.
func (c *Client) FetchRange(ctx context.Context, symbols []string, start, end time.Time) map[string]fetch.SeriesResult {
	out := make(map[string]fetch.SeriesResult, len(symbols))
	for _, symbol := range symbols {
		var rows []series.RawBar
		err := fetch.Retry(ctx, c.policy, func() error {
			r, err := c.getChart(ctx, symbol, start, end)
			if err != nil {
				return err
			}
			rows = r
			return nil
		})
		out[symbol] = fetch.Classify(rows, err)
	}
	return out
}

func (c *Client) getChart(ctx context.Context, symbol string, start, end time.Time) ([]series.RawBar, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.Unix()))
	q.Set("interval", "1d")
	q.Set("events", "div,split")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

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
		return nil, nil // unknown symbol: no data, not an error
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fetch.MarkTransient(fmt.Errorf("yahoo http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("yahoo error: %s", body)
	}

	var raw chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if raw.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s: %s", raw.Chart.Error.Code, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 {
		return nil, nil
	}

	return parseChart(raw.Chart.Result[0]), nil
}

// parseChart flattens the positional arrays of one chart result into raw
// bars. Null entries stay absent; validation happens downstream.
func parseChart(res chartResult) []series.RawBar {
	if len(res.Indicators.Quote) == 0 {
		return nil
	}
	quote := res.Indicators.Quote[0]

	var adj []*float64
	if len(res.Indicators.AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}

	out := make([]series.RawBar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		out = append(out, series.RawBar{
			Date:     time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open:     nullDecimal(at(quote.Open, i)),
			High:     nullDecimal(at(quote.High, i)),
			Low:      nullDecimal(at(quote.Low, i)),
			Close:    nullDecimal(at(quote.Close, i)),
			AdjClose: nullDecimal(at(adj, i)),
			Volume:   nullInt(atInt(quote.Volume, i)),
		})
	}
	return out
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func atInt(xs []*int64, i int) *int64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func nullDecimal(p *float64) decimal.NullDecimal {
	if p == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(*p), Valid: true}
}

func nullInt(p *int64) null.Int {
	return null.IntFromPtr(p)
}
