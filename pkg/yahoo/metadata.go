package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"marketetl/internal/fetch"
	"marketetl/internal/metadata"

	"github.com/guregu/null/v6"
)

// FetchOne fetches a best-effort partial metadata record for one symbol from
// the quoteSummary endpoint. Any field may come back absent; the caller
// merges it with other sources.
func (c *Client) FetchOne(ctx context.Context, symbol string) (metadata.Record, error) {
	var rec metadata.Record
	err := fetch.Retry(ctx, c.policy, func() error {
		r, err := c.getQuoteSummary(ctx, symbol)
		if err != nil {
			return err
		}
		rec = r
		return nil
	})
	return rec, err
}

func (c *Client) getQuoteSummary(ctx context.Context, symbol string) (metadata.Record, error) {
	rec := metadata.Record{Source: "yahoo"}

	q := url.Values{}
	q.Set("modules", "assetProfile,quoteType")
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(symbol), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return rec, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rec, fetch.MarkTransient(fmt.Errorf("making request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return rec, nil // nothing known about this symbol
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return rec, fetch.MarkTransient(fmt.Errorf("yahoo http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return rec, fmt.Errorf("yahoo error: %s", body)
	}

	var raw quoteSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return rec, fmt.Errorf("decode response: %w", err)
	}
	if raw.QuoteSummary.Error != nil || len(raw.QuoteSummary.Result) == 0 {
		return rec, nil
	}

	r := raw.QuoteSummary.Result[0]
	name := r.QuoteType.LongName
	if name == "" {
		name = r.QuoteType.ShortName
	}
	rec.Name = nonBlank(name)
	rec.Sector = nonBlank(r.AssetProfile.Sector)
	rec.Industry = nonBlank(r.AssetProfile.Industry)
	return rec, nil
}

func nonBlank(s string) null.String {
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}
