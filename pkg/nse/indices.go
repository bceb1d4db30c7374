package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"marketetl/internal/fetch"
	"marketetl/internal/universe"
)

type indexResponse struct {
	Data []struct {
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// FetchIndexConstituents returns the base symbols of an index, e.g.
// "NIFTY 500". Requires the session cookies from prime.
func (c *Client) FetchIndexConstituents(ctx context.Context, index string) ([]string, error) {
	var body []byte
	err := fetch.Retry(ctx, c.policy, func() error {
		if err := c.prime(ctx); err != nil {
			return err
		}
		b, err := c.get(ctx, fmt.Sprintf("%s/api/equity-stockIndices?index=%s", c.baseURL, url.QueryEscape(index)))
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	var raw indexResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode index response: %w", err)
	}
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("unexpected index response: no data")
	}

	var out []string
	for _, d := range raw.Data {
		// the index itself appears as the first data row
		if d.Symbol == "" || strings.EqualFold(d.Symbol, index) {
			continue
		}
		out = append(out, universe.BaseSymbol(d.Symbol))
	}
	return out, nil
}
