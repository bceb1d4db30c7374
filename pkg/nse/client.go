package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"marketetl/config"
	"marketetl/internal/fetch"
)

// NSE serves archive files without fuss but blocks cookieless clients on the
// API endpoints, so the client keeps a cookie jar and visits the homepage
// once before API calls.
type Client struct {
	baseURL     string
	archivesURL string
	httpClient  *http.Client
	policy      fetch.Policy

	primed bool
}

func NewClient(cfg config.NSEConfig, policy fetch.Policy) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL:     cfg.BaseURL,
		archivesURL: cfg.ArchivesURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout, Jar: jar},
		policy:      policy,
	}
}

func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Referer", c.baseURL)
}

// prime fetches the homepage once to collect the session cookies the API
// endpoints require.
func (c *Client) prime(ctx context.Context) error {
	if c.primed {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fetch.MarkTransient(err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	c.primed = true
	return nil
}

// get downloads one URL and classifies the failure modes: 404 means the file
// does not exist for that date (holiday), 429/5xx are retryable, anything
// else is a hard error.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetch.MarkTransient(fmt.Errorf("making request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, fetch.ErrNotAvailable
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, fetch.MarkTransient(fmt.Errorf("nse http %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nse error: %s", strings.TrimSpace(string(body)))
	}

	return io.ReadAll(resp.Body)
}
