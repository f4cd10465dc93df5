package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPFetcher issues GET requests and decodes JSON bodies.
type HTTPFetcher struct {
	client *http.Client
	base   *url.URL
}

// NewHTTPFetcher creates a fetcher. Relative locators are resolved against
// baseURL when it is non-empty. A nil client gets a 10s timeout default.
func NewHTTPFetcher(client *http.Client, baseURL string) (*HTTPFetcher, error) {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	f := &HTTPFetcher{client: client}
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		f.base = u
	}
	return f, nil
}

func (f *HTTPFetcher) resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() || f.base == nil {
		return u.String(), nil
	}
	return f.base.ResolveReference(u).String(), nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, locator string) (any, error) {
	target, err := f.resolve(locator)
	if err != nil {
		return nil, fmt.Errorf("invalid locator %q: %w", locator, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}

	var data any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", target, err)
	}
	return data, nil
}
