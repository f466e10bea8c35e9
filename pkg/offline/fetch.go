package offline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// MaxAssetSize bounds the body read for a single asset.
const MaxAssetSize = 64 << 20

// Fetcher retrieves assets from the network.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (*Response, error) {
	return f(ctx, url)
}

// HTTPFetcher fetches assets over HTTP. Relative URLs such as "/app.js"
// are resolved against Origin; absolute URLs are fetched as given.
type HTTPFetcher struct {
	Client *http.Client
	Origin *url.URL
}

// NewHTTPFetcher creates an HTTPFetcher for origin. An unparsable origin
// leaves relative URLs unresolved, which makes them fail at fetch time.
func NewHTTPFetcher(origin string) *HTTPFetcher {
	u, _ := url.Parse(origin)
	return &HTTPFetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
		Origin: u,
	}
}

// Resolve returns the absolute form of raw.
func (f *HTTPFetcher) Resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.Origin == nil || !f.Origin.IsAbs() {
		return "", fmt.Errorf("offline: relative url %q without origin", raw)
	}
	return f.Origin.ResolveReference(u).String(), nil
}

// Fetch performs a GET for raw. Non-2xx statuses are errors, matching
// cache.addAll in the browser. The returned Response keeps raw as its URL
// so cache keys match the asset list.
func (f *HTTPFetcher) Fetch(ctx context.Context, raw string) (*Response, error) {
	target, err := f.Resolve(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if !statusOK(res.StatusCode) {
		return nil, fmt.Errorf("offline: GET %s: %s", target, res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > MaxAssetSize {
		return nil, fmt.Errorf("offline: GET %s: body exceeds %d bytes", target, MaxAssetSize)
	}

	return &Response{
		URL:         raw,
		Status:      res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}
