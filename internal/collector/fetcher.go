package collector

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"FXInsight/internal/model"
)

// Fetcher fetches a daily close history for a currency pair from one source.
type Fetcher interface {
	FetchDaily(ctx context.Context, pair model.Pair, start, end time.Time) ([]model.PricePoint, error)
	Name() string
}

// newHTTPClient builds a client with the upstream timeout and optional proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
