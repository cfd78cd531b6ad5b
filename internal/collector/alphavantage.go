package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FXInsight/internal/model"
)

// DefaultAlphaVantageBaseURL is the public Alpha Vantage host.
const DefaultAlphaVantageBaseURL = "https://www.alphavantage.co"

// AlphaVantageFetcher implements Fetcher using the Alpha Vantage FX_DAILY endpoint.
type AlphaVantageFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageFetcher creates a new fetcher with optional proxy support.
func NewAlphaVantageFetcher(baseURL, apiKey, proxyURL string) *AlphaVantageFetcher {
	if baseURL == "" {
		baseURL = DefaultAlphaVantageBaseURL
	}
	return &AlphaVantageFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  newHTTPClient(proxyURL),
	}
}

func (f *AlphaVantageFetcher) Name() string { return "alphavantage" }

// avFXDaily is the FX_DAILY payload. Rows are keyed by date and carry
// numbered string fields ("1. open" ... "4. close").
type avFXDaily struct {
	Note         string                       `json:"Note"`
	Information  string                       `json:"Information"`
	ErrorMessage string                       `json:"Error Message"`
	Series       map[string]map[string]string `json:"Time Series FX (Daily)"`
}

const avCloseField = "4. close"

func (f *AlphaVantageFetcher) FetchDaily(ctx context.Context, pair model.Pair, start, end time.Time) ([]model.PricePoint, error) {
	if f.APIKey == "" {
		return nil, errors.New("alphavantage: api key not configured")
	}

	params := url.Values{
		"function":    {"FX_DAILY"},
		"from_symbol": {pair.Base},
		"to_symbol":   {pair.Quote},
		"outputsize":  {"full"},
		"apikey":      {f.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.BaseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alphavantage fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var data avFXDaily
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("alphavantage decode: %w", err)
	}
	switch {
	case data.ErrorMessage != "":
		return nil, fmt.Errorf("alphavantage api error: %s", data.ErrorMessage)
	case data.Note != "":
		return nil, fmt.Errorf("alphavantage rate limit: %s", data.Note)
	case data.Information != "":
		return nil, fmt.Errorf("alphavantage: %s", data.Information)
	case len(data.Series) == 0:
		return nil, fmt.Errorf("alphavantage: no series for %s", pair)
	}

	from, to := model.Day(start), model.Day(end)
	points := make([]model.PricePoint, 0, len(data.Series))
	for ds, row := range data.Series {
		d, err := time.Parse("2006-01-02", ds)
		if err != nil || d.Before(from) || d.After(to) {
			continue
		}
		c, err := strconv.ParseFloat(row[avCloseField], 64)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{Date: d, Close: c})
	}
	return points, nil
}
