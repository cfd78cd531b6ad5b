package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXInsight/internal/model"
)

const yahooPayload = `{"chart":{"result":[{"timestamp":[1704240000,1704326400,1704412800,1704672000],
"indicators":{"quote":[{"close":[1300.5,null,1310.25,1305.0]}]}}],"error":null}}`

func TestYahooFetcher_FetchDaily(t *testing.T) {
	var gotPath, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotInterval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(yahooPayload))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points, err := f.FetchDaily(context.Background(), model.Pair{Base: "USD", Quote: "KRW"}, start, start.AddDate(0, 0, 10))

	require.NoError(t, err)
	assert.Equal(t, "/v8/finance/chart/KRW=X", gotPath)
	assert.Equal(t, "1d", gotInterval)
	require.Len(t, points, 3, "null close is skipped")
	assert.Equal(t, 1300.5, points[0].Close)
	assert.Equal(t, 1305.0, points[2].Close)
}

func TestYahooFetcher_AppliesGMTOffset(t *testing.T) {
	// London midnight during BST is 23:00 UTC of the previous day.
	const payload = `{"chart":{"result":[{"meta":{"gmtoffset":3600},"timestamp":[1717369200,1717455600],
"indicators":{"quote":[{"close":[1375.1,1376.2]}]}}],"error":null}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := NewYahooFetcher(srv.URL, "").FetchDaily(context.Background(), model.Pair{Base: "USD", Quote: "KRW"}, start, start.AddDate(0, 0, 5))

	require.NoError(t, err)
	points = model.NormalizePoints(points)
	require.Len(t, points, 2)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), points[0].Date)
	assert.Equal(t, time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC), points[1].Date)
}

func TestYahooFetcher_Symbol(t *testing.T) {
	f := NewYahooFetcher("", "")
	assert.Equal(t, "KRW=X", f.yahooSymbol(model.Pair{Base: "USD", Quote: "KRW"}))
	assert.Equal(t, "EURUSD=X", f.yahooSymbol(model.Pair{Base: "EUR", Quote: "USD"}))
	f.SymbolMap["USD/CNH"] = "CNH=X"
	assert.Equal(t, "CNH=X", f.yahooSymbol(model.Pair{Base: "USD", Quote: "CNH"}))
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, "slow down"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		{"bad json", http.StatusOK, `{"chart":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewYahooFetcher(srv.URL, "").FetchDaily(context.Background(),
				model.Pair{Base: "USD", Quote: "KRW"}, time.Now().AddDate(0, 0, -5), time.Now())
			assert.Error(t, err)
		})
	}
}
