package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXInsight/internal/dashboard"
	"FXInsight/internal/fairvalue"
	"FXInsight/internal/model"
)

func newTestNotifier(url string) *TelegramNotifier {
	n := NewTelegramNotifier("token", "42", "", zerolog.Nop())
	n.BaseURL = url
	return n
}

func TestSend(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottoken/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	require.NoError(t, newTestNotifier(srv.URL).Send(context.Background(), "hello"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Equal(t, "hello", got["text"])
	assert.Equal(t, "HTML", got["parse_mode"])
}

func TestSendWithRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	require.NoError(t, n.sendWithRetry(context.Background(), "hi", 3, time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestSendWithRetry_Exhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestNotifier(srv.URL).sendWithRetry(context.Background(), "hi", 1, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 retries exhausted")
}

func TestPoll_DispatchesCommands(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottoken/getUpdates":
			assert.Equal(t, "7", r.URL.Query().Get("offset"))
			w.Write([]byte(`{"ok":true,"result":[
				{"update_id":7,"message":{"text":" /help "}},
				{"update_id":8}
			]}`))
		case "/bottoken/sendMessage":
			var p map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
			sent = append(sent, p["text"])
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := newTestNotifier(srv.URL)
	var commands []string
	next, err := n.poll(context.Background(), srv.Client(), 7, func(_ context.Context, cmd string) string {
		commands = append(commands, cmd)
		return "reply to " + cmd
	})
	require.NoError(t, err)
	assert.Equal(t, 9, next)
	assert.Equal(t, []string{"/help"}, commands)
	assert.Equal(t, []string{"reply to /help"}, sent)
}

func TestPoll_NotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer srv.Close()

	next, err := newTestNotifier(srv.URL).poll(context.Background(), srv.Client(), 3, func(context.Context, string) string { return "" })
	assert.Error(t, err)
	assert.Equal(t, 3, next)
}

func testView() *dashboard.View {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &dashboard.View{
		Market: &model.SourceResult{
			Series:      model.PriceSeries{Pair: model.Pair{Base: "USD", Quote: "KRW"}},
			LatestPrice: 1330,
			LatestDate:  day,
			SourceLabel: "synthetic",
			IsSynthetic: true,
		},
		Summary: model.SeriesSummary{LatestPrice: 1330, Change1d: -2.5, MA20: 1325, MA60: 1320, High52w: 1400, Low52w: 1250, Position52w: 0.53},
		Peers:   []model.PeerQuote{{Pair: model.Pair{Base: "USD", Quote: "JPY"}, Value: 150, IsFallback: true}},
		FairValue: fairvalue.Result{Version: "v1", Method: fairvalue.Method, FairValue: 1440.5, Contributions: []fairvalue.Contribution{
			{Factor: "us10y", Label: "US 10Y yield", Input: 4.4, Value: 14},
		}},
		Gap: 110.5,
		Forecast: model.ForecastPath{Policy: "linear", Points: []model.ForecastPoint{
			{Date: day, Price: 1330},
			{Date: day.AddDate(0, 0, 1), Price: 1440.5},
		}},
		Warning: "placeholder data",
	}
}

func TestFormatReport(t *testing.T) {
	msg := FormatReport(testView())
	assert.Contains(t, msg, "USD/KRW fair value report")
	assert.Contains(t, msg, "2024-03-01")
	assert.Contains(t, msg, "1440.50")
	assert.Contains(t, msg, "US 10Y yield = 4.4: +14.00")
	assert.Contains(t, msg, "Gap vs latest: +110.50")
	assert.Contains(t, msg, "Path (linear, 1d): 1440.50 by 2024-03-02")
	assert.Contains(t, msg, "USD/JPY 150*")
	assert.Contains(t, msg, "⚠️ placeholder data")
}

func TestFormatRefresh(t *testing.T) {
	res := &model.SourceResult{
		Series:      model.PriceSeries{Points: []model.PricePoint{{Close: 1330}}},
		LatestPrice: 1330,
		LatestDate:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		SourceLabel: "alphavantage",
		Attempts: []model.SourceAttempt{
			{Source: "yahoo", Err: errors.New("status <429>")},
			{Source: "alphavantage", Points: 250},
		},
	}
	msg := FormatRefresh(res)
	assert.Contains(t, msg, "❌ yahoo: status &lt;429&gt;")
	assert.Contains(t, msg, "✅ alphavantage: 250 points")
	assert.Contains(t, msg, "Using alphavantage: 1330.00 as of 2024-03-01")

	assert.Contains(t, FormatRefresh(&model.SourceResult{}), "No data available.")
}
