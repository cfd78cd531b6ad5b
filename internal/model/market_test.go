package model

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{"USD/KRW", Pair{"USD", "KRW"}, false},
		{"usdjpy", Pair{"USD", "JPY"}, false},
		{" eur-usd ", Pair{"EUR", "USD"}, false},
		{"USD/KR", Pair{}, true},
		{"KRW", Pair{}, true},
	}
	for _, tt := range tests {
		got, err := ParsePair(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.want.Base+"/"+tt.want.Quote, got.String())
	}
}

func TestNormalizePoints(t *testing.T) {
	d := func(day int, hour int) time.Time { return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC) }
	in := []PricePoint{
		{Date: d(4, 0), Close: 1330},
		{Date: d(1, 0), Close: 1320},
		{Date: d(2, 9), Close: math.NaN()},
		{Date: d(3, 1), Close: 1325},
		{Date: d(3, 15), Close: 1326},
		{Date: d(5, 0), Close: 0},
		{Date: d(6, 0), Close: math.Inf(1)},
	}

	out := NormalizePoints(in)

	require.Len(t, out, 3)
	assert.Equal(t, 1320.0, out[0].Close)
	assert.Equal(t, 1326.0, out[1].Close, "later duplicate of the same day wins")
	assert.Equal(t, d(3, 0), out[1].Date)
	assert.Equal(t, 1330.0, out[2].Close)
	for i := 1; i < len(out); i++ {
		assert.True(t, out[i].Date.After(out[i-1].Date))
	}
	assert.Equal(t, 1330.0, in[0].Close, "input untouched")
}

func TestSourceResultEmpty(t *testing.T) {
	var nilResult *SourceResult
	assert.True(t, nilResult.Empty())
	assert.True(t, (&SourceResult{SourceLabel: SourceUnavailable}).Empty())
	assert.False(t, (&SourceResult{Series: PriceSeries{Points: []PricePoint{{Close: 1}}}}).Empty())
}

func TestSourceAttempt(t *testing.T) {
	ok := SourceAttempt{Source: "yahoo", Points: 250}
	failed := SourceAttempt{Source: "alphavantage", Err: errors.New("rate limited")}

	_, isErr := any(ok).(error)
	assert.False(t, isErr, "an attempt is not itself an error value")

	assert.True(t, ok.OK())
	assert.Empty(t, ok.Message())
	assert.False(t, failed.OK())
	assert.Equal(t, "rate limited", failed.Message())

	b, err := json.Marshal(failed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"alphavantage","points":0,"error":"rate limited"}`, string(b))
	b, err = json.Marshal(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"yahoo","points":250}`, string(b))
}
