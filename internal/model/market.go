package model

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Pair identifies a currency pair, e.g. USD/KRW (price of one USD in KRW).
type Pair struct {
	Base  string `json:"base" yaml:"base"`
	Quote string `json:"quote" yaml:"quote"`
}

func (p Pair) String() string { return p.Base + "/" + p.Quote }

// ParsePair accepts "USD/KRW", "USDKRW" or "usd-krw".
func ParsePair(s string) (Pair, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, sep := range []string{"/", "-", "_"} {
		if base, quote, ok := strings.Cut(s, sep); ok {
			if len(base) != 3 || len(quote) != 3 {
				return Pair{}, fmt.Errorf("invalid currency pair %q", s)
			}
			return Pair{Base: base, Quote: quote}, nil
		}
	}
	if len(s) == 6 {
		return Pair{Base: s[:3], Quote: s[3:]}, nil
	}
	return Pair{}, fmt.Errorf("invalid currency pair %q", s)
}

// PricePoint is a single daily close.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries holds a daily close history, oldest first.
type PriceSeries struct {
	Pair   Pair         `json:"pair"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }

// Last returns the most recent observation.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Closes extracts the closing prices in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// NormalizePoints sorts by date, truncates to calendar days, keeps the last
// value seen for a duplicated day and drops non-finite or non-positive closes.
// The input slice is not modified.
func NormalizePoints(points []PricePoint) []PricePoint {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Close) || math.IsInf(p.Close, 0) || p.Close <= 0 {
			continue
		}
		out = append(out, PricePoint{Date: Day(p.Date), Close: p.Close})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	deduped := out[:0]
	for _, p := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}
	return deduped
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
