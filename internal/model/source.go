package model

import (
	"encoding/json"
	"time"
)

// Source labels reported in SourceResult.SourceLabel beyond the fetcher names.
const (
	SourceSynthetic    = "synthetic"
	SourceFlatFallback = "flat-fallback"
	SourceUnavailable  = "unavailable"
)

// SourceAttempt is the typed outcome of one tier of the source priority chain.
type SourceAttempt struct {
	Source string `json:"source"`
	Points int    `json:"points"`
	Err    error  `json:"-"`
}

// OK reports whether the attempt satisfied the request.
func (a SourceAttempt) OK() bool { return a.Err == nil }

// Message returns the failure message, or "" for a successful attempt.
func (a SourceAttempt) Message() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}

// MarshalJSON flattens Err into its message.
func (a SourceAttempt) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source string `json:"source"`
		Points int    `json:"points"`
		Error  string `json:"error,omitempty"`
	}{a.Source, a.Points, a.Message()})
}

// SourceResult is the Provider output. It is built in one piece and never
// mutated after it is returned.
type SourceResult struct {
	Series      PriceSeries     `json:"series"`
	LatestPrice float64         `json:"latest_price"`
	LatestDate  time.Time       `json:"latest_date"`
	SourceLabel string          `json:"source_label"`
	IsSynthetic bool            `json:"is_synthetic"`
	Attempts    []SourceAttempt `json:"attempts"`
	FetchedAt   time.Time       `json:"fetched_at"`
}

// Empty reports the "no data available" result.
func (r *SourceResult) Empty() bool {
	return r == nil || len(r.Series.Points) == 0
}

// PeerQuote is the latest value of an auxiliary peer-currency pair.
type PeerQuote struct {
	Pair       Pair    `json:"pair"`
	Value      float64 `json:"value"`
	Source     string  `json:"source"`
	IsFallback bool    `json:"is_fallback"`
}
