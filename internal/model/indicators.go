package model

// SeriesSummary holds descriptive statistics of the historical series.
type SeriesSummary struct {
	LatestPrice float64 `json:"latest_price"`
	Change1d    float64 `json:"change_1d"`
	MA20        float64 `json:"ma20"`
	MA60        float64 `json:"ma60"`
	High52w     float64 `json:"high_52w"`
	Low52w      float64 `json:"low_52w"`
	Position52w float64 `json:"position_52w"` // 0.0 ~ 1.0
}
