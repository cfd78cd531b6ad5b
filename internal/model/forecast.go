package model

import "time"

// ForecastPoint is one day of a projected path.
type ForecastPoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// ForecastPath is a visualization-only trajectory. Points[0] is the latest
// real observation; the path has horizon+1 points.
type ForecastPath struct {
	Policy string          `json:"policy"`
	Points []ForecastPoint `json:"points"`
}

// Final returns the last projected price.
func (f ForecastPath) Final() float64 {
	if len(f.Points) == 0 {
		return 0
	}
	return f.Points[len(f.Points)-1].Price
}
