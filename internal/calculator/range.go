package calculator

import (
	"errors"
	"math"
)

// TradingDays52w approximates one year of trading sessions.
const TradingDays52w = 252

// CalculateRange scans the most recent window closes and returns the high and low.
func CalculateRange(closes []float64, window int) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	n := len(closes)
	start := n - window
	if start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		high = math.Max(high, closes[i])
		low = math.Min(low, closes[i])
	}
	return high, low, nil
}

// CalculatePosition returns where current sits within [low, high] (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(math.Max(pos, 0), 1), nil
}
