package calculator

import (
	"github.com/rs/zerolog/log"

	"FXInsight/internal/model"
)

// Summarize computes the descriptive statistics shown next to the chart.
// Indicators that lack data fall back to the latest price.
func Summarize(series model.PriceSeries) model.SeriesSummary {
	closes := series.Closes()
	if len(closes) == 0 {
		return model.SeriesSummary{}
	}
	current := closes[len(closes)-1]
	sum := model.SeriesSummary{LatestPrice: current, MA20: current, MA60: current, High52w: current, Low52w: current, Position52w: 0.5}

	if len(closes) > 1 {
		sum.Change1d = current - closes[len(closes)-2]
	}
	if ma, err := CalculateSMA(closes, 20); err == nil {
		sum.MA20 = ma
	} else {
		log.Debug().Err(err).Msg("MA20 unavailable, using latest price")
	}
	if ma, err := CalculateSMA(closes, 60); err == nil {
		sum.MA60 = ma
	} else {
		log.Debug().Err(err).Msg("MA60 unavailable, using latest price")
	}
	if h, l, err := CalculateRange(closes, TradingDays52w); err == nil {
		sum.High52w, sum.Low52w = h, l
	}
	if pos, err := CalculatePosition(current, sum.High52w, sum.Low52w); err == nil {
		sum.Position52w = pos
	}
	return sum
}
