package collector

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"FXInsight/internal/model"
)

// SyntheticGenerator produces a placeholder random-walk history when no real
// source is reachable. Its output must always be labelled synthetic.
type SyntheticGenerator struct {
	Anchor    float64 // starting level and long-run centre
	Sigma     float64 // stddev of the daily Gaussian increment
	Reversion float64 // fraction of the distance to Anchor pulled back each day
	Seed      uint64  // 0 picks a time-based seed
}

// Generate returns one point per calendar day in [start, end], both inclusive.
func (g *SyntheticGenerator) Generate(start, end time.Time) []model.PricePoint {
	from, to := model.Day(start), model.Day(end)
	if to.Before(from) || g.Anchor <= 0 {
		return nil
	}
	days := int(to.Sub(from).Hours()/24) + 1

	noise := distuv.Normal{Mu: 0, Sigma: g.Sigma, Src: newRandSource(g.Seed)}
	floor := g.Anchor * 0.01

	points := make([]model.PricePoint, days)
	price := g.Anchor
	for i := range points {
		if i > 0 {
			price += g.Reversion*(g.Anchor-price) + noise.Rand()
			price = math.Max(price, floor)
		}
		points[i] = model.PricePoint{Date: from.AddDate(0, 0, i), Close: price}
	}
	return points
}

// flatSeries repeats price over the last days calendar days ending at end.
func flatSeries(price float64, end time.Time, days int) []model.PricePoint {
	to := model.Day(end)
	points := make([]model.PricePoint, days)
	for i := range points {
		points[i] = model.PricePoint{Date: to.AddDate(0, 0, i-days+1), Close: price}
	}
	return points
}

func newRandSource(seed uint64) rand.Source {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}
