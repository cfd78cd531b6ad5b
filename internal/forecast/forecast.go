package forecast

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"FXInsight/internal/model"
)

// Policy selects how the path approaches the target.
type Policy string

const (
	Linear Policy = "linear" // straight line, exact target on the last day
	Damped Policy = "damped" // gap-proportional drift plus noise, optional soft ceiling
	Phased Policy = "phased" // consolidation, then a trend that lands on the target
	Capped Policy = "capped" // bounded daily move, half the gap once inside the cap
)

// Policies lists the supported policies.
var Policies = []Policy{Linear, Damped, Phased, Capped}

// MaxHorizon is the longest path Generate accepts, in calendar days.
const MaxHorizon = 365

var (
	ErrInvalidHorizon = errors.New("forecast horizon must be between 1 and 365 days")
	ErrMissingPrice   = errors.New("latest price is missing")
	ErrInvalidTarget  = errors.New("target price must be finite")
	ErrUnknownPolicy  = errors.New("unknown forecast policy")
)

// ParsePolicy accepts a policy name; "" selects Linear.
func ParsePolicy(s string) (Policy, error) {
	if s == "" {
		return Linear, nil
	}
	for _, p := range Policies {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Request describes one path to synthesize.
type Request struct {
	LatestPrice float64
	LatestDate  time.Time
	Target      float64
	Horizon     int
	Policy      Policy
}

// Generate returns Horizon+1 points starting at (LatestDate, LatestPrice),
// one per calendar day. The result is for charting only.
func Generate(req Request, opts ...Option) (model.ForecastPath, error) {
	if req.Horizon <= 0 || req.Horizon > MaxHorizon {
		return model.ForecastPath{}, fmt.Errorf("%w: %d", ErrInvalidHorizon, req.Horizon)
	}
	if math.IsNaN(req.LatestPrice) || math.IsInf(req.LatestPrice, 0) || req.LatestPrice <= 0 {
		return model.ForecastPath{}, ErrMissingPrice
	}
	if req.LatestDate.IsZero() {
		return model.ForecastPath{}, fmt.Errorf("%w: latest date is zero", ErrMissingPrice)
	}
	if math.IsNaN(req.Target) || math.IsInf(req.Target, 0) {
		return model.ForecastPath{}, ErrInvalidTarget
	}
	policy, err := ParsePolicy(string(req.Policy))
	if err != nil {
		return model.ForecastPath{}, err
	}

	s := defaults()
	for _, opt := range opts {
		opt(s)
	}

	var prices []float64
	switch policy {
	case Linear:
		prices = linear(req)
	case Damped:
		prices = damped(req, s)
	case Phased:
		prices = phased(req, s)
	case Capped:
		prices = capped(req, s)
	}

	path := model.ForecastPath{Policy: string(policy), Points: make([]model.ForecastPoint, len(prices))}
	for t, p := range prices {
		path.Points[t] = model.ForecastPoint{Date: req.LatestDate.AddDate(0, 0, t), Price: p}
	}
	return path, nil
}

func linear(req Request) []float64 {
	n := req.Horizon
	gap := req.Target - req.LatestPrice
	prices := make([]float64, n+1)
	for t := 0; t < n; t++ {
		prices[t] = req.LatestPrice + gap*float64(t)/float64(n)
	}
	prices[n] = req.Target
	return prices
}

func damped(req Request, s *settings) []float64 {
	noise := normal(s)
	prices := make([]float64, req.Horizon+1)
	prices[0] = req.LatestPrice
	p := req.LatestPrice
	for t := 1; t <= req.Horizon; t++ {
		p += (req.Target-p)*s.driftRate + noise.Rand()
		if s.ceiling > 0 && p > s.ceiling {
			p = s.ceiling + (p-s.ceiling)*s.ceilingRetain
		}
		prices[t] = p
	}
	return prices
}

// Consolidation moves use a fraction of the configured drift and noise.
const (
	consolidationDrift = 0.2
	consolidationNoise = 0.3
)

func phased(req Request, s *settings) []float64 {
	n := req.Horizon
	c := s.consolidationDays
	if c < 0 {
		c = n / 3
	}
	if c > n-1 {
		c = n - 1
	}

	noise := normal(s)
	prices := make([]float64, n+1)
	prices[0] = req.LatestPrice
	p := req.LatestPrice
	for t := 1; t <= c; t++ {
		p += (req.Target-p)*s.driftRate*consolidationDrift + noise.Rand()*consolidationNoise
		prices[t] = p
	}
	for t := c + 1; t <= n; t++ {
		left := float64(n - t + 1)
		// Noise fades to zero so the final step lands exactly on target.
		p += (req.Target-p)/left + noise.Rand()*(left-1)/left
		prices[t] = p
	}
	prices[n] = req.Target
	return prices
}

func capped(req Request, s *settings) []float64 {
	prices := make([]float64, req.Horizon+1)
	prices[0] = req.LatestPrice
	p := req.LatestPrice
	for t := 1; t <= req.Horizon; t++ {
		gap := req.Target - p
		if math.Abs(gap) > s.maxDailyMove {
			p += math.Copysign(s.maxDailyMove, gap)
		} else {
			p += gap / 2
		}
		prices[t] = p
	}
	return prices
}

func normal(s *settings) distuv.Normal {
	seed := s.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return distuv.Normal{Mu: 0, Sigma: s.noise, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}
