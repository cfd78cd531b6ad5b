package fairvalue

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownModel is returned for a version that is not registered.
var ErrUnknownModel = errors.New("unknown fair value model")

// Method labels every result: the coefficients are author-chosen constants,
// not the output of any estimation procedure.
const Method = "heuristic"

// Factor is one bounded, user-adjustable macro input.
type Factor struct {
	Key      string  `json:"key" yaml:"key"`
	Label    string  `json:"label" yaml:"label"`
	Min      float64 `json:"min" yaml:"min"`
	Max      float64 `json:"max" yaml:"max"`
	Default  float64 `json:"default" yaml:"default"`
	Step     float64 `json:"step" yaml:"step"`
	PeerPair string  `json:"peer_pair,omitempty" yaml:"peer_pair"` // default taken from this peer quote when set
}

// Term contributes Weight*(input-Anchor) to the fair value.
type Term struct {
	Factor string  `json:"factor" yaml:"factor"`
	Weight float64 `json:"weight" yaml:"weight"`
	Anchor float64 `json:"anchor" yaml:"anchor"`
}

// Model is a named, versioned coefficient set:
// FairValue = Base + Σ Weight_i*(x_i - Anchor_i) + Premium.
type Model struct {
	Version     string   `json:"version" yaml:"version"`
	Description string   `json:"description" yaml:"description"`
	Base        float64  `json:"base" yaml:"base"`
	Premium     float64  `json:"premium" yaml:"premium"`
	Factors     []Factor `json:"factors" yaml:"factors"`
	Terms       []Term   `json:"terms" yaml:"terms"`
}

// Factor looks up a factor by key.
func (m Model) Factor(key string) (Factor, bool) {
	for _, f := range m.Factors {
		if f.Key == key {
			return f, true
		}
	}
	return Factor{}, false
}

// Check verifies the model is internally consistent.
func (m Model) Check() error {
	if m.Version == "" {
		return errors.New("model version is required")
	}
	if !finite(m.Base) || !finite(m.Premium) {
		return fmt.Errorf("model %s: base and premium must be finite", m.Version)
	}
	seen := make(map[string]bool, len(m.Factors))
	for _, f := range m.Factors {
		if f.Key == "" {
			return fmt.Errorf("model %s: factor key is required", m.Version)
		}
		if seen[f.Key] {
			return fmt.Errorf("model %s: duplicate factor %q", m.Version, f.Key)
		}
		seen[f.Key] = true
		if !finite(f.Min) || !finite(f.Max) || f.Min >= f.Max {
			return fmt.Errorf("model %s: factor %q has invalid range [%g, %g]", m.Version, f.Key, f.Min, f.Max)
		}
		if f.Default < f.Min || f.Default > f.Max {
			return fmt.Errorf("model %s: factor %q default %g outside [%g, %g]", m.Version, f.Key, f.Default, f.Min, f.Max)
		}
	}
	for _, t := range m.Terms {
		if !seen[t.Factor] {
			return fmt.Errorf("model %s: term references unknown factor %q", m.Version, t.Factor)
		}
		if !finite(t.Weight) || !finite(t.Anchor) {
			return fmt.Errorf("model %s: term %q must have finite weight and anchor", m.Version, t.Factor)
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// V1 is the first published tuning: four sliders around a 1350 base.
func V1() Model {
	return Model{
		Version:     "v1",
		Description: "Yield, dollar index, VIX and overseas-retail-flow sliders around a fixed 1350 base.",
		Base:        1350,
		Factors: []Factor{
			{Key: "us10y", Label: "US 10Y Treasury yield (%)", Min: 2.0, Max: 6.0, Default: 4.4, Step: 0.1},
			{Key: "dxy", Label: "Dollar index", Min: 90.0, Max: 115.0, Default: 106.5, Step: 0.1},
			{Key: "vix", Label: "Fear index (VIX)", Min: 10.0, Max: 40.0, Default: 16.0, Step: 0.5},
			{Key: "seohak", Label: "Overseas retail buying heat (NASDAQ proxy)", Min: 0, Max: 100, Default: 75, Step: 1},
		},
		Terms: []Term{
			{Factor: "us10y", Weight: 35, Anchor: 4.0},
			{Factor: "dxy", Weight: 15, Anchor: 103},
			{Factor: "vix", Weight: 4, Anchor: 15},
			{Factor: "seohak", Weight: 0.8, Anchor: 50},
		},
	}
}

// V2 adds the policy-rate spread, peer-currency terms and a flat risk premium.
func V2() Model {
	return Model{
		Version:     "v2",
		Description: "v1 sliders plus US-KR policy spread, USD/JPY and USD/CNY peers and a flat risk premium.",
		Base:        1350,
		Premium:     5,
		Factors: []Factor{
			{Key: "rate_spread", Label: "US-KR policy rate spread (%p)", Min: -1.0, Max: 4.0, Default: 1.75, Step: 0.25},
			{Key: "us10y", Label: "US 10Y Treasury yield (%)", Min: 2.0, Max: 6.0, Default: 4.4, Step: 0.1},
			{Key: "dxy", Label: "Dollar index", Min: 90.0, Max: 115.0, Default: 106.5, Step: 0.1},
			{Key: "vix", Label: "Fear index (VIX)", Min: 10.0, Max: 40.0, Default: 16.0, Step: 0.5},
			{Key: "seohak", Label: "Overseas retail buying heat (NASDAQ proxy)", Min: 0, Max: 100, Default: 75, Step: 1},
			{Key: "usdjpy", Label: "USD/JPY", Min: 120, Max: 170, Default: 150, Step: 0.5, PeerPair: "USD/JPY"},
			{Key: "usdcny", Label: "USD/CNY", Min: 6.5, Max: 7.6, Default: 7.2, Step: 0.01, PeerPair: "USD/CNY"},
		},
		Terms: []Term{
			{Factor: "rate_spread", Weight: 18, Anchor: 1.0},
			{Factor: "us10y", Weight: 30, Anchor: 4.0},
			{Factor: "dxy", Weight: 12, Anchor: 103},
			{Factor: "vix", Weight: 3.5, Anchor: 15},
			{Factor: "seohak", Weight: 0.6, Anchor: 50},
			{Factor: "usdjpy", Weight: 1.2, Anchor: 145},
			{Factor: "usdcny", Weight: 40, Anchor: 7.1},
		},
	}
}
