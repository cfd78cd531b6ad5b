package fairvalue

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Inputs maps factor keys to slider values.
type Inputs map[string]float64

// Contribution is one term of the formula.
type Contribution struct {
	Factor string  `json:"factor"`
	Label  string  `json:"label"`
	Input  float64 `json:"input"`
	Weight float64 `json:"weight"`
	Anchor float64 `json:"anchor"`
	Value  float64 `json:"value"`
}

// Result is the evaluated fair value with its breakdown.
type Result struct {
	Version       string         `json:"version"`
	Method        string         `json:"method"`
	Base          float64        `json:"base"`
	Premium       float64        `json:"premium"`
	FairValue     float64        `json:"fair_value"`
	Contributions []Contribution `json:"contributions"`
}

// Rounded returns the fair value rounded to 2 decimal places for display.
func (r Result) Rounded() float64 {
	return decimal.NewFromFloat(r.FairValue).Round(2).InexactFloat64()
}

// Resolve fills missing factors with their defaults and drops unknown keys.
func (m Model) Resolve(in Inputs) Inputs {
	out := make(Inputs, len(m.Factors))
	for _, f := range m.Factors {
		if v, ok := in[f.Key]; ok {
			out[f.Key] = v
		} else {
			out[f.Key] = f.Default
		}
	}
	return out
}

// Validate rejects unknown factor keys and values outside a factor's bounds.
func (m Model) Validate(in Inputs) error {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := in[k]
		f, ok := m.Factor(k)
		if !ok {
			return fmt.Errorf("model %s has no factor %q", m.Version, k)
		}
		if math.IsNaN(v) || v < f.Min || v > f.Max {
			return fmt.Errorf("factor %q = %g outside [%g, %g]", k, v, f.Min, f.Max)
		}
	}
	return nil
}

// Evaluate computes Base + Σ Weight*(x-Anchor) + Premium. It is pure and
// total; the output is deliberately not clamped.
func (m Model) Evaluate(in Inputs) Result {
	resolved := m.Resolve(in)
	res := Result{
		Version:       m.Version,
		Method:        Method,
		Base:          m.Base,
		Premium:       m.Premium,
		Contributions: make([]Contribution, 0, len(m.Terms)),
	}

	total := m.Base
	for _, t := range m.Terms {
		f, _ := m.Factor(t.Factor)
		x := resolved[t.Factor]
		c := t.Weight * (x - t.Anchor)
		total += c
		res.Contributions = append(res.Contributions, Contribution{
			Factor: t.Factor,
			Label:  f.Label,
			Input:  x,
			Weight: t.Weight,
			Anchor: t.Anchor,
			Value:  c,
		})
	}
	res.FairValue = total + m.Premium
	return res
}

// Defaults returns every factor at its default value.
func (m Model) Defaults() Inputs {
	return m.Resolve(nil)
}
