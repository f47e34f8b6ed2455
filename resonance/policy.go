package resonance

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Linspace returns n evenly spaced values from low to high inclusive. n == 1
// yields just low; n == 0 yields an empty slice, which Search rejects.
func Linspace(low, high float64, n int) ([]float64, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSamples, n)
	}
	if !finite(low) || !finite(high) {
		return nil, fmt.Errorf("%w: bounds [%v, %v]", ErrInvalidRange, low, high)
	}
	switch n {
	case 0:
		return []float64{}, nil
	case 1:
		return []float64{low}, nil
	}
	return floats.Span(make([]float64, n), low, high), nil
}

// Interval is an explicit bend-factor range sampled at a fixed resolution.
type Interval struct {
	Low     float64 `yaml:"low"`
	High    float64 `yaml:"high"`
	Samples int     `yaml:"samples"`
}

// Values returns the candidates of a single-pass linear scan over i.
func (i Interval) Values() ([]float64, error) {
	return Linspace(i.Low, i.High, i.Samples)
}

// Mirror returns the sign-mirrored interval, sampled in mirrored order.
func (i Interval) Mirror() Interval {
	return Interval{Low: -i.Low, High: -i.High, Samples: i.Samples}
}

// Window is a range expressed as multipliers of a centre value.
type Window struct {
	Low     float64 `yaml:"low"`
	High    float64 `yaml:"high"`
	Samples int     `yaml:"samples"`
}

// Around returns the candidates of w centred on center.
func (w Window) Around(center float64) ([]float64, error) {
	return Linspace(center*w.Low, center*w.High, w.Samples)
}

// RefinePolicy is a two-pass coarse-to-fine grid.
type RefinePolicy struct {
	Coarse Window `yaml:"coarse"`
	Fine   Window `yaml:"fine"`
}

// DefaultRefinePolicy scans estimate×[0.5,1.5] at 40 samples, then
// best×[0.95,1.05] at 20 samples.
func DefaultRefinePolicy() RefinePolicy {
	return RefinePolicy{
		Coarse: Window{Low: 0.5, High: 1.5, Samples: 40},
		Fine:   Window{Low: 0.95, High: 1.05, Samples: 20},
	}
}

// Refinement holds both passes of Refine and the overall winner.
type Refinement struct {
	Coarse Result
	Fine   Result
	Best   Result
}

// Refine searches the coarse window around estimate, then the fine window
// around the coarse winner. Best is the fine winner only when its gap is
// strictly smaller, so Best.Gap <= Coarse.Gap always holds.
func Refine(ctx context.Context, objective Objective, estimate float64, policy RefinePolicy, opts ...Option) (Refinement, error) {
	coarse, err := policy.Coarse.Around(estimate)
	if err != nil {
		return Refinement{}, fmt.Errorf("coarse window: %w", err)
	}
	coarseBest, err := Search(ctx, objective, coarse, opts...)
	if err != nil {
		return Refinement{}, fmt.Errorf("coarse pass: %w", err)
	}

	fine, err := policy.Fine.Around(coarseBest.Bend)
	if err != nil {
		return Refinement{}, fmt.Errorf("fine window: %w", err)
	}
	fineBest, err := Search(ctx, objective, fine, opts...)
	if err != nil {
		return Refinement{}, fmt.Errorf("fine pass: %w", err)
	}

	best := coarseBest
	if fineBest.Gap < coarseBest.Gap {
		best = fineBest
	}
	best.Evaluations = coarseBest.Evaluations + fineBest.Evaluations
	if coarseBest.Samples != nil || fineBest.Samples != nil {
		best.Samples = append(append([]Sample(nil), coarseBest.Samples...), fineBest.Samples...)
	}

	return Refinement{Coarse: coarseBest, Fine: fineBest, Best: best}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
