package resonance

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Sample is one evaluation of an objective.
type Sample struct {
	Bend float64 `csv:"bend" yaml:"bend"`
	Gap  float64 `csv:"gap" yaml:"gap"`
}

// Result is the minimiser over a finite candidate set.
type Result struct {
	Bend        float64
	Gap         float64
	Evaluations int
	Samples     []Sample // every evaluation in candidate order, with WithSamples
}

// LogValue implements slog.LogValuer for structured logging.
func (r Result) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("bend", r.Bend),
		slog.Float64("gap", r.Gap),
		slog.Int("evaluations", r.Evaluations),
	)
}

// Search evaluates objective at every candidate and returns the first
// candidate with the strictly smallest value. Later candidates with an equal
// value never replace it. Objective errors are returned, never skipped.
func Search(ctx context.Context, objective Objective, candidates []float64, opts ...Option) (Result, error) {
	n := len(candidates)
	if n == 0 {
		return Result{}, ErrEmptySearchSpace
	}
	o := buildOptions(opts)

	gaps := make([]float64, n)
	errs := forEach(ctx, n, o.Workers, func(i int) error {
		gap, err := objective(candidates[i])
		if err != nil {
			return fmt.Errorf("bend %g: %w", candidates[i], err)
		}
		if math.IsNaN(gap) {
			return fmt.Errorf("%w: bend %g", ErrInvalidObjective, candidates[i])
		}
		gaps[i] = gap
		return nil
	})
	if _, err := firstError(errs); err != nil {
		return Result{}, err
	}

	best := 0
	for i := 1; i < n; i++ {
		if gaps[i] < gaps[best] {
			best = i
		}
	}

	result := Result{
		Bend:        candidates[best],
		Gap:         gaps[best],
		Evaluations: n,
	}
	if o.KeepSamples {
		result.Samples = make([]Sample, n)
		for i := range candidates {
			result.Samples[i] = Sample{Bend: candidates[i], Gap: gaps[i]}
		}
	}
	return result, nil
}
