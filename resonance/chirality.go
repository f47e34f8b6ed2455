package resonance

import (
	"context"
	"fmt"
)

// Comparison holds the best resonance on each side of zero bend.
type Comparison struct {
	Steps    int
	Positive Result
	Negative Result
}

// Compare searches positive and negative for the resonance of a steps-long
// lattice with the same gap objective. Every value of positive must be
// greater than zero and every value of negative less than zero.
func Compare(ctx context.Context, steps int, positive, negative Interval, opts ...Option) (Comparison, error) {
	if !(positive.Low > 0 && positive.High > 0) {
		return Comparison{}, fmt.Errorf("%w: positive interval [%g, %g]", ErrChiralityRange, positive.Low, positive.High)
	}
	if !(negative.Low < 0 && negative.High < 0) {
		return Comparison{}, fmt.Errorf("%w: negative interval [%g, %g]", ErrChiralityRange, negative.Low, negative.High)
	}

	o := buildOptions(opts)
	objective := GapObjective(steps, o.Lattice...)

	pos, err := searchInterval(ctx, objective, positive, opts)
	if err != nil {
		return Comparison{}, fmt.Errorf("positive scan: %w", err)
	}
	neg, err := searchInterval(ctx, objective, negative, opts)
	if err != nil {
		return Comparison{}, fmt.Errorf("negative scan: %w", err)
	}

	return Comparison{Steps: steps, Positive: pos, Negative: neg}, nil
}

func searchInterval(ctx context.Context, objective Objective, in Interval, opts []Option) (Result, error) {
	candidates, err := in.Values()
	if err != nil {
		return Result{}, err
	}
	return Search(ctx, objective, candidates, opts...)
}
