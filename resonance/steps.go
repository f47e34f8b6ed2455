package resonance

import (
	"context"
	"fmt"

	"github.com/pthm-cable/trixle/lattice"
)

// StepSample is the closure of one step count at a fixed bend.
type StepSample struct {
	Steps          int     `csv:"steps"`
	Gap            float64 `csv:"gap"`
	TorsionDegrees float64 `csv:"torsion_deg"`
}

// ScanSteps generates one lattice per step count in r at the given bend and
// reports its closure, in step order.
func ScanSteps(ctx context.Context, r StepRange, bend float64, opts ...Option) ([]StepSample, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	samples := make([]StepSample, r.Len())
	errs := forEach(ctx, len(samples), o.Workers, func(i int) error {
		steps := r.Min + i
		l, err := lattice.Generate(steps, bend, o.Lattice...)
		if err != nil {
			return fmt.Errorf("steps %d: %w", steps, err)
		}
		report, err := lattice.Closure(l)
		if err != nil {
			return fmt.Errorf("steps %d: %w", steps, err)
		}
		samples[i] = StepSample{Steps: steps, Gap: report.Gap, TorsionDegrees: report.TorsionDegrees}
		return nil
	})
	if _, err := firstError(errs); err != nil {
		return nil, err
	}
	return samples, nil
}

// BestStep returns the first sample with the strictly smallest gap.
func BestStep(samples []StepSample) (StepSample, bool) {
	if len(samples) == 0 {
		return StepSample{}, false
	}
	best := samples[0]
	for _, s := range samples[1:] {
		if s.Gap < best.Gap {
			best = s
		}
	}
	return best, true
}
