package resonance

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/trixle/lattice"
)

// MinSteps is the smallest step count whose lattice has a closure gap.
const MinSteps = lattice.MinClosureLen - 4

// StepRange is an inclusive range of step counts.
type StepRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Len returns the number of step counts in r.
func (r StepRange) Len() int {
	if r.Max < r.Min {
		return 0
	}
	return r.Max - r.Min + 1
}

// Validate checks that r is non-empty and every step count in it can be
// measured.
func (r StepRange) Validate() error {
	if r.Max < r.Min {
		return fmt.Errorf("%w: steps %d..%d is empty", ErrInvalidRange, r.Min, r.Max)
	}
	if r.Min < MinSteps {
		return fmt.Errorf("%w: steps %d..%d starts below %d", ErrInvalidRange, r.Min, r.Max, MinSteps)
	}
	return nil
}

// EstimateFunc predicts the resonant bend factor of a step count.
type EstimateFunc func(steps int) float64

// InverseEstimate returns steps -> numerator/steps. Resonant bends observed
// so far scale inversely with step count with a numerator near 21.
func InverseEstimate(numerator float64) EstimateFunc {
	return func(steps int) float64 {
		return numerator / float64(steps)
	}
}

// Entry is one row of a sweep.
type Entry struct {
	Steps  int     `csv:"steps"`
	Bend   float64 `csv:"bend"`
	Gap    float64 `csv:"gap"`
	Stable bool    `csv:"stable"`
}

// Report is a sweep ranked by ascending gap. Entries with equal gaps keep
// step-count order.
type Report struct {
	Range     StepRange
	Threshold float64
	Entries   []Entry
}

// Top returns up to n best entries.
func (r *Report) Top(n int) []Entry {
	if n > len(r.Entries) {
		n = len(r.Entries)
	}
	if n < 0 {
		n = 0
	}
	return r.Entries[:n]
}

// Find returns the entry for steps.
func (r *Report) Find(steps int) (Entry, bool) {
	for _, e := range r.Entries {
		if e.Steps == steps {
			return e, true
		}
	}
	return Entry{}, false
}

// StableEntries returns the entries below the stability threshold, best
// first.
func (r *Report) StableEntries() []Entry {
	var out []Entry
	for _, e := range r.Entries {
		if e.Stable {
			out = append(out, e)
		}
	}
	return out
}

// rankEntries sorts entries by ascending gap. Equal gaps keep their input
// order, which Sweep builds in step order.
func rankEntries(entries []Entry) {
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Gap < entries[b].Gap
	})
}

// Sweep refines the resonance of every step count in r around
// estimate(steps) and ranks the results. Step counts are spread across
// WithWorkers goroutines; each refinement itself runs sequentially.
func Sweep(ctx context.Context, r StepRange, estimate EstimateFunc, opts ...Option) (*Report, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	total := r.Len()
	entries := make([]Entry, total)

	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	done := 0

	for i := 0; i < total; i++ {
		steps := r.Min + i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ref, err := Refine(gctx, GapObjective(steps, o.Lattice...), estimate(steps), o.Policy)
			if err != nil {
				return fmt.Errorf("steps %d: %w", steps, err)
			}
			entry := Entry{
				Steps:  steps,
				Bend:   ref.Best.Bend,
				Gap:    ref.Best.Gap,
				Stable: ref.Best.Gap < o.Threshold,
			}
			entries[i] = entry

			if o.Progress != nil {
				mu.Lock()
				done++
				o.Progress(entry, done, total)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	rankEntries(entries)
	return &Report{Range: r, Threshold: o.Threshold, Entries: entries}, nil
}
