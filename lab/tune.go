package lab

import (
	"context"
	"fmt"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/resonance"
	"github.com/pthm-cable/trixle/telemetry"
)

// TuneRequest selects what to tune. A preset supplies steps, scan interval
// and modulation; Steps and Interval override them. Refine replaces the
// linear scan with a coarse-to-fine search around the sweep estimate.
type TuneRequest struct {
	Particle string
	Steps    int
	Interval *resonance.Interval
	Refine   bool
}

// TuneResult is the resonance found for one step count.
type TuneResult struct {
	Particle   string
	Steps      int
	Best       resonance.Result
	Refinement *resonance.Refinement // set when Refine was requested
	Stats      telemetry.GapStats    // over every evaluated candidate
}

// Tune finds the resonant bend for one step count.
func (l *Lab) Tune(ctx context.Context, req TuneRequest) (TuneResult, error) {
	var p config.ParticleConfig
	if req.Particle != "" {
		var ok bool
		if p, ok = l.cfg.Particle(req.Particle); !ok {
			return TuneResult{}, fmt.Errorf("%w: %q", ErrUnknownParticle, req.Particle)
		}
	}
	if req.Steps > 0 {
		p.Steps = req.Steps
	}
	if req.Interval != nil {
		p.Scan = req.Interval
	}

	if p.Steps < resonance.MinSteps {
		return TuneResult{}, fmt.Errorf("%w: %d steps is below %d", resonance.ErrInvalidRange, p.Steps, resonance.MinSteps)
	}

	objective := resonance.GapObjective(p.Steps, p.LatticeOptions(l.cfg.LatticeOptions()...)...)
	opts := []resonance.Option{resonance.WithWorkers(l.workers), resonance.WithSamples()}
	res := TuneResult{Particle: req.Particle, Steps: p.Steps}

	if req.Refine {
		ref, err := resonance.Refine(ctx, objective, l.cfg.Estimate()(p.Steps), l.cfg.Search.Refine, opts...)
		if err != nil {
			return TuneResult{}, fmt.Errorf("refine %d steps: %w", p.Steps, err)
		}
		res.Best = ref.Best
		res.Refinement = &ref
	} else {
		if p.Scan == nil {
			return TuneResult{}, fmt.Errorf("%w: %d steps", ErrNoScanInterval, p.Steps)
		}
		candidates, err := p.Scan.Values()
		if err != nil {
			return TuneResult{}, err
		}
		best, err := resonance.Search(ctx, objective, candidates, opts...)
		if err != nil {
			return TuneResult{}, fmt.Errorf("tune %d steps: %w", p.Steps, err)
		}
		res.Best = best
	}

	res.Stats = telemetry.ComputeGapStats(telemetry.SampleGaps(res.Best.Samples), l.cfg.Sweep.StableThreshold)

	logged("samples", l.out.WriteSamples(res.Best.Samples))
	logged("gap stats", l.out.WriteGapStats(res.Stats))
	if l.store != nil {
		logged("archived samples", l.store.SaveSamples(ctx, l.runID, res.Best.Samples))
	}
	return res, nil
}
