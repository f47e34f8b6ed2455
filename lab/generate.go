package lab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
	"github.com/pthm-cable/trixle/resonance"
	"github.com/pthm-cable/trixle/telemetry"
)

// GenerateRequest selects the lattice to build: a preset by name, or an
// explicit step count and bend.
type GenerateRequest struct {
	Particle string
	Steps    int
	Bend     float64
	Snapshot bool // save a replayable JSON snapshot to the output dir
}

// GenerateResult is a built lattice and its closure.
type GenerateResult struct {
	Particle     string
	Lattice      *lattice.Lattice
	Closure      *lattice.ClosureReport // nil when the lattice is too short to measure
	Tuned        *resonance.Result      // set when the preset's bend came from a scan
	SnapshotPath string
}

// Generate builds one lattice and writes its points and cells.
func (l *Lab) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	p := config.ParticleConfig{Steps: req.Steps, Bend: &req.Bend}
	if req.Particle != "" {
		var ok bool
		if p, ok = l.cfg.Particle(req.Particle); !ok {
			return GenerateResult{}, fmt.Errorf("%w: %q", ErrUnknownParticle, req.Particle)
		}
	}

	bend, tuned, err := l.resolveBend(ctx, p)
	if err != nil {
		return GenerateResult{}, err
	}

	lat, err := l.generate(p.Steps, bend, lattice.WithModulation(p.Modulation.Modulation()))
	if err != nil {
		return GenerateResult{}, err
	}

	res := GenerateResult{Particle: req.Particle, Lattice: lat, Tuned: tuned}
	report, err := lattice.Closure(lat)
	switch {
	case err == nil:
		res.Closure = &report
	case !errors.Is(err, lattice.ErrInsufficientLength):
		return GenerateResult{}, err
	}

	logged("lattice", l.out.WriteLattice(0, lat))

	if req.Snapshot && l.out != nil {
		snap := telemetry.NewSnapshot(req.Particle, lat, p.Modulation, r3.Vec{}, l.cfg.Geometry.Epsilon)
		path, err := telemetry.SaveSnapshot(snap, l.out.Dir())
		if err != nil {
			logged("snapshot", err)
		} else {
			res.SnapshotPath = path
		}
	}

	return res, nil
}

// resolveBend returns the preset's bend, tuning over its scan interval when
// none is configured.
func (l *Lab) resolveBend(ctx context.Context, p config.ParticleConfig) (float64, *resonance.Result, error) {
	if p.Bend != nil {
		return *p.Bend, nil, nil
	}
	if p.Scan == nil {
		return 0, nil, fmt.Errorf("%w: particle %q has neither bend nor scan", ErrNoScanInterval, p.Name)
	}

	slog.Info("tuning bend before generation", "particle", p.Name, "steps", p.Steps)
	candidates, err := p.Scan.Values()
	if err != nil {
		return 0, nil, err
	}
	objective := resonance.GapObjective(p.Steps, p.LatticeOptions(l.cfg.LatticeOptions()...)...)
	best, err := resonance.Search(ctx, objective, candidates, resonance.WithWorkers(l.workers))
	if err != nil {
		return 0, nil, fmt.Errorf("tune %s: %w", p.Name, err)
	}
	return best.Bend, &best, nil
}

// Replay regenerates a saved snapshot and returns the largest point
// deviation.
func (l *Lab) Replay(path string) (float64, error) {
	snap, err := telemetry.LoadSnapshot(path)
	if err != nil {
		return 0, err
	}
	return snap.Replay()
}

// Presets returns the configured particle presets.
func (l *Lab) Presets() []config.ParticleConfig {
	return l.cfg.Particles
}
