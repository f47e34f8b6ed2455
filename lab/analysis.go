package lab

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/trixle/config"
	"github.com/pthm-cable/trixle/lattice"
	"github.com/pthm-cable/trixle/resonance"
	"github.com/pthm-cable/trixle/telemetry"
)

// MirrorRequest overrides the configured chirality comparison.
type MirrorRequest struct {
	Steps    int                 // 0 = config
	Positive *resonance.Interval // nil = config; the negative side is its mirror
}

// MirrorResult is a chirality comparison and its verdict.
type MirrorResult struct {
	Comparison resonance.Comparison
	Finding    telemetry.Finding
}

// Mirror compares the best resonance of both hands.
func (l *Lab) Mirror(ctx context.Context, req MirrorRequest) (MirrorResult, error) {
	c := l.cfg.Chirality
	if req.Steps > 0 {
		c.Steps = req.Steps
	}
	if req.Positive != nil {
		c.Positive = *req.Positive
	}

	cmp, err := resonance.Compare(ctx, c.Steps, c.Positive, c.Positive.Mirror(), l.searchOptions()...)
	if err != nil {
		return MirrorResult{}, err
	}

	f := telemetry.ClassifyChirality(cmp, c.AsymmetryThreshold, c.SymmetryThreshold)
	logged("chirality", l.out.WriteChirality(cmp))
	l.recordFindings(ctx, []telemetry.Finding{f})

	return MirrorResult{Comparison: cmp, Finding: f}, nil
}

// ScanResult is a fixed-bend step scan and its best step count.
type ScanResult struct {
	Bend    float64
	Samples []resonance.StepSample
	Best    telemetry.Finding
}

// Torsion scans the configured fine-structure range.
func (l *Lab) Torsion(ctx context.Context) (ScanResult, error) {
	return l.scan(ctx, telemetry.FindingTorsion, l.cfg.Torsion)
}

// Neutrino scans the configured zero-bend range.
func (l *Lab) Neutrino(ctx context.Context) (ScanResult, error) {
	return l.scan(ctx, telemetry.FindingNeutrino, l.cfg.Neutrino)
}

func (l *Lab) scan(ctx context.Context, kind telemetry.FindingType, sc config.ScanConfig) (ScanResult, error) {
	samples, err := resonance.ScanSteps(ctx, sc.Range, sc.Bend, l.searchOptions()...)
	if err != nil {
		return ScanResult{}, fmt.Errorf("%s scan: %w", kind, err)
	}

	res := ScanResult{Bend: sc.Bend, Samples: samples}
	// ScanSteps rejects empty ranges, so a best sample always exists
	res.Best, _ = telemetry.MinimumStep(kind, samples, sc.Bend)

	logged("steps", l.out.WriteSteps(samples))
	if l.store != nil {
		logged("archived steps", l.store.SaveSteps(ctx, l.runID, sc.Bend, samples))
	}
	l.recordFindings(ctx, []telemetry.Finding{res.Best})
	return res, nil
}

// ProfileResult is the radial structure of a preset lattice.
type ProfileResult struct {
	Particle string
	Bend     float64
	Radii    []float64
	Smoothed []float64 // moving average, len(Radii)-Window+1 values
	Window   int
	Radius   telemetry.GapStats // distribution of the radii
}

// Profile measures how far each point of a preset lattice sits from its
// centroid. An empty particle uses the configured one.
func (l *Lab) Profile(ctx context.Context, particle string) (ProfileResult, error) {
	if particle == "" {
		particle = l.cfg.Profile.Particle
	}
	p, ok := l.cfg.Particle(particle)
	if !ok {
		return ProfileResult{}, fmt.Errorf("%w: %q", ErrUnknownParticle, particle)
	}
	bend, _, err := l.resolveBend(ctx, p)
	if err != nil {
		return ProfileResult{}, err
	}
	lat, err := l.generate(p.Steps, bend, lattice.WithModulation(p.Modulation.Modulation()))
	if err != nil {
		return ProfileResult{}, err
	}

	window := l.cfg.Profile.Window
	radii := lattice.RadialProfile(lat)
	res := ProfileResult{
		Particle: particle,
		Bend:     bend,
		Radii:    radii,
		Smoothed: lattice.MovingAverage(radii, window),
		Window:   window,
		Radius:   telemetry.ComputeGapStats(radii, 0),
	}

	logged("profile", l.out.WriteProfile(res.Radii, res.Smoothed, window))
	return res, nil
}

// StrandsResult is a hexagonal bundle of parallel lattices.
type StrandsResult struct {
	Offsets  []r3.Vec
	Lattices []*lattice.Lattice
	Gaps     []float64 // closure gap per strand
}

// Strands generates the configured hexagonal strand packing.
func (l *Lab) Strands(ctx context.Context) (StrandsResult, error) {
	if err := ctx.Err(); err != nil {
		return StrandsResult{}, err
	}
	pc := l.cfg.Packing
	offsets := lattice.HexPacking(pc.Radius)
	strands, err := lattice.GenerateStrands(pc.Steps, pc.Bend, offsets, l.cfg.LatticeOptions()...)
	if err != nil {
		return StrandsResult{}, err
	}

	res := StrandsResult{Offsets: offsets, Lattices: strands, Gaps: make([]float64, len(strands))}
	for i, s := range strands {
		gap, err := lattice.Gap(s)
		if err != nil {
			return StrandsResult{}, fmt.Errorf("strand %d: %w", i, err)
		}
		res.Gaps[i] = gap
		logged("strand", l.out.WriteLattice(i, s))
	}
	return res, nil
}
