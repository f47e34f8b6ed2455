package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math"

	"github.com/pthm-cable/trixle/lab"
	"github.com/pthm-cable/trixle/resonance"
)

// A command registers its flags on fs and returns the function that runs it.
type command func(fs *flag.FlagSet) func(ctx context.Context, l *lab.Lab) error

var commands = map[string]command{
	"generate": generateCmd,
	"tune":     tuneCmd,
	"sweep":    sweepCmd,
	"mirror":   mirrorCmd,
	"torsion":  torsionCmd,
	"neutrino": neutrinoCmd,
	"profile":  profileCmd,
	"strands":  strandsCmd,
	"presets":  presetsCmd,
	"replay":   replayCmd,
}

func generateCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	particle := fs.String("particle", "", "Preset to build (overrides -steps/-bend)")
	steps := fs.Int("steps", 0, "Number of steps")
	bend := fs.Float64("bend", 0, "Bend angle in radians")
	snapshot := fs.Bool("snapshot", false, "Save a replayable snapshot (requires -output-dir)")

	return func(ctx context.Context, l *lab.Lab) error {
		if *particle == "" && *steps <= 0 {
			return errors.New("generate needs -particle or -steps")
		}
		res, err := l.Generate(ctx, lab.GenerateRequest{Particle: *particle, Steps: *steps, Bend: *bend, Snapshot: *snapshot})
		if err != nil {
			return err
		}
		attrs := []any{"particle", res.Particle, "steps", res.Lattice.Steps(), "bend", res.Lattice.Bend(), "points", res.Lattice.Len()}
		if res.Closure != nil {
			attrs = append(attrs, "gap", res.Closure.Gap, "torsion_deg", res.Closure.TorsionDegrees)
		}
		if res.SnapshotPath != "" {
			attrs = append(attrs, "snapshot", res.SnapshotPath)
		}
		slog.Info("generated", attrs...)
		return nil
	}
}

func tuneCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	particle := fs.String("particle", "", "Preset supplying steps and scan interval")
	steps := fs.Int("steps", 0, "Number of steps (overrides the preset)")
	low := fs.Float64("low", math.NaN(), "Scan interval low bound")
	high := fs.Float64("high", math.NaN(), "Scan interval high bound")
	samples := fs.Int("samples", 100, "Scan interval sample count")
	refine := fs.Bool("refine", false, "Coarse-to-fine search around the sweep estimate")

	return func(ctx context.Context, l *lab.Lab) error {
		req := lab.TuneRequest{Particle: *particle, Steps: *steps, Refine: *refine}
		if !math.IsNaN(*low) || !math.IsNaN(*high) {
			if math.IsNaN(*low) || math.IsNaN(*high) {
				return errors.New("tune needs both -low and -high")
			}
			req.Interval = &resonance.Interval{Low: *low, High: *high, Samples: *samples}
		}
		res, err := l.Tune(ctx, req)
		if err != nil {
			return err
		}
		slog.Info("tuned", "particle", res.Particle, "steps", res.Steps, "best", res.Best, "stats", res.Stats)
		return nil
	}
}

func sweepCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	minSteps := fs.Int("min", 0, "First step count (0 = config)")
	maxSteps := fs.Int("max", 0, "Last step count (0 = config)")

	return func(ctx context.Context, l *lab.Lab) error {
		r := l.Config().Sweep.Range
		if *minSteps > 0 {
			r.Min = *minSteps
		}
		if *maxSteps > 0 {
			r.Max = *maxSteps
		}
		res, err := l.Sweep(ctx, &r)
		if err != nil {
			return err
		}
		for i, e := range res.Report.Top(l.Config().Sweep.Top) {
			slog.Info("rank", "rank", i+1, "steps", e.Steps, "bend", e.Bend, "gap", e.Gap, "stable", e.Stable)
		}
		slog.Info("sweep complete", "stats", res.Stats, "perf", res.Perf)
		return nil
	}
}

func mirrorCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	steps := fs.Int("steps", 0, "Number of steps (0 = config)")

	return func(ctx context.Context, l *lab.Lab) error {
		res, err := l.Mirror(ctx, lab.MirrorRequest{Steps: *steps})
		if err != nil {
			return err
		}
		slog.Info("chirality",
			"steps", res.Comparison.Steps,
			"positive", res.Comparison.Positive,
			"negative", res.Comparison.Negative,
			"verdict", string(res.Finding.Verdict),
		)
		return nil
	}
}

func torsionCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	return func(ctx context.Context, l *lab.Lab) error {
		res, err := l.Torsion(ctx)
		if err != nil {
			return err
		}
		logScan(res)
		return nil
	}
}

func neutrinoCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	return func(ctx context.Context, l *lab.Lab) error {
		res, err := l.Neutrino(ctx)
		if err != nil {
			return err
		}
		logScan(res)
		return nil
	}
}

func logScan(res lab.ScanResult) {
	for _, s := range res.Samples {
		slog.Debug("step", "steps", s.Steps, "gap", s.Gap, "torsion_deg", s.TorsionDegrees)
	}
	slog.Info("scan complete", "bend", res.Bend, "samples", len(res.Samples), "best_steps", res.Best.Steps, "best_gap", res.Best.Gap)
}

func profileCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	particle := fs.String("particle", "", "Preset to profile (empty = config)")

	return func(ctx context.Context, l *lab.Lab) error {
		res, err := l.Profile(ctx, *particle)
		if err != nil {
			return err
		}
		slog.Info("profile", "particle", res.Particle, "bend", res.Bend, "window", res.Window, "radius", res.Radius)
		return nil
	}
}

func strandsCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	return func(ctx context.Context, l *lab.Lab) error {
		res, err := l.Strands(ctx)
		if err != nil {
			return err
		}
		for i, off := range res.Offsets {
			slog.Info("strand", "strand", i, "x", off.X, "y", off.Y, "points", res.Lattices[i].Len(), "gap", res.Gaps[i])
		}
		return nil
	}
}

func presetsCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	return func(ctx context.Context, l *lab.Lab) error {
		for _, p := range l.Presets() {
			attrs := []any{"name", p.Name, "steps", p.Steps}
			if p.Bend != nil {
				attrs = append(attrs, "bend", *p.Bend)
			}
			if p.Scan != nil {
				attrs = append(attrs, "scan_low", p.Scan.Low, "scan_high", p.Scan.High, "scan_samples", p.Scan.Samples)
			}
			if p.Modulation.Kind != "" {
				attrs = append(attrs, "modulation", p.Modulation.Kind)
			}
			slog.Info("preset", attrs...)
		}
		return nil
	}
}

func replayCmd(fs *flag.FlagSet) func(context.Context, *lab.Lab) error {
	path := fs.String("snapshot", "", "Snapshot file to replay")

	return func(ctx context.Context, l *lab.Lab) error {
		if *path == "" {
			return errors.New("replay needs -snapshot")
		}
		deviation, err := l.Replay(*path)
		if err != nil {
			return err
		}
		slog.Info("replayed", "snapshot", *path, "max_deviation", deviation)
		return nil
	}
}
