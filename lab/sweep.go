package lab

import (
	"context"
	"fmt"

	"github.com/pthm-cable/trixle/resonance"
	"github.com/pthm-cable/trixle/telemetry"
)

// SweepResult is a ranked sweep with its summary and findings.
type SweepResult struct {
	Report   *resonance.Report
	Stats    telemetry.GapStats
	Findings []telemetry.Finding // stability of the top entries, then targets
	Perf     telemetry.PerfStats
}

// Sweep refines every step count in r, or the configured range when r is
// nil, and checks the configured targets.
func (l *Lab) Sweep(ctx context.Context, r *resonance.StepRange) (SweepResult, error) {
	stepRange := l.cfg.Sweep.Range
	if r != nil {
		stepRange = *r
	}
	if err := stepRange.Validate(); err != nil {
		return SweepResult{}, err
	}

	perf := telemetry.NewPerfCollector(l.cfg.Telemetry.PerfWindow, stepRange.Len())
	watcher := telemetry.NewSweepWatcher(l.cfg.Sweep.StableThreshold)
	every := l.cfg.Telemetry.ProgressEvery

	// Sweep serialises progress calls
	progress := func(e resonance.Entry, done, total int) {
		perf.Record()
		if l.opts.LogProgress {
			for _, f := range watcher.Check(e) {
				f.LogFinding()
			}
		}
		if done%every == 0 || done == total {
			stats := perf.Stats()
			if l.opts.LogProgress {
				stats.LogStats()
			}
			logged("perf", l.out.WritePerf(stats))
		}
	}

	report, err := resonance.Sweep(ctx, stepRange, l.cfg.Estimate(), l.searchOptions(resonance.WithProgress(progress))...)
	if err != nil {
		return SweepResult{}, fmt.Errorf("sweep %d..%d: %w", stepRange.Min, stepRange.Max, err)
	}

	res := SweepResult{
		Report: report,
		Stats:  telemetry.ComputeGapStats(telemetry.EntryGaps(report.Entries), report.Threshold),
		Perf:   perf.Stats(),
	}
	res.Findings = append(telemetry.ClassifyStability(report, l.cfg.Sweep.Top),
		telemetry.CheckTargets(report, l.cfg.Sweep.Targets)...)

	logged("sweep", l.out.WriteSweep(report.Entries))
	logged("gap stats", l.out.WriteGapStats(res.Stats))
	if l.store != nil {
		logged("archived sweep", l.store.SaveSweep(ctx, l.runID, report.Entries))
	}
	l.recordFindings(ctx, res.Findings)

	return res, nil
}
