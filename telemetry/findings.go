package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/trixle/resonance"
)

// FindingType identifies what a finding reports on.
type FindingType string

const (
	FindingNewBest   FindingType = "new_best"
	FindingStable    FindingType = "stable_resonance"
	FindingTarget    FindingType = "mass_target"
	FindingChirality FindingType = "chirality"
	FindingTorsion   FindingType = "torsion_minimum"
	FindingNeutrino  FindingType = "neutrino_minimum"
)

// Verdict is the outcome of a hypothesis check.
type Verdict string

const (
	VerdictNone         Verdict = ""
	VerdictConfirmed    Verdict = "CONFIRMED"
	VerdictBusted       Verdict = "BUSTED"
	VerdictAsymmetric   Verdict = "ASYMMETRIC"
	VerdictSymmetric    Verdict = "SYMMETRIC"
	VerdictInconclusive Verdict = "INCONCLUSIVE"
)

// Finding is one reportable observation about a run.
type Finding struct {
	Type        FindingType `csv:"type"`
	Steps       int         `csv:"steps"`
	Bend        float64     `csv:"bend"`
	Gap         float64     `csv:"gap"`
	Verdict     Verdict     `csv:"verdict"`
	Description string      `csv:"description"`
}

// LogFinding logs the finding using slog.
func (f Finding) LogFinding() {
	attrs := []any{
		"type", string(f.Type),
		"steps", f.Steps,
		"bend", f.Bend,
		"gap", f.Gap,
	}
	if f.Verdict != VerdictNone {
		attrs = append(attrs, "verdict", string(f.Verdict))
	}
	attrs = append(attrs, "description", f.Description)
	slog.Info("finding", attrs...)
}

// SweepWatcher turns sweep entries into findings as they complete.
type SweepWatcher struct {
	threshold float64
	best      float64
	seen      int
}

// NewSweepWatcher creates a watcher that flags entries below threshold.
func NewSweepWatcher(threshold float64) *SweepWatcher {
	return &SweepWatcher{threshold: threshold, best: math.Inf(1)}
}

// Check analyzes the latest entry and returns any triggered findings.
func (w *SweepWatcher) Check(e resonance.Entry) []Finding {
	var findings []Finding

	w.seen++
	if e.Gap < w.best {
		prev := w.best
		w.best = e.Gap
		desc := fmt.Sprintf("First entry, gap %.4f", e.Gap)
		if !math.IsInf(prev, 1) {
			desc = fmt.Sprintf("Gap %.4f beats previous best %.4f after %d entries", e.Gap, prev, w.seen)
		}
		findings = append(findings, Finding{
			Type:        FindingNewBest,
			Steps:       e.Steps,
			Bend:        e.Bend,
			Gap:         e.Gap,
			Description: desc,
		})
	}

	if e.Gap < w.threshold {
		findings = append(findings, Finding{
			Type:        FindingStable,
			Steps:       e.Steps,
			Bend:        e.Bend,
			Gap:         e.Gap,
			Description: fmt.Sprintf("Gap %.4f below stability threshold %.2f", e.Gap, w.threshold),
		})
	}

	return findings
}

// CheckTargets tests each target step count against the report's stability
// threshold. Targets outside the swept range are BUSTED.
func CheckTargets(report *resonance.Report, targets []int) []Finding {
	findings := make([]Finding, 0, len(targets))
	for _, steps := range targets {
		e, ok := report.Find(steps)
		if !ok {
			findings = append(findings, Finding{
				Type:        FindingTarget,
				Steps:       steps,
				Gap:         math.NaN(),
				Verdict:     VerdictBusted,
				Description: fmt.Sprintf("Step count %d not in sweep range %d..%d", steps, report.Range.Min, report.Range.Max),
			})
			continue
		}

		f := Finding{Type: FindingTarget, Steps: steps, Bend: e.Bend, Gap: e.Gap}
		if e.Gap < report.Threshold {
			f.Verdict = VerdictConfirmed
			f.Description = fmt.Sprintf("Mass %d closes with gap %.4f < %.2f", steps, e.Gap, report.Threshold)
		} else {
			f.Verdict = VerdictBusted
			f.Description = fmt.Sprintf("Mass %d gap %.4f is not below %.2f", steps, e.Gap, report.Threshold)
		}
		findings = append(findings, f)
	}
	return findings
}

// ClassifyStability reports every stable entry among the top n of report.
func ClassifyStability(report *resonance.Report, n int) []Finding {
	var findings []Finding
	for rank, e := range report.Top(n) {
		if !e.Stable {
			continue
		}
		findings = append(findings, Finding{
			Type:        FindingStable,
			Steps:       e.Steps,
			Bend:        e.Bend,
			Gap:         e.Gap,
			Description: fmt.Sprintf("Rank %d of %d", rank+1, len(report.Entries)),
		})
	}
	return findings
}

// ClassifyChirality compares the best gaps of both hands. A negative-hand gap
// larger than the positive one by more than asymmetry means the mirror
// lattice is unstable; a difference within symmetry means neither hand is
// preferred.
func ClassifyChirality(cmp resonance.Comparison, asymmetry, symmetry float64) Finding {
	diff := cmp.Negative.Gap - cmp.Positive.Gap

	f := Finding{
		Type:  FindingChirality,
		Steps: cmp.Steps,
		Bend:  cmp.Positive.Bend,
		Gap:   diff,
	}
	switch {
	case diff > asymmetry:
		f.Verdict = VerdictAsymmetric
		f.Description = fmt.Sprintf("Mirror hand gap %.4f exceeds %.4f by %.4f", cmp.Negative.Gap, cmp.Positive.Gap, diff)
	case math.Abs(diff) < symmetry:
		f.Verdict = VerdictSymmetric
		f.Description = fmt.Sprintf("Both hands close within %.4f", math.Abs(diff))
	default:
		f.Verdict = VerdictInconclusive
		f.Description = fmt.Sprintf("Gap difference %.4f between thresholds", diff)
	}
	return f
}

// MinimumStep reports the best sample of a fixed-bend step scan.
func MinimumStep(kind FindingType, samples []resonance.StepSample, bend float64) (Finding, bool) {
	best, ok := resonance.BestStep(samples)
	if !ok {
		return Finding{}, false
	}
	return Finding{
		Type:        kind,
		Steps:       best.Steps,
		Bend:        bend,
		Gap:         best.Gap,
		Description: fmt.Sprintf("Best of %d step counts, torsion %.2f deg", len(samples), best.TorsionDegrees),
	}, true
}
