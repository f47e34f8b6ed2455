package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/trixle/resonance"
)

// GapStats summarises a set of closure gaps.
type GapStats struct {
	Count  int     `csv:"count"`
	Stable int     `csv:"stable"` // gaps below the threshold
	Min    float64 `csv:"min"`
	Max    float64 `csv:"max"`
	Mean   float64 `csv:"mean"`
	Std    float64 `csv:"std"`
	P10    float64 `csv:"p10"`
	P50    float64 `csv:"p50"`
	P90    float64 `csv:"p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeGapStats summarises gaps, counting those strictly below threshold
// as stable.
func ComputeGapStats(gaps []float64, threshold float64) GapStats {
	n := len(gaps)
	if n == 0 {
		return GapStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, gaps)
	sort.Float64s(sorted)

	stable := sort.SearchFloat64s(sorted, threshold)

	// Sample standard deviation is undefined for a single value
	var std float64
	if n > 1 {
		std = stat.StdDev(sorted, nil)
	}

	return GapStats{
		Count:  n,
		Stable: stable,
		Min:    sorted[0],
		Max:    sorted[n-1],
		Mean:   stat.Mean(sorted, nil),
		Std:    std,
		P10:    Percentile(sorted, 0.10),
		P50:    Percentile(sorted, 0.50),
		P90:    Percentile(sorted, 0.90),
	}
}

// EntryGaps returns the gap of every sweep entry.
func EntryGaps(entries []resonance.Entry) []float64 {
	gaps := make([]float64, len(entries))
	for i, e := range entries {
		gaps[i] = e.Gap
	}
	return gaps
}

// SampleGaps returns the gap of every search sample.
func SampleGaps(samples []resonance.Sample) []float64 {
	gaps := make([]float64, len(samples))
	for i, s := range samples {
		gaps[i] = s.Gap
	}
	return gaps
}

// LogValue implements slog.LogValuer for structured logging.
func (s GapStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Int("stable", s.Stable),
		slog.Float64("min", s.Min),
		slog.Float64("max", s.Max),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p10", s.P10),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
	)
}

// LogStats logs the gap stats using slog.
func (s GapStats) LogStats(msg string) {
	slog.Info(msg,
		"count", s.Count,
		"stable", s.Stable,
		"min", s.Min,
		"p50", s.P50,
		"mean", s.Mean,
		"std", s.Std,
		"max", s.Max,
	)
}
