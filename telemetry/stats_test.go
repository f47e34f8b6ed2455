package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/trixle/resonance"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeGapStats(t *testing.T) {
	gaps := []float64{1.0, 0.2, 0.9, 0.4, 0.5, 0.6, 0.7, 0.8, 0.3, 0.1}
	s := ComputeGapStats(gaps, 0.5)

	if s.Count != 10 {
		t.Errorf("count = %d, want 10", s.Count)
	}
	// 0.1..0.4 are below the threshold; 0.5 is not
	if s.Stable != 4 {
		t.Errorf("stable = %d, want 4", s.Stable)
	}
	if s.Min != 0.1 || s.Max != 1.0 {
		t.Errorf("range = [%v, %v], want [0.1, 1.0]", s.Min, s.Max)
	}
	if math.Abs(s.Mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", s.Mean)
	}
	// Sample std of 0.1..1.0
	if math.Abs(s.Std-0.3028) > 0.001 {
		t.Errorf("std = %v, want ~0.3028", s.Std)
	}
	if math.Abs(s.P10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", s.P10)
	}
	if math.Abs(s.P50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", s.P50)
	}
	if math.Abs(s.P90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", s.P90)
	}

	// Input order is preserved
	if gaps[0] != 1.0 {
		t.Error("ComputeGapStats must not reorder its input")
	}
}

func TestComputeGapStatsEdgeCases(t *testing.T) {
	if s := ComputeGapStats(nil, 0.5); s != (GapStats{}) {
		t.Errorf("empty input should return zero stats, got %+v", s)
	}

	s := ComputeGapStats([]float64{0.3}, 0.5)
	if s.Std != 0 || s.Mean != 0.3 || s.Stable != 1 {
		t.Errorf("single value stats = %+v", s)
	}
}

func TestGapExtraction(t *testing.T) {
	entries := []resonance.Entry{{Steps: 104, Gap: 0.2}, {Steps: 90, Gap: 3}}
	if got := EntryGaps(entries); len(got) != 2 || got[0] != 0.2 || got[1] != 3 {
		t.Errorf("EntryGaps = %v", got)
	}

	samples := []resonance.Sample{{Bend: 0.1, Gap: 7}}
	if got := SampleGaps(samples); len(got) != 1 || got[0] != 7 {
		t.Errorf("SampleGaps = %v", got)
	}
}
