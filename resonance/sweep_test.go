package resonance_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/trixle/resonance"
)

func TestStepRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       resonance.StepRange
		wantLen int
		wantErr bool
	}{
		{"single", resonance.StepRange{Min: 4, Max: 4}, 1, false},
		{"mass band", resonance.StepRange{Min: 80, Max: 250}, 171, false},
		{"empty", resonance.StepRange{Min: 10, Max: 9}, 0, true},
		{"below minimum", resonance.StepRange{Min: 3, Max: 12}, 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantLen, tt.r.Len())
			err := tt.r.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, resonance.ErrInvalidRange), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSweep_MassBand(t *testing.T) {
	if testing.Short() {
		t.Skip("full mass band sweep")
	}
	r := resonance.StepRange{Min: 80, Max: 250}
	report, err := resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21), resonance.WithWorkers(4))
	require.NoError(t, err)
	require.Len(t, report.Entries, r.Len())

	assert.True(t, sort.SliceIsSorted(report.Entries, func(a, b int) bool {
		return report.Entries[a].Gap < report.Entries[b].Gap
	}))

	seen := make(map[int]int)
	for _, e := range report.Entries {
		seen[e.Steps]++
		assert.Equal(t, e.Gap < resonance.StableThreshold, e.Stable, "steps=%d", e.Steps)
	}
	for steps := r.Min; steps <= r.Max; steps++ {
		assert.Equal(t, 1, seen[steps], "steps=%d", steps)
	}

	for _, target := range []int{104, 204} {
		e, ok := report.Find(target)
		require.True(t, ok)
		assert.Equal(t, target, e.Steps)
	}
}

func TestSweep_ParallelMatchesSequential(t *testing.T) {
	r := resonance.StepRange{Min: 80, Max: 100}
	seq, err := resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21))
	require.NoError(t, err)
	par, err := resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21), resonance.WithWorkers(6))
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestSweep_Progress(t *testing.T) {
	r := resonance.StepRange{Min: 20, Max: 31}
	var calls []int
	report, err := resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21),
		resonance.WithWorkers(3),
		resonance.WithProgress(func(e resonance.Entry, done, total int) {
			assert.Equal(t, r.Len(), total)
			calls = append(calls, done)
		}),
	)
	require.NoError(t, err)
	require.Len(t, calls, r.Len())
	for i, done := range calls {
		assert.Equal(t, i+1, done)
	}
	assert.Len(t, report.Entries, r.Len())
}

func TestSweep_Threshold(t *testing.T) {
	r := resonance.StepRange{Min: 40, Max: 50}
	report, err := resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21), resonance.WithThreshold(1e9))
	require.NoError(t, err)
	assert.Equal(t, 1e9, report.Threshold)
	assert.Len(t, report.StableEntries(), r.Len())

	report, err = resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21), resonance.WithThreshold(0))
	require.NoError(t, err)
	assert.Empty(t, report.StableEntries())
}

func TestSweep_Errors(t *testing.T) {
	_, err := resonance.Sweep(context.Background(), resonance.StepRange{Min: 2, Max: 10}, resonance.InverseEstimate(21))
	assert.True(t, errors.Is(err, resonance.ErrInvalidRange))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = resonance.Sweep(ctx, resonance.StepRange{Min: 80, Max: 90}, resonance.InverseEstimate(21), resonance.WithWorkers(2))
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)

	policy := resonance.DefaultRefinePolicy()
	policy.Coarse.Samples = 0
	_, err = resonance.Sweep(context.Background(), resonance.StepRange{Min: 80, Max: 90}, resonance.InverseEstimate(21), resonance.WithPolicy(policy))
	assert.True(t, errors.Is(err, resonance.ErrEmptySearchSpace), "got %v", err)
}

func TestReport_Helpers(t *testing.T) {
	report := &resonance.Report{
		Threshold: 0.5,
		Entries: []resonance.Entry{
			{Steps: 104, Bend: 0.2, Gap: 0.1, Stable: true},
			{Steps: 90, Bend: 0.23, Gap: 0.4, Stable: true},
			{Steps: 204, Bend: 0.1, Gap: 2.5},
		},
	}

	assert.Len(t, report.Top(2), 2)
	assert.Len(t, report.Top(15), 3)
	assert.Empty(t, report.Top(-1))
	assert.Equal(t, 104, report.Top(1)[0].Steps)

	e, ok := report.Find(204)
	require.True(t, ok)
	assert.Equal(t, 2.5, e.Gap)
	_, ok = report.Find(7)
	assert.False(t, ok)

	stable := report.StableEntries()
	require.Len(t, stable, 2)
	assert.Equal(t, []int{104, 90}, []int{stable[0].Steps, stable[1].Steps})
}

func BenchmarkSweep(b *testing.B) {
	r := resonance.StepRange{Min: 80, Max: 120}
	for n := 0; n < b.N; n++ {
		if _, err := resonance.Sweep(context.Background(), r, resonance.InverseEstimate(21), resonance.WithWorkers(4)); err != nil {
			b.Fatal(err)
		}
	}
}
