package resonance_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/trixle/lattice"
	"github.com/pthm-cable/trixle/resonance"
)

func TestLinspace(t *testing.T) {
	tests := []struct {
		name      string
		low, high float64
		n         int
		want      []float64
	}{
		{"five", 0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
		{"descending", -0.010, -0.020, 3, []float64{-0.010, -0.015, -0.020}},
		{"single", 0.3, 0.9, 1, []float64{0.3}},
		{"empty", 0.3, 0.9, 0, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resonance.Linspace(tt.low, tt.high, tt.n)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-12)
			}
		})
	}

	_, err := resonance.Linspace(0, 1, -1)
	assert.True(t, errors.Is(err, resonance.ErrInvalidSamples))
	_, err = resonance.Linspace(math.NaN(), 1, 4)
	assert.True(t, errors.Is(err, resonance.ErrInvalidRange))
	_, err = resonance.Linspace(0, math.Inf(1), 4)
	assert.True(t, errors.Is(err, resonance.ErrInvalidRange))
}

func TestSearch_EmptySearchSpace(t *testing.T) {
	_, err := resonance.Search(context.Background(), resonance.GapObjective(20), nil)
	assert.True(t, errors.Is(err, resonance.ErrEmptySearchSpace))
}

func TestSearch_TieBreakFirstWins(t *testing.T) {
	abs := func(b float64) (float64, error) { return math.Abs(b), nil }

	got, err := resonance.Search(context.Background(), abs, []float64{3, 1, -1, 2, 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Bend)
	assert.Equal(t, 1.0, got.Gap)

	flat := func(float64) (float64, error) { return 7, nil }
	candidates, err := resonance.Linspace(0.1, 0.9, 32)
	require.NoError(t, err)
	for _, workers := range []int{1, 4} {
		got, err := resonance.Search(context.Background(), flat, candidates, resonance.WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, candidates[0], got.Bend, "workers=%d", workers)
	}
}

func TestSearch_ObjectiveErrors(t *testing.T) {
	errBoom := errors.New("boom")
	candidates, err := resonance.Linspace(0, 1, 20)
	require.NoError(t, err)
	failing := func(b float64) (float64, error) {
		if b == candidates[5] || b == candidates[15] {
			return 0, errBoom
		}
		return b, nil
	}

	_, seqErr := resonance.Search(context.Background(), failing, candidates)
	require.True(t, errors.Is(seqErr, errBoom))

	_, parErr := resonance.Search(context.Background(), failing, candidates, resonance.WithWorkers(4))
	require.True(t, errors.Is(parErr, errBoom))
	assert.Equal(t, seqErr.Error(), parErr.Error())

	nan := func(float64) (float64, error) { return math.NaN(), nil }
	_, err = resonance.Search(context.Background(), nan, candidates)
	assert.True(t, errors.Is(err, resonance.ErrInvalidObjective))

	_, err = resonance.Search(context.Background(), resonance.GapObjective(10), []float64{math.NaN()})
	assert.True(t, errors.Is(err, lattice.ErrDegenerateGeometry), "got %v", err)
}

func TestSearch_ParallelMatchesSequential(t *testing.T) {
	candidates, err := resonance.Linspace(0.05, 0.50, 64)
	require.NoError(t, err)
	objective := resonance.GapObjective(136)

	seq, err := resonance.Search(context.Background(), objective, candidates, resonance.WithSamples())
	require.NoError(t, err)
	par, err := resonance.Search(context.Background(), objective, candidates, resonance.WithSamples(), resonance.WithWorkers(4))
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	require.Len(t, seq.Samples, 64)
	for _, s := range seq.Samples {
		assert.GreaterOrEqual(t, s.Gap, seq.Gap)
	}
}

func TestSearch_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	candidates, err := resonance.Linspace(0.001, 0.02, 100)
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		_, err := resonance.Search(ctx, resonance.GapObjective(1836), candidates, resonance.WithWorkers(workers))
		assert.True(t, errors.Is(err, context.Canceled), "workers=%d: got %v", workers, err)
	}
}

func TestSearch_ProtonTune(t *testing.T) {
	candidates, err := resonance.Linspace(0.001, 0.02, 100)
	require.NoError(t, err)

	got, err := resonance.Search(context.Background(), resonance.GapObjective(1836), candidates, resonance.WithWorkers(4))
	require.NoError(t, err)
	assert.Less(t, got.Gap, 5.0, "proton resonance at bend %g", got.Bend)
	assert.GreaterOrEqual(t, got.Bend, 0.001)
	assert.LessOrEqual(t, got.Bend, 0.02)
	assert.Equal(t, 100, got.Evaluations)
}

func TestRefine_NeverWorseThanCoarse(t *testing.T) {
	for _, steps := range []int{104, 122, 136, 204} {
		ref, err := resonance.Refine(context.Background(), resonance.GapObjective(steps), 21.0/float64(steps), resonance.DefaultRefinePolicy())
		require.NoError(t, err)
		assert.LessOrEqual(t, ref.Best.Gap, ref.Coarse.Gap, "steps=%d", steps)
		assert.Equal(t, math.Min(ref.Coarse.Gap, ref.Fine.Gap), ref.Best.Gap)
		assert.Equal(t, 60, ref.Best.Evaluations)
	}
}

func TestRefine_TiesKeepCoarse(t *testing.T) {
	flat := func(float64) (float64, error) { return 1, nil }
	ref, err := resonance.Refine(context.Background(), flat, 0.2, resonance.DefaultRefinePolicy(), resonance.WithSamples())
	require.NoError(t, err)
	assert.InDelta(t, 0.1, ref.Best.Bend, 1e-15)
	assert.Equal(t, ref.Coarse.Bend, ref.Best.Bend)
	assert.Len(t, ref.Best.Samples, 60)
}

func TestRefine_EmptyWindow(t *testing.T) {
	policy := resonance.DefaultRefinePolicy()
	policy.Fine.Samples = 0
	_, err := resonance.Refine(context.Background(), resonance.GapObjective(50), 0.4, policy)
	assert.True(t, errors.Is(err, resonance.ErrEmptySearchSpace), "got %v", err)
}

func BenchmarkSearch(b *testing.B) {
	candidates, err := resonance.Linspace(0.001, 0.02, 100)
	if err != nil {
		b.Fatal(err)
	}
	objective := resonance.GapObjective(1836)
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		if _, err := resonance.Search(context.Background(), objective, candidates); err != nil {
			b.Fatal(err)
		}
	}
}
