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

func TestScanSteps_Torsion(t *testing.T) {
	r := resonance.StepRange{Min: 130, Max: 144}
	samples, err := resonance.ScanSteps(context.Background(), r, 0.1555, resonance.WithWorkers(4))
	require.NoError(t, err)
	require.Len(t, samples, r.Len())
	for i, s := range samples {
		assert.Equal(t, r.Min+i, s.Steps)
		assert.GreaterOrEqual(t, s.Gap, 0.0)
		assert.GreaterOrEqual(t, s.TorsionDegrees, 0.0)
		assert.LessOrEqual(t, s.TorsionDegrees, 180.0)
	}

	seq, err := resonance.ScanSteps(context.Background(), r, 0.1555)
	require.NoError(t, err)
	assert.Equal(t, seq, samples)
}

func TestScanSteps_NeutrinoPrefersShortest(t *testing.T) {
	// At zero bend the gap never shrinks as the chain grows, so the first
	// step count wins.
	samples, err := resonance.ScanSteps(context.Background(), resonance.StepRange{Min: 4, Max: 12}, 0)
	require.NoError(t, err)
	best, ok := resonance.BestStep(samples)
	require.True(t, ok)
	assert.Equal(t, 4, best.Steps)
}

func TestScanSteps_Errors(t *testing.T) {
	_, err := resonance.ScanSteps(context.Background(), resonance.StepRange{Min: 0, Max: 8}, 0.1)
	assert.True(t, errors.Is(err, resonance.ErrInvalidRange))

	_, err = resonance.ScanSteps(context.Background(), resonance.StepRange{Min: 4, Max: 12}, math.NaN())
	assert.True(t, errors.Is(err, lattice.ErrDegenerateGeometry), "got %v", err)
	assert.Contains(t, err.Error(), "steps 4:")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = resonance.ScanSteps(ctx, resonance.StepRange{Min: 4, Max: 40}, 0.1, resonance.WithWorkers(4))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestBestStep(t *testing.T) {
	_, ok := resonance.BestStep(nil)
	assert.False(t, ok)

	best, ok := resonance.BestStep([]resonance.StepSample{
		{Steps: 5, Gap: 3},
		{Steps: 6, Gap: 1},
		{Steps: 7, Gap: 1},
		{Steps: 8, Gap: 2},
	})
	require.True(t, ok)
	assert.Equal(t, 6, best.Steps)
}
