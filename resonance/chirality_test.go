package resonance_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/trixle/resonance"
)

func TestCompare_Proton(t *testing.T) {
	positive := resonance.Interval{Low: 0.010, High: 0.020, Samples: 100}
	negative := resonance.Interval{Low: -0.020, High: -0.010, Samples: 100}

	cmp, err := resonance.Compare(context.Background(), 1836, positive, negative, resonance.WithWorkers(4))
	require.NoError(t, err)
	assert.Equal(t, 1836, cmp.Steps)
	assert.Greater(t, cmp.Positive.Bend, 0.0)
	assert.Less(t, cmp.Negative.Bend, 0.0)
	assert.Equal(t, 100, cmp.Positive.Evaluations)
	assert.Equal(t, 100, cmp.Negative.Evaluations)
}

func TestCompare_MirroredInterval(t *testing.T) {
	positive := resonance.Interval{Low: 0.1, High: 0.3, Samples: 9}
	negative := positive.Mirror()
	assert.Equal(t, -0.1, negative.Low)
	assert.Equal(t, -0.3, negative.High)

	cmp, err := resonance.Compare(context.Background(), 40, positive, negative)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cmp.Positive.Bend, 0.1)
	assert.LessOrEqual(t, cmp.Negative.Bend, -0.1)
}

func TestCompare_RejectsWrongSigns(t *testing.T) {
	good := resonance.Interval{Low: 0.01, High: 0.02, Samples: 5}
	tests := []struct {
		name     string
		pos, neg resonance.Interval
	}{
		{"positive touches zero", resonance.Interval{Low: 0, High: 0.02, Samples: 5}, good.Mirror()},
		{"negative crosses zero", good, resonance.Interval{Low: -0.02, High: 0.01, Samples: 5}},
		{"swapped", good.Mirror(), good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resonance.Compare(context.Background(), 100, tt.pos, tt.neg)
			assert.True(t, errors.Is(err, resonance.ErrChiralityRange), "got %v", err)
		})
	}
}

func TestCompare_EmptyInterval(t *testing.T) {
	pos := resonance.Interval{Low: 0.01, High: 0.02, Samples: 0}
	_, err := resonance.Compare(context.Background(), 100, pos, pos.Mirror())
	assert.True(t, errors.Is(err, resonance.ErrEmptySearchSpace), "got %v", err)
}
