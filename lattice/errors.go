package lattice

import (
	"errors"
	"math"
)

// MaxSteps is the largest step count whose 4+steps points fit in an int.
const MaxSteps = math.MaxInt - 4

var (
	// ErrNegativeSteps indicates a negative step count.
	ErrNegativeSteps = errors.New("lattice: step count must be non-negative")
	// ErrTooManySteps indicates a step count whose point count overflows int.
	ErrTooManySteps = errors.New("lattice: step count too large")
	// ErrDegenerateGeometry indicates a near-zero hinge edge, a zero-area face
	// or a non-finite rotation angle.
	ErrDegenerateGeometry = errors.New("lattice: degenerate geometry")
	// ErrInsufficientLength indicates a lattice too short for closure metrics.
	ErrInsufficientLength = errors.New("lattice: closure needs at least 8 points")
)
