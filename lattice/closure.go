package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MinClosureLen is the shortest lattice Closure accepts. Below it the first
// and last four-point windows overlap.
const MinClosureLen = 8

// ClosureReport holds the scalar diagnostics of one lattice.
type ClosureReport struct {
	// Gap is the distance between the centroids of the first and last four
	// points.
	Gap float64
	// TorsionDegrees is the angle in [0, 180] between the normal of the
	// first face (points 0,1,2) and that of the last face.
	TorsionDegrees float64
}

// Closure measures how nearly l closes into a loop.
func Closure(l *Lattice) (ClosureReport, error) {
	n := l.Len()
	if n < MinClosureLen {
		return ClosureReport{}, fmt.Errorf("%w: got %d", ErrInsufficientLength, n)
	}

	start := mean(l.points[:4])
	end := mean(l.points[n-4:])
	gap := r3.Norm(r3.Sub(end, start))

	nStart, err := faceNormal(l.points[0], l.points[1], l.points[2])
	if err != nil {
		return ClosureReport{}, fmt.Errorf("first face: %w", err)
	}
	nEnd, err := faceNormal(l.points[n-3], l.points[n-2], l.points[n-1])
	if err != nil {
		return ClosureReport{}, fmt.Errorf("last face: %w", err)
	}

	dot := math.Max(-1, math.Min(1, r3.Dot(nStart, nEnd)))
	torsion := math.Acos(dot) * 180 / math.Pi

	return ClosureReport{Gap: gap, TorsionDegrees: torsion}, nil
}

// Gap is Closure reduced to the closure gap.
func Gap(l *Lattice) (float64, error) {
	report, err := Closure(l)
	if err != nil {
		return 0, err
	}
	return report.Gap, nil
}

func faceNormal(p0, p1, p2 r3.Vec) (r3.Vec, error) {
	n := r3.Cross(r3.Sub(p1, p0), r3.Sub(p2, p0))
	length := r3.Norm(n)
	if !(length > 0) || math.IsInf(length, 0) {
		return r3.Vec{}, fmt.Errorf("%w: face normal length %g", ErrDegenerateGeometry, length)
	}
	return r3.Scale(1/length, n), nil
}
