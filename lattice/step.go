package lattice

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Seed returns the four vertices of the starting tetrahedron, shifted by
// offset.
func Seed(offset r3.Vec) [4]r3.Vec {
	return [4]r3.Vec{
		r3.Add(r3.Vec{X: 1, Y: 1, Z: 1}, offset),
		r3.Add(r3.Vec{X: 1, Y: -1, Z: -1}, offset),
		r3.Add(r3.Vec{X: -1, Y: 1, Z: -1}, offset),
		r3.Add(r3.Vec{X: -1, Y: -1, Z: 1}, offset),
	}
}

// Step computes the vertex that follows window, the four most recent
// points in generation order. window[0] is the old vertex; window[1:4] is
// the current face. theta is the already-modulated bend angle in radians.
//
// Step returns ErrDegenerateGeometry when theta is not finite or the hinge
// edge window[2]-window[1] is shorter than eps.
func Step(window [4]r3.Vec, theta, eps float64) (r3.Vec, error) {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return r3.Vec{}, fmt.Errorf("%w: bend angle %v", ErrDegenerateGeometry, theta)
	}

	face := window[1:]
	center := r3.Scale(1.0/3.0, r3.Add(r3.Add(face[0], face[1]), face[2]))
	direction := r3.Sub(window[0], center)

	edge := r3.Sub(face[1], face[0])
	length := r3.Norm(edge)
	// Written as a negated >= so a NaN length is rejected too.
	if !(length >= eps) || math.IsInf(length, 0) {
		return r3.Vec{}, fmt.Errorf("%w: hinge edge length %g", ErrDegenerateGeometry, length)
	}
	axis := r3.Scale(1/length, edge)

	return r3.Sub(center, rodrigues(direction, axis, theta)), nil
}

// rodrigues rotates v about the unit axis k by theta.
func rodrigues(v, k r3.Vec, theta float64) r3.Vec {
	sin, cos := math.Sincos(theta)
	rotated := r3.Scale(cos, v)
	rotated = r3.Add(rotated, r3.Scale(sin, r3.Cross(k, v)))
	return r3.Add(rotated, r3.Scale(r3.Dot(k, v)*(1-cos), k))
}
