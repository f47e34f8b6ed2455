package lattice

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// RadialProfile returns the distance of every point from the lattice
// centroid, in point order. On a closed ring the profile is flat; lobes and
// pinches show up as bumps.
func RadialProfile(l *Lattice) []float64 {
	center := l.Centroid()
	out := make([]float64, l.Len())
	for i, p := range l.points {
		out[i] = r3.Norm(r3.Sub(p, center))
	}
	return out
}

// MovingAverage smooths values with a box filter of the given width,
// keeping only fully overlapped positions, so the result has
// len(values)-window+1 entries. It returns nil when window is not positive
// or exceeds len(values).
func MovingAverage(values []float64, window int) []float64 {
	if window <= 0 || window > len(values) {
		return nil
	}
	out := make([]float64, len(values)-window+1)
	w := float64(window)
	for i := range out {
		out[i] = floats.Sum(values[i:i+window]) / w
	}
	return out
}
