// Package lattice builds tetrahedral helix lattices and measures how nearly
// they close into a loop.
//
// A lattice starts from the seed tetrahedron
//
//	(1,1,1) (1,-1,-1) (-1,1,-1) (-1,-1,1)
//
// and grows one vertex per step. Each new vertex is the previous "old"
// vertex reflected through the centre of the current face, after rotating
// the reflection vector about the face's hinge edge by the bend angle.
// With a zero bend the chain is the straight Boerdijk-Coxeter helix; a small
// positive or negative bend curls it into a ring.
//
// What:
//
//   - Generate builds a full, immutable Lattice.
//   - Walker streams the same points one at a time; a prefix never depends
//     on how far the walk is later extended.
//   - Step is the single recurrence step, usable as a frame-step by
//     animation callers.
//   - Closure reports the centroid gap and end-face torsion of a lattice.
//   - RadialProfile, MovingAverage, Cells, Spine, HexPacking and
//     GenerateStrands derive secondary structure for mesh builders.
//
// Errors:
//
//   - ErrNegativeSteps: a negative step count was requested.
//   - ErrDegenerateGeometry: a hinge edge or face collapsed, or the bend
//     angle is not finite.
//   - ErrInsufficientLength: Closure was called on fewer than 8 points.
package lattice
