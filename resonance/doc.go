// Package resonance searches the bend-factor space for the values that
// close a lattice into a ring.
//
// Every search is plain grid sampling: an ordered list of candidate bend
// factors is evaluated and the first candidate with the strictly smallest
// closure gap wins. Refine layers a narrow second grid around the best
// coarse sample; it can miss an optimum that lies outside the coarse window,
// and that approximation is part of its contract.
//
// Built on Search:
//
//   - Sweep refines every step count of a range around an analytic
//     estimate (typically numerator/steps) and ranks the results.
//   - Compare scans a positive interval and its mirrored negative interval
//     for the same step count.
//   - ScanSteps measures gap and torsion across step counts at a fixed bend.
//
// Evaluations are independent, so Search, ScanSteps and Sweep can spread
// work across goroutines (WithWorkers). Results are identical to a
// sequential run. All long operations stop early when their context is
// cancelled.
package resonance
