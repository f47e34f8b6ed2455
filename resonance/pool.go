package resonance

import (
	"context"
	"sync"
)

// parallelThreshold is the minimum item count worth spreading across
// workers. Below this a single goroutine is faster.
const parallelThreshold = 8

// forEach calls fn for every index in [0, n). With more than one worker the
// range is cut into contiguous chunks, one per worker. fn must only write
// state owned by its index.
//
// The returned slice holds fn's error per index. Once ctx is done a worker
// records ctx.Err() at its current index and abandons the rest of its chunk,
// so the first non-nil entry in index order is always the error a
// sequential loop would have stopped at.
func forEach(ctx context.Context, n, workers int, fn func(i int) error) []error {
	errs := make([]error, n)
	if workers <= 1 || n < parallelThreshold {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				break
			}
			if errs[i] = fn(i); errs[i] != nil {
				break
			}
		}
		return errs
	}

	if workers > n {
		workers = n
	}
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i0, i1 int) {
			defer wg.Done()
			for i := i0; i < i1; i++ {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					return
				}
				if errs[i] = fn(i); errs[i] != nil {
					return
				}
			}
		}(start, end)
	}
	wg.Wait()
	return errs
}

// firstError returns the lowest-index error in errs.
func firstError(errs []error) (int, error) {
	for i, err := range errs {
		if err != nil {
			return i, err
		}
	}
	return -1, nil
}
