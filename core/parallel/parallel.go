// Package parallel splits index ranges over goroutines.
//
// The metric map uses it to interpolate lattice points concurrently: every
// chunk writes disjoint grid cells, so no locking is required by callers
// that respect the [start, end) contract.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the item count below which work runs sequentially.
const DefaultThreshold = 256

// Parallelize divides items into one contiguous [start, end) chunk per CPU
// core and calls fn for each chunk concurrently. It returns when every
// chunk has finished.
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, runtime.NumCPU(), fn)
}

// ParallelizeN is Parallelize with an explicit worker count.
// workers <= 0 means runtime.NumCPU().
func ParallelizeN(items, workers int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}
	if workers == 1 {
		fn(0, items)
		return
	}

	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < items; start += chunkSize {
		end := min(start+chunkSize, items)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}
