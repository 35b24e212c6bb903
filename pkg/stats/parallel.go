package stats

import (
	"runtime"
	"slices"
	"sync"
)

// Data-parallel helpers for the lazy-sort aggregate. Each helper splits
// a slice into roughly equal chunks, one goroutine per chunk, and joins
// with a WaitGroup. The work items are pure and independent, so no
// synchronization beyond the join is needed.

// numChunks picks a chunk count for a slice of length n. At most one
// chunk per core, and never chunks so small they cost more to schedule
// than to process.
func numChunks(n int) int {
	p := runtime.GOMAXPROCS(0)
	if p > n {
		p = n
	}
	if p < 1 {
		p = 1
	}
	return p
}

// parallelSort sorts data with a stable merge sort: chunks are sorted
// concurrently, then merged pairwise round by round. Equal elements
// keep their relative order.
func parallelSort[T any](data []T, cmp func(a, b T) int) {
	n := len(data)
	p := numChunks(n)
	if p == 1 {
		slices.SortStableFunc(data, cmp)
		return
	}

	// Sort each chunk concurrently.
	bounds := chunkBounds(n, p)
	var wg sync.WaitGroup
	for i := 0; i+1 < len(bounds); i++ {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			slices.SortStableFunc(data[lo:hi], cmp)
		}(bounds[i], bounds[i+1])
	}
	wg.Wait()

	// Merge pairs of sorted runs until one run remains.
	buf := make([]T, n)
	src, dst := data, buf
	for len(bounds) > 2 {
		next := make([]int, 0, len(bounds)/2+2)
		var mg sync.WaitGroup
		i := 0
		for ; i+2 < len(bounds); i += 2 {
			lo, mid, hi := bounds[i], bounds[i+1], bounds[i+2]
			next = append(next, lo)
			mg.Add(1)
			go func(lo, mid, hi int) {
				defer mg.Done()
				mergeRuns(dst[lo:hi], src[lo:mid], src[mid:hi], cmp)
			}(lo, mid, hi)
		}
		// Odd run out: copy through unchanged.
		if i+1 < len(bounds) {
			lo, hi := bounds[i], bounds[i+1]
			next = append(next, lo)
			copy(dst[lo:hi], src[lo:hi])
		}
		next = append(next, n)
		mg.Wait()
		bounds = next
		src, dst = dst, src
	}
	if &src[0] != &data[0] {
		copy(data, src)
	}
}

// mergeRuns merges sorted runs a and b into dst. Ties take from a
// first, which is what keeps the overall sort stable.
func mergeRuns[T any](dst, a, b []T, cmp func(x, y T) int) {
	i, j := 0, 0
	for k := range dst {
		switch {
		case i >= len(a):
			dst[k] = b[j]
			j++
		case j >= len(b):
			dst[k] = a[i]
			i++
		case cmp(b[j], a[i]) < 0:
			dst[k] = b[j]
			j++
		default:
			dst[k] = a[i]
			i++
		}
	}
}

// chunkBounds splits [0, n) into p contiguous ranges, returning the
// p+1 boundary offsets.
func chunkBounds(n, p int) []int {
	bounds := make([]int, p+1)
	for i := 1; i < p; i++ {
		bounds[i] = i * n / p
	}
	bounds[p] = n
	return bounds
}

// parallelFill computes dst[i] = f(src[i]) across all cores.
func parallelFill[S, D any](dst []D, src []S, f func(S) D) {
	p := numChunks(len(src))
	bounds := chunkBounds(len(src), p)
	var wg sync.WaitGroup
	for i := 0; i+1 < len(bounds); i++ {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for j := lo; j < hi; j++ {
				dst[j] = f(src[j])
			}
		}(bounds[i], bounds[i+1])
	}
	wg.Wait()
}

// parallelAdjacentCount counts the adjacent pairs (data[i-1], data[i])
// for which pred is true, across all cores. Every chunk inspects the
// element just before its own range, so the two sides of each chunk
// boundary are still compared exactly once.
func parallelAdjacentCount[T any](data []T, pred func(a, b T) bool) int {
	n := len(data)
	if n < 2 {
		return 0
	}
	p := numChunks(n - 1)
	bounds := chunkBounds(n-1, p)
	counts := make([]int, p)
	var wg sync.WaitGroup
	for i := 0; i+1 < len(bounds); i++ {
		wg.Add(1)
		go func(idx, lo, hi int) {
			defer wg.Done()
			c := 0
			for j := lo; j < hi; j++ {
				if pred(data[j], data[j+1]) {
					c++
				}
			}
			counts[idx] = c
		}(i, bounds[i], bounds[i+1])
	}
	wg.Wait()
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
