package stats

import (
	"math"
	"slices"
)

const (
	// DefaultParallelThreshold is the buffer length above which the
	// lazy-sort aggregate switches its sort and scans to data-parallel
	// execution, unless a caller supplies a custom threshold.
	DefaultParallelThreshold = 10_000

	// MaxAntimodes caps how many antimode values are returned. The
	// reported count is still the true number of qualifying values;
	// only the value list is truncated.
	MaxAntimodes = 10
)

// Unsorted is a commutative aggregate over a buffered sample set. The
// buffer is kept in insertion order and only sorted, once per mutation
// batch, when a statistic that needs order is requested. From the
// sorted buffer it derives cardinality, median, MAD, quartiles, mode
// and antimodes.
//
// Float samples without a defined ordering (NaN) are sorted by the
// arbitrary-but-deterministic policy of Compare.
type Unsorted[T Number] struct {
	data   []T
	sorted bool
}

// NewUnsorted returns an empty aggregate. An empty buffer counts as
// sorted.
func NewUnsorted[T Number]() *Unsorted[T] {
	return &Unsorted[T]{sorted: true}
}

// UnsortedOf builds an aggregate from a slice of samples.
func UnsortedOf[T Number](samples []T) *Unsorted[T] {
	u := NewUnsorted[T]()
	u.Extend(samples)
	return u
}

// Add appends one sample and marks the buffer dirty.
func (u *Unsorted[T]) Add(sample T) {
	u.sorted = false
	u.data = append(u.data, sample)
}

// Extend appends every sample in the slice and marks the buffer dirty.
func (u *Unsorted[T]) Extend(samples []T) {
	if len(samples) == 0 {
		return
	}
	u.sorted = false
	u.data = append(u.data, samples...)
}

// Merge concatenates the other aggregate's buffer into this one and
// marks the buffer dirty. The other aggregate's buffer is stolen; do
// not use it afterward.
func (u *Unsorted[T]) Merge(other *Unsorted[T]) {
	u.sorted = false
	if other == nil {
		return
	}
	u.data = append(u.data, other.data...)
	other.data = nil
}

// Len returns the number of buffered samples.
func (u *Unsorted[T]) Len() int {
	return len(u.data)
}

// IsEmpty reports whether the buffer is empty.
func (u *Unsorted[T]) IsEmpty() bool {
	return len(u.data) == 0
}

// Sorted reports whether the buffer has been sorted since the last
// mutation.
func (u *Unsorted[T]) Sorted() bool {
	return u.sorted
}

// Sort brings the buffer into sorted order. No-op when already sorted;
// parallel above DefaultParallelThreshold.
func (u *Unsorted[T]) Sort() {
	if u.sorted {
		return
	}
	if len(u.data) > DefaultParallelThreshold {
		parallelSort(u.data, Compare[T])
	} else {
		slices.SortStableFunc(u.data, Compare[T])
	}
	u.sorted = true
}

// Cardinality returns the number of distinct values.
//
// assumeSorted asserts that the buffer is already in sorted order and
// skips the internal sort. Passing true for a buffer that is not
// actually sorted is a contract violation: the count will be wrong
// (the scan itself stays bounds-safe, so nothing worse happens).
//
// parallelThreshold selects the scan strategy:
//   - 0 forces a sequential scan;
//   - 1 goes parallel above DefaultParallelThreshold;
//   - 2 forces a parallel scan regardless of size;
//   - any other value is the minimum buffer length for going parallel.
func (u *Unsorted[T]) Cardinality(assumeSorted bool, parallelThreshold int) int {
	n := len(u.data)
	switch n {
	case 0:
		return 0
	case 1:
		return 1
	}

	if assumeSorted {
		u.sorted = true
	} else {
		u.Sort()
	}

	var parallel bool
	switch parallelThreshold {
	case 0:
		parallel = false
	case 1:
		parallel = n > DefaultParallelThreshold
	case 2:
		parallel = true
	default:
		parallel = n > parallelThreshold
	}

	if parallel {
		distinct := func(a, b T) bool { return !equal(a, b) }
		return parallelAdjacentCount(u.data, distinct) + 1
	}

	count := 1
	for i := 1; i < n; i++ {
		if !equal(u.data[i-1], u.data[i]) {
			count++
		}
	}
	return count
}

// Median returns the exact median as a float64. For an even-length
// buffer it is the average of the two central elements. The second
// return value is false for an empty buffer.
func (u *Unsorted[T]) Median() (float64, bool) {
	if len(u.data) == 0 {
		return 0, false
	}
	u.Sort()
	return medianOnSorted(u.data)
}

// MAD returns the median absolute deviation. When the caller already
// knows the median it can pass a pointer to it and the primary buffer
// is not sorted for that purpose; the deviations still get their own
// sort. The second return value is false for an empty buffer.
func (u *Unsorted[T]) MAD(precalcMedian *float64) (float64, bool) {
	if len(u.data) == 0 {
		return 0, false
	}
	var med float64
	if precalcMedian != nil {
		med = *precalcMedian
	} else {
		u.Sort()
		med, _ = medianOnSorted(u.data)
	}

	dev := make([]float64, len(u.data))
	absDev := func(v T) float64 { return math.Abs(med - float64(v)) }
	if len(u.data) > DefaultParallelThreshold {
		parallelFill(dev, u.data, absDev)
		parallelSort(dev, Compare[float64])
	} else {
		for i, v := range u.data {
			dev[i] = absDev(v)
		}
		slices.SortFunc(dev, Compare[float64])
	}
	return medianOnSorted(dev)
}

// Quartiles returns the exact Q1, Q2 and Q3 that divide the sorted
// buffer into four equal-weighted parts, averaging boundary pairs
// where a split lands between two elements. Fewer than three samples
// yield ok=false; exactly three yield the three raw values.
func (u *Unsorted[T]) Quartiles() (q1, q2, q3 float64, ok bool) {
	if len(u.data) == 0 {
		return 0, 0, 0, false
	}
	u.Sort()
	return quartilesOnSorted(u.data)
}

// Mode returns the unique most frequent value. There is no mode when
// no value repeats, or when several values tie for the highest
// frequency.
func (u *Unsorted[T]) Mode() (T, bool) {
	values, count, _ := u.Modes()
	if count != 1 {
		var zero T
		return zero, false
	}
	return values[0], true
}

// Modes returns all values tied at the highest frequency, in ascending
// order, with how many such values there are and the frequency itself.
// When no value occurs more than once there are no modes: (nil, 0, 0).
func (u *Unsorted[T]) Modes() (values []T, count, occurrence int) {
	if len(u.data) == 0 {
		return nil, 0, 0
	}
	u.Sort()

	maxFreq := 0
	forEachRun(u.data, func(_ T, freq int) {
		if freq > maxFreq {
			maxFreq = freq
		}
	})
	if maxFreq <= 1 {
		return nil, 0, 0
	}
	forEachRun(u.data, func(v T, freq int) {
		if freq == maxFreq {
			values = append(values, v)
		}
	})
	return values, len(values), maxFreq
}

// Antimodes returns the values tied at the lowest frequency, in
// ascending order. The value list is truncated to MaxAntimodes, but
// count reports the true number of qualifying values. occurrence is
// the lowest frequency (1 when any value is unique). An empty buffer
// yields (nil, 0, 0).
func (u *Unsorted[T]) Antimodes() (values []T, count, occurrence int) {
	if len(u.data) == 0 {
		return nil, 0, 0
	}
	u.Sort()

	minFreq := len(u.data) + 1
	forEachRun(u.data, func(_ T, freq int) {
		if freq < minFreq {
			minFreq = freq
		}
	})
	forEachRun(u.data, func(v T, freq int) {
		if freq == minFreq {
			if count < MaxAntimodes {
				values = append(values, v)
			}
			count++
		}
	})
	return values, count, minFreq
}

// forEachRun walks the maximal runs of equal adjacent values in sorted
// data, calling fn once per distinct value with the run length.
func forEachRun[T Number](data []T, fn func(value T, freq int)) {
	for i := 0; i < len(data); {
		j := i + 1
		for j < len(data) && equal(data[i], data[j]) {
			j++
		}
		fn(data[i], j-i)
		i = j
	}
}

func medianOnSorted[T Number](data []T) (float64, bool) {
	n := len(data)
	switch {
	case n == 0:
		return 0, false
	case n == 1:
		return float64(data[0]), true
	case n%2 == 0:
		v1 := float64(data[n/2-1])
		v2 := float64(data[n/2])
		return (v1 + v2) / 2, true
	default:
		return float64(data[n/2]), true
	}
}

func quartilesOnSorted[T Number](data []T) (q1, q2, q3 float64, ok bool) {
	n := len(data)
	switch {
	case n <= 2:
		return 0, 0, 0, false
	case n == 3:
		return float64(data[0]), float64(data[1]), float64(data[2]), true
	}

	at := func(i int) float64 { return float64(data[i]) }
	avg := func(i, j int) float64 { return (at(i) + at(j)) / 2 }

	r := n % 4
	k := (n - r) / 4
	switch r {
	case 0:
		// n = 4k: every quartile boundary falls between two elements.
		return avg(k-1, k), avg(2*k-1, 2*k), avg(3*k-1, 3*k), true
	case 1:
		// n = 4k+1: the median is a single element, Q1/Q3 are averages.
		return avg(k-1, k), at(2 * k), avg(3*k, 3*k+1), true
	case 2:
		// n = 4k+2: Q1/Q3 are single elements, the median is an average.
		return at(k), avg(2*k, 2*k+1), at(3*k + 1), true
	default:
		// n = 4k+3: all three land on single elements.
		return at(k), at(2*k + 1), at(3*k + 2), true
	}
}
