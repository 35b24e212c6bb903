package stats

import "golang.org/x/exp/constraints"

// MinMax tracks the minimum and maximum of a sample stream, along with
// the sample count. It is the smallest commutative aggregate: an empty
// MinMax merged into anything leaves it unchanged.
type MinMax[T constraints.Ordered] struct {
	count   uint64
	min     T
	max     T
	nonZero bool // count > 0; min/max are meaningful only when set
}

// NewMinMax returns an empty tracker. Min and Max report no value until
// the first sample arrives.
func NewMinMax[T constraints.Ordered]() *MinMax[T] {
	return &MinMax[T]{}
}

// MinMaxOf builds a tracker from a slice of samples.
func MinMaxOf[T constraints.Ordered](samples []T) *MinMax[T] {
	m := NewMinMax[T]()
	m.Extend(samples)
	return m
}

// Add records one sample in O(1).
func (m *MinMax[T]) Add(sample T) {
	if !m.nonZero {
		m.min = sample
		m.max = sample
		m.nonZero = true
		m.count = 1
		return
	}
	m.count++
	if sample < m.min {
		m.min = sample
	}
	if sample > m.max {
		m.max = sample
	}
}

// Extend records every sample in the slice.
func (m *MinMax[T]) Extend(samples []T) {
	for _, s := range samples {
		m.Add(s)
	}
}

// Min returns the smallest sample seen. The second return value is
// false if and only if no samples have been added.
func (m *MinMax[T]) Min() (T, bool) {
	return m.min, m.nonZero
}

// Max returns the largest sample seen. The second return value is
// false if and only if no samples have been added.
func (m *MinMax[T]) Max() (T, bool) {
	return m.max, m.nonZero
}

// Len returns the number of samples.
func (m *MinMax[T]) Len() int {
	return int(m.count)
}

// IsEmpty reports whether no samples have been added.
func (m *MinMax[T]) IsEmpty() bool {
	return m.count == 0
}

// Merge folds another tracker into this one. An empty side contributes
// no min/max constraint, only its (zero) count.
func (m *MinMax[T]) Merge(other *MinMax[T]) {
	if other == nil || !other.nonZero {
		return
	}
	if !m.nonZero {
		m.count = other.count
		m.min = other.min
		m.max = other.max
		m.nonZero = true
		return
	}
	m.count += other.count
	if other.min < m.min {
		m.min = other.min
	}
	if other.max > m.max {
		m.max = other.max
	}
}
