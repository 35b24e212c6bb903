// Package stats provides mergeable descriptive-statistics aggregates.
//
// Every aggregate in this package is commutative: statistics computed
// over disjoint partitions of a dataset can be merged into the
// statistics of the union without re-scanning raw samples. The intended
// pattern is one aggregate instance per worker/partition, with a single
// coordinator merging partial results afterward. No aggregate is safe
// for concurrent mutation without external synchronization.
package stats

// Commute is the contract shared by all aggregates: Merge folds another
// aggregate of the same type into the receiver, so that the receiver
// represents the union of both underlying sample multisets.
//
// Merge is associative and commutative up to floating-point rounding,
// with the empty aggregate as identity. The merged-in aggregate must
// not be used afterward; Merge may steal its internal buffers.
type Commute[A any] interface {
	Merge(other A)
}

// MergeAll folds aggregates left-to-right with Merge and returns the
// combined result. The second return value is false when no aggregates
// are supplied, so callers can tell "no partitions" apart from "one
// empty partition".
func MergeAll[A Commute[A]](aggs ...A) (A, bool) {
	if len(aggs) == 0 {
		var zero A
		return zero, false
	}
	acc := aggs[0]
	for _, a := range aggs[1:] {
		acc.Merge(a)
	}
	return acc, true
}
