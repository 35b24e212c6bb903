package stats

// Slice-level convenience wrappers over the lazy-sort aggregate, for
// callers with all samples already in hand.

// Median computes the exact median of samples. O(n log n) time,
// O(n) space.
func Median[T Number](samples []T) (float64, bool) {
	return UnsortedOf(samples).Median()
}

// MAD computes the median absolute deviation of samples, reusing
// precalcMedian when the caller already has the median.
func MAD[T Number](samples []T, precalcMedian *float64) (float64, bool) {
	return UnsortedOf(samples).MAD(precalcMedian)
}

// Quartiles computes the exact Q1, Q2 and Q3 of samples.
func Quartiles[T Number](samples []T) (q1, q2, q3 float64, ok bool) {
	return UnsortedOf(samples).Quartiles()
}

// Mode computes the unique most frequent value of samples, if one
// exists.
func Mode[T Number](samples []T) (T, bool) {
	return UnsortedOf(samples).Mode()
}

// Modes computes all values tied at the highest frequency.
func Modes[T Number](samples []T) (values []T, count, occurrence int) {
	return UnsortedOf(samples).Modes()
}

// Antimodes computes the values tied at the lowest frequency, capped
// to MaxAntimodes values.
func Antimodes[T Number](samples []T) (values []T, count, occurrence int) {
	return UnsortedOf(samples).Antimodes()
}

// Cardinality computes the number of distinct values in samples.
func Cardinality[T Number](samples []T) int {
	return UnsortedOf(samples).Cardinality(false, 1)
}
