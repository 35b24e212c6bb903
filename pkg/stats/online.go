package stats

import "math"

// OnlineStats computes mean, variance, standard deviation, harmonic
// mean and geometric mean of a stream in constant space.
//
// Mean and variance use Welford's incremental update, which avoids the
// catastrophic cancellation of accumulating sum(x) and sum(x^2)
// separately. Harmonic and geometric means are tracked through a
// reciprocal sum and a log sum, gated by zero/negative flags.
type OnlineStats struct {
	count        uint64
	mean         float64
	q            float64 // sum of squared deviations from the mean
	harmonicSum  float64
	geometricSum float64 // sum of ln(sample) over positive samples
	hasZero      bool
	hasNegative  bool
}

// NewOnlineStats returns the empty state: count, mean and variance all
// zero, every derived statistic NaN until samples arrive.
func NewOnlineStats() *OnlineStats {
	return &OnlineStats{}
}

// OnlineFromSlice builds an OnlineStats from a slice of numeric samples.
func OnlineFromSlice[T Number](samples []T) *OnlineStats {
	s := NewOnlineStats()
	for _, v := range samples {
		s.Add(float64(v))
	}
	return s
}

// Add records one sample in O(1).
func (s *OnlineStats) Add(sample float64) {
	oldmean := s.mean
	s.count++
	delta := sample - oldmean
	s.mean += delta / float64(s.count)
	delta2 := sample - s.mean
	s.q += delta * delta2

	if sample != 0 {
		s.harmonicSum += 1 / sample
	}

	switch {
	case sample == 0:
		s.hasZero = true
	case sample < 0:
		s.hasNegative = true
	default:
		s.geometricSum += math.Log(sample)
	}
}

// AddNull records a null as a zero-valued sample: the count grows, the
// mean and variance shift accordingly, and the zero flag is set.
func (s *OnlineStats) AddNull() {
	s.Add(0)
}

// Extend records every sample in the slice.
func (s *OnlineStats) Extend(samples []float64) {
	for _, v := range samples {
		s.Add(v)
	}
}

// Mean returns the running mean, or NaN if no samples have been added.
func (s *OnlineStats) Mean() float64 {
	if s.IsEmpty() {
		return math.NaN()
	}
	return s.mean
}

// Variance returns the population variance. On an empty state the
// division by zero yields NaN; callers distinguish "no data" from a
// genuine NaN with IsEmpty.
func (s *OnlineStats) Variance() float64 {
	return s.q / float64(s.count)
}

// StdDev returns the population standard deviation.
func (s *OnlineStats) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// HarmonicMean returns count / sum(1/x). It is NaN when the state is
// empty or when any zero or negative sample was ever seen, since the
// harmonic mean is undefined for zero-containing or mixed-sign data.
func (s *OnlineStats) HarmonicMean() float64 {
	if s.IsEmpty() || s.hasZero || s.hasNegative {
		return math.NaN()
	}
	return float64(s.count) / s.harmonicSum
}

// GeometricMean returns exp(sum(ln x) / count). It is NaN when the
// state is empty, 0 when any zero sample was seen, and NaN when any
// negative sample was seen or the log sum overflowed to a non-finite
// value.
func (s *OnlineStats) GeometricMean() float64 {
	switch {
	case s.IsEmpty():
		return math.NaN()
	case s.hasZero:
		return 0
	case s.hasNegative, math.IsInf(s.geometricSum, 0), math.IsNaN(s.geometricSum):
		return math.NaN()
	default:
		return math.Exp(s.geometricSum / float64(s.count))
	}
}

// Len returns the number of samples, nulls included.
func (s *OnlineStats) Len() int {
	return int(s.count)
}

// IsEmpty reports whether no samples have been added.
func (s *OnlineStats) IsEmpty() bool {
	return s.count == 0
}

// Merge combines another independently accumulated state into this one,
// producing the state a single pass over both sample sets would have
// reached (up to floating-point rounding; merge order can change the
// last few bits, never the math).
//
// The combined sum of squared deviations follows the parallel variance
// identity: q1 + q2 + (mean1-mean2)^2 * n1*n2/(n1+n2). Both the mean
// and the deviation updates go through fused multiply-add to keep one
// rounding step instead of two.
//
// Note: the zero flag is not taken from the other state, so a merged
// aggregate can under-report that zeros were ever seen. That matches
// the behavior locked in by TestOnlineStatsMergeZeroFlagNotPropagated.
func (s *OnlineStats) Merge(other *OnlineStats) {
	if other == nil || other.count == 0 {
		return
	}
	s1, s2 := float64(s.count), float64(other.count)
	meandiff := s.mean - other.mean
	meandiffsq := meandiff * meandiff

	s.count += other.count
	s.mean = math.FMA(s1, s.mean, s2*other.mean) / (s1 + s2)
	s.q += other.q + math.FMA(meandiffsq, s1*s2/(s1+s2), 0)

	s.harmonicSum += other.harmonicSum
	s.geometricSum += other.geometricSum
	s.hasNegative = s.hasNegative || other.hasNegative
}
