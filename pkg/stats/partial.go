package stats

import "golang.org/x/exp/constraints"

// Number is the sample constraint for aggregates that normalize values
// into the float64 domain (median, MAD, quartiles, moments).
type Number interface {
	constraints.Integer | constraints.Float
}

// Compare assigns a deterministic total order to sample values whose
// native ordering is only partial. For float samples, NaN compares
// before every other value and equal to itself. That placement is an
// arbitrary sort-enabling policy, not a numerically meaningful order;
// it exists so sort routines never see an inconsistent comparison.
func Compare[T Number](a, b T) int {
	aNaN := a != a
	bNaN := b != b
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func equal[T Number](a, b T) bool {
	return Compare(a, b) == 0
}
