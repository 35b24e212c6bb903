package stats

import (
	"math/rand"
	"slices"
	"testing"
)

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []float64
		want float64
	}{
		{[]float64{3, 5, 7, 9}, 6},
		{[]float64{3, 5, 7}, 5},
		{[]float64{1, 2.5, 3}, 2.5},
		{[]float64{9, 3, 7, 5}, 6}, // order of insertion is irrelevant
		{[]float64{42}, 42},
	}
	for _, c := range cases {
		got, ok := Median(c.in)
		if !ok || got != c.want {
			t.Errorf("Median(%v) = %v, %v; want %v, true", c.in, got, ok, c.want)
		}
	}

	if _, ok := Median([]float64(nil)); ok {
		t.Error("Median of empty input should report no value")
	}
}

func TestMAD(t *testing.T) {
	if got, ok := MAD([]int{3, 5, 7, 9}, nil); !ok || got != 2 {
		t.Errorf("MAD([3 5 7 9]) = %v, %v; want 2, true", got, ok)
	}

	big := []int{
		86, 60, 95, 39, 49, 12, 56, 82, 92, 24, 33, 28, 46, 34, 100, 39, 100, 38,
		50, 61, 39, 88, 5, 13, 64,
	}
	if got, _ := MAD(big, nil); got != 16 {
		t.Errorf("MAD(big) = %v; want 16", got)
	}

	if _, ok := MAD([]int(nil), nil); ok {
		t.Error("MAD of empty input should report no value")
	}
}

func TestMADPrecalcMedian(t *testing.T) {
	data := []int{3, 5, 7, 9}
	med, _ := Median(data)
	if got, _ := MAD(data, &med); got != 2 {
		t.Errorf("MAD with precalculated median = %v; want 2", got)
	}

	big := []int{
		86, 60, 95, 39, 49, 12, 56, 82, 92, 24, 33, 28, 46, 34, 100, 39, 100, 38,
		50, 61, 39, 88, 5, 13, 64,
	}
	med2, _ := Median(big)
	if got, _ := MAD(big, &med2); got != 16 {
		t.Errorf("MAD(big) with precalculated median = %v; want 16", got)
	}
}

func TestQuartiles(t *testing.T) {
	cases := []struct {
		in         []int
		q1, q2, q3 float64
	}{
		{[]int{3, 5, 7}, 3, 5, 7},
		{[]int{3, 5, 7, 9}, 4, 6, 8},
		{[]int{1, 2, 7, 11}, 1.5, 4.5, 9},
		{[]int{3, 5, 7, 9, 12}, 4, 7, 10.5},
		{[]int{2, 2, 3, 8, 10}, 2, 3, 9},
		{[]int{3, 5, 7, 9, 12, 20}, 5, 8, 12},
		{[]int{0, 2, 4, 8, 10, 11}, 2, 6, 10},
		{[]int{3, 5, 7, 9, 12, 20, 21}, 5, 9, 20},
		{[]int{1, 5, 6, 6, 7, 10, 19}, 5, 6, 10},
	}
	for _, c := range cases {
		q1, q2, q3, ok := Quartiles(c.in)
		if !ok || q1 != c.q1 || q2 != c.q2 || q3 != c.q3 {
			t.Errorf("Quartiles(%v) = (%v, %v, %v), %v; want (%v, %v, %v), true",
				c.in, q1, q2, q3, ok, c.q1, c.q2, c.q3)
		}
	}

	for _, short := range [][]int{nil, {1}, {1, 2}} {
		if _, _, _, ok := Quartiles(short); ok {
			t.Errorf("Quartiles(%v) should report no value", short)
		}
	}
}

func TestMode(t *testing.T) {
	if _, ok := Mode([]int{3, 5, 7, 9}); ok {
		t.Error("Mode of all-distinct data should report no value")
	}
	if v, ok := Mode([]int{3, 3, 3, 3}); !ok || v != 3 {
		t.Errorf("Mode([3 3 3 3]) = %v, %v; want 3, true", v, ok)
	}
	if v, ok := Mode([]int{3, 3, 3, 4}); !ok || v != 3 {
		t.Errorf("Mode([3 3 3 4]) = %v, %v; want 3, true", v, ok)
	}
	if v, ok := Mode([]int{4, 3, 3, 3}); !ok || v != 3 {
		t.Errorf("Mode([4 3 3 3]) = %v, %v; want 3, true", v, ok)
	}
	// Ties never yield a unique mode.
	if _, ok := Mode([]int{1, 1, 2, 3, 3}); ok {
		t.Error("Mode with a frequency tie should report no value")
	}
	if _, ok := Mode([]float64{1, 1, 2, 2, 3}); ok {
		t.Error("Mode with a frequency tie should report no value")
	}
}

func TestModes(t *testing.T) {
	cases := []struct {
		in         []int
		values     []int
		count, occ int
	}{
		{[]int{3, 5, 7, 9}, nil, 0, 0},
		{[]int{3, 3, 3, 3}, []int{3}, 1, 4},
		{[]int{3, 3, 4, 4}, []int{3, 4}, 2, 2},
		{[]int{4, 3, 3, 3}, []int{3}, 1, 3},
		{[]int{1, 1, 2, 2}, []int{1, 2}, 2, 2},
		{[]int{1, 1, 2, 2, 3}, []int{1, 2}, 2, 2},
		{[]int{1, 1, 2, 3, 3}, []int{1, 3}, 2, 2},
		{nil, nil, 0, 0},
	}
	for _, c := range cases {
		values, count, occ := Modes(c.in)
		if !slices.Equal(values, c.values) || count != c.count || occ != c.occ {
			t.Errorf("Modes(%v) = (%v, %d, %d); want (%v, %d, %d)",
				c.in, values, count, occ, c.values, c.count, c.occ)
		}
	}
}

func TestAntimodes(t *testing.T) {
	cases := []struct {
		in         []int
		values     []int
		count, occ int
	}{
		{[]int{3, 5, 7, 9}, []int{3, 5, 7, 9}, 4, 1},
		{[]int{1, 3, 3, 3}, []int{1}, 1, 1},
		{[]int{3, 3, 4, 4}, []int{3, 4}, 2, 2},
		{[]int{3, 3, 3, 4}, []int{4}, 1, 1},
		{[]int{4, 3, 3, 3}, []int{4}, 1, 1},
		{[]int{1, 1, 2, 2}, []int{1, 2}, 2, 2},
		{[]int{1, 1, 2, 2, 3}, []int{3}, 1, 1},
		{[]int{1, 1, 2, 3, 3}, []int{2}, 1, 1},
		{nil, nil, 0, 0},
	}
	for _, c := range cases {
		values, count, occ := Antimodes(c.in)
		if !slices.Equal(values, c.values) || count != c.count || occ != c.occ {
			t.Errorf("Antimodes(%v) = (%v, %d, %d); want (%v, %d, %d)",
				c.in, values, count, occ, c.values, c.count, c.occ)
		}
	}
}

func TestAntimodesTruncation(t *testing.T) {
	// 13 all-distinct values: every one is an antimode, only the first
	// 10 are returned, the count reports all 13.
	values, count, occ := Antimodes([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13})
	if !slices.Equal(values, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}) || count != 13 || occ != 1 {
		t.Errorf("Antimodes(13 distinct) = (%v, %d, %d); want (first 10, 13, 1)", values, count, occ)
	}

	// 13 doubled values, in order and shuffled: same answer.
	pairs := []int{3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15}
	shuffled := []int{3, 3, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 4, 4, 5, 5, 6, 6, 7, 7, 13, 13, 14, 14, 15, 15}
	for _, in := range [][]int{pairs, shuffled} {
		values, count, occ = Antimodes(in)
		if !slices.Equal(values, []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}) || count != 13 || occ != 2 {
			t.Errorf("Antimodes(%v) = (%v, %d, %d); want (3..12, 13, 2)", in, values, count, occ)
		}
	}
}

func TestAntimodesSingleDistinctValue(t *testing.T) {
	// One distinct value is both the mode and the sole antimode.
	values, count, occ := Antimodes([]int{3, 3, 3, 3})
	if !slices.Equal(values, []int{3}) || count != 1 || occ != 4 {
		t.Errorf("Antimodes([3 3 3 3]) = (%v, %d, %d); want ([3], 1, 4)", values, count, occ)
	}
}

func TestCardinality(t *testing.T) {
	cases := []struct {
		in   []int
		want int
	}{
		{nil, 0},
		{[]int{5}, 1},
		{[]int{1, 2, 3, 4, 5}, 5},
		{[]int{1, 2, 2, 3, 3, 3, 4, 4, 4, 4}, 4},
	}
	for _, c := range cases {
		if got := Cardinality(c.in); got != c.want {
			t.Errorf("Cardinality(%v) = %d; want %d", c.in, got, c.want)
		}
	}

	allSame := make([]int, 100)
	for i := range allSame {
		allSame[i] = 1
	}
	if got := Cardinality(allSame); got != 1 {
		t.Errorf("Cardinality(100 equal values) = %d; want 1", got)
	}
}

func TestCardinalityThresholdSelector(t *testing.T) {
	n := 50_000
	samples := make([]int, n)
	for i := range samples {
		samples[i] = i
	}

	// Sequential, default threshold, forced parallel, custom threshold:
	// the strategy must never change the answer.
	for _, threshold := range []int{0, 1, 2, 25_000, 200_000} {
		u := UnsortedOf(samples)
		if got := u.Cardinality(false, threshold); got != n {
			t.Errorf("Cardinality(false, %d) = %d; want %d", threshold, got, n)
		}
	}
}

func TestCardinalityAssumeSorted(t *testing.T) {
	u := UnsortedOf([]int{1, 2, 3, 4, 5})
	u.Sort()
	if got := u.Cardinality(true, 1); got != 5 {
		t.Errorf("Cardinality(true, 1) on sorted buffer = %d; want 5", got)
	}
}

func TestCardinalityFloatsAndDuplicates(t *testing.T) {
	u := UnsortedOf([]float64{1, 1, 2, 3, 3, 4})
	if got := u.Cardinality(false, 1); got != 4 {
		t.Errorf("Cardinality = %d; want 4", got)
	}
}

func TestSortFlagTransitions(t *testing.T) {
	u := NewUnsorted[int]()
	if !u.Sorted() {
		t.Error("empty buffer should start sorted")
	}
	u.Add(3)
	if u.Sorted() {
		t.Error("Add must mark the buffer dirty")
	}
	u.Sort()
	if !u.Sorted() {
		t.Error("Sort must mark the buffer sorted")
	}
	u.Merge(UnsortedOf([]int{1}))
	if u.Sorted() {
		t.Error("Merge must mark the buffer dirty")
	}
	if _, ok := u.Median(); !ok {
		t.Fatal("Median of non-empty buffer reported no value")
	}
	if !u.Sorted() {
		t.Error("a statistic query must leave the buffer sorted")
	}
}

func TestUnsortedMergePartitions(t *testing.T) {
	a := []int{9, 1, 4, 4, 7}
	b := []int{2, 4, 8, 8}

	whole := UnsortedOf(append(slices.Clone(a), b...))
	merged := UnsortedOf(a)
	merged.Merge(UnsortedOf(b))

	wantMed, _ := whole.Median()
	gotMed, _ := merged.Median()
	if gotMed != wantMed {
		t.Errorf("merged Median() = %v; want %v", gotMed, wantMed)
	}
	if got, want := merged.Cardinality(false, 1), whole.Cardinality(false, 1); got != want {
		t.Errorf("merged Cardinality() = %d; want %d", got, want)
	}
	gotMode, gotOK := merged.Mode()
	wantMode, wantOK := whole.Mode()
	if gotOK != wantOK || gotMode != wantMode {
		t.Errorf("merged Mode() = %v, %v; want %v, %v", gotMode, gotOK, wantMode, wantOK)
	}
}

func TestMergeAllUnsorted(t *testing.T) {
	if _, ok := MergeAll[*Unsorted[int]](); ok {
		t.Error("MergeAll with no aggregates should report no result")
	}

	single := UnsortedOf([]int{2, 1, 2})
	got, ok := MergeAll(single)
	if !ok || got != single {
		t.Error("MergeAll of a single aggregate should return it unchanged")
	}
	if got.Len() != 3 {
		t.Errorf("Len() = %d; want 3", got.Len())
	}
}

func TestParallelSortMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := DefaultParallelThreshold*2 + 17
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(rng.Intn(500))
	}

	want := slices.Clone(samples)
	slices.Sort(want)

	u := UnsortedOf(samples)
	u.Sort()
	for i, v := range want {
		if u.data[i] != v {
			t.Fatalf("parallel sort diverged from sequential sort at index %d: %v != %v", i, u.data[i], v)
		}
	}

	// Statistics over the large buffer agree with the sequential path.
	med, _ := u.Median()
	seqMed, _ := medianOnSorted(want)
	if med != seqMed {
		t.Errorf("Median() = %v; want %v", med, seqMed)
	}
}
