package stats

import "encoding/json"

// JSON state round-trips. Every internal field is reproduced exactly,
// so a decoded aggregate merges and answers queries identically to the
// one that was encoded. The encoding carries state, not statistics;
// derived values are recomputed from it on demand.

type minMaxState[T any] struct {
	Len uint64 `json:"len"`
	Min *T     `json:"min"`
	Max *T     `json:"max"`
}

// MarshalJSON encodes the tracker state.
func (m *MinMax[T]) MarshalJSON() ([]byte, error) {
	st := minMaxState[T]{Len: m.count}
	if m.nonZero {
		st.Min = &m.min
		st.Max = &m.max
	}
	return json.Marshal(st)
}

// UnmarshalJSON replaces the tracker state with the encoded one.
func (m *MinMax[T]) UnmarshalJSON(data []byte) error {
	var st minMaxState[T]
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	*m = MinMax[T]{count: st.Len}
	if st.Min != nil && st.Max != nil {
		m.min = *st.Min
		m.max = *st.Max
		m.nonZero = true
	}
	return nil
}

type onlineState struct {
	Size         uint64  `json:"size"`
	Mean         float64 `json:"mean"`
	Q            float64 `json:"q"`
	HarmonicSum  float64 `json:"harmonic_sum"`
	GeometricSum float64 `json:"geometric_sum"`
	HasZero      bool    `json:"has_zero"`
	HasNegative  bool    `json:"has_negative"`
}

// MarshalJSON encodes the accumulator state.
func (s *OnlineStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(onlineState{
		Size:         s.count,
		Mean:         s.mean,
		Q:            s.q,
		HarmonicSum:  s.harmonicSum,
		GeometricSum: s.geometricSum,
		HasZero:      s.hasZero,
		HasNegative:  s.hasNegative,
	})
}

// UnmarshalJSON replaces the accumulator state with the encoded one.
func (s *OnlineStats) UnmarshalJSON(data []byte) error {
	var st onlineState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	*s = OnlineStats{
		count:        st.Size,
		mean:         st.Mean,
		q:            st.Q,
		harmonicSum:  st.HarmonicSum,
		geometricSum: st.GeometricSum,
		hasZero:      st.HasZero,
		hasNegative:  st.HasNegative,
	}
	return nil
}

type unsortedState[T any] struct {
	Data   []T  `json:"data"`
	Sorted bool `json:"sorted"`
}

// MarshalJSON encodes the buffer and its sort flag.
func (u *Unsorted[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(unsortedState[T]{Data: u.data, Sorted: u.sorted})
}

// UnmarshalJSON replaces the buffer and sort flag with the encoded
// ones. The flag is trusted as encoded, mirroring the in-memory state
// at encode time.
func (u *Unsorted[T]) UnmarshalJSON(data []byte) error {
	var st unsortedState[T]
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	u.data = st.Data
	u.sorted = st.Sorted
	return nil
}
