// Package describe computes per-column descriptive statistics over
// sample streams by fanning records out to partition workers, each
// owning its own aggregates, and merging the partial results. The
// merge-based design means adding partitions changes wall-clock time,
// not answers.
package describe

import (
	"encoding/json"
	"math"

	"github.com/jqnatividad/qsv-stats/pkg/stats"
)

// ColumnAggregate bundles the three aggregates tracked for one column:
// min/max, streaming moments, and the lazy-sort buffer. It is itself
// commutative, so partition-level column state merges like any other
// aggregate.
//
// Not safe for concurrent mutation; each partition worker owns its own
// instance.
type ColumnAggregate struct {
	name     string
	minmax   *stats.MinMax[float64]
	online   *stats.OnlineStats
	unsorted *stats.Unsorted[float64]
	nulls    uint64
}

// NewColumnAggregate returns empty column state.
func NewColumnAggregate(name string) *ColumnAggregate {
	return &ColumnAggregate{
		name:     name,
		minmax:   stats.NewMinMax[float64](),
		online:   stats.NewOnlineStats(),
		unsorted: stats.NewUnsorted[float64](),
	}
}

// Name returns the column name.
func (c *ColumnAggregate) Name() string {
	return c.name
}

// Add records one sample in every aggregate.
func (c *ColumnAggregate) Add(v float64) {
	c.minmax.Add(v)
	c.online.Add(v)
	c.unsorted.Add(v)
}

// AddNull records a missing value. Nulls count toward the mean and
// variance as zeros but contribute nothing to order statistics.
func (c *ColumnAggregate) AddNull() {
	c.nulls++
	c.online.AddNull()
}

// Len returns the number of non-null samples.
func (c *ColumnAggregate) Len() int {
	return c.minmax.Len()
}

// Merge folds another column's state into this one. The other state
// must not be used afterward.
func (c *ColumnAggregate) Merge(other *ColumnAggregate) {
	if other == nil {
		return
	}
	c.minmax.Merge(other.minmax)
	c.online.Merge(other.online)
	c.unsorted.Merge(other.unsorted)
	c.nulls += other.nulls
}

// ColumnStats is the queryable readout of a column aggregate. Optional
// fields are nil when the statistic is undefined for the data seen
// (empty column, zero/negative samples, no unique mode, ...), so the
// struct always marshals to valid JSON.
type ColumnStats struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
	Nulls  int    `json:"nulls"`

	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	Mean          *float64 `json:"mean,omitempty"`
	Variance      *float64 `json:"variance,omitempty"`
	StdDev        *float64 `json:"stddev,omitempty"`
	HarmonicMean  *float64 `json:"harmonic_mean,omitempty"`
	GeometricMean *float64 `json:"geometric_mean,omitempty"`

	Median *float64 `json:"median,omitempty"`
	MAD    *float64 `json:"mad,omitempty"`
	Q1     *float64 `json:"q1,omitempty"`
	Q2     *float64 `json:"q2,omitempty"`
	Q3     *float64 `json:"q3,omitempty"`

	Cardinality int `json:"cardinality"`

	Mode               *float64  `json:"mode,omitempty"`
	Modes              []float64 `json:"modes,omitempty"`
	ModeCount          int       `json:"mode_count"`
	ModeOccurrences    int       `json:"mode_occurrences"`
	Antimodes          []float64 `json:"antimodes,omitempty"`
	AntimodeCount      int       `json:"antimode_count"`
	AntimodeOccurrence int       `json:"antimode_occurrences"`
}

// Stats computes the full readout. The first call after a mutation
// sorts the sample buffer; repeated calls reuse the sorted order.
func (c *ColumnAggregate) Stats() ColumnStats {
	cs := ColumnStats{
		Column: c.name,
		Count:  c.unsorted.Len(),
		Nulls:  int(c.nulls),
	}

	if v, ok := c.minmax.Min(); ok {
		cs.Min = &v
	}
	if v, ok := c.minmax.Max(); ok {
		cs.Max = &v
	}

	cs.Mean = finite(c.online.Mean())
	cs.Variance = finite(c.online.Variance())
	cs.StdDev = finite(c.online.StdDev())
	cs.HarmonicMean = finite(c.online.HarmonicMean())
	cs.GeometricMean = finite(c.online.GeometricMean())

	if med, ok := c.unsorted.Median(); ok {
		cs.Median = &med
		if mad, ok := c.unsorted.MAD(&med); ok {
			cs.MAD = finite(mad)
		}
	}
	if q1, q2, q3, ok := c.unsorted.Quartiles(); ok {
		cs.Q1, cs.Q2, cs.Q3 = &q1, &q2, &q3
	}

	cs.Cardinality = c.unsorted.Cardinality(false, 1)

	if mode, ok := c.unsorted.Mode(); ok {
		cs.Mode = &mode
	}
	cs.Modes, cs.ModeCount, cs.ModeOccurrences = c.unsorted.Modes()
	cs.Antimodes, cs.AntimodeCount, cs.AntimodeOccurrence = c.unsorted.Antimodes()

	return cs
}

// finite returns a pointer to v, or nil for NaN/Inf so the value never
// reaches a JSON encoder.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type columnState struct {
	Name     string                   `json:"name"`
	MinMax   *stats.MinMax[float64]   `json:"minmax"`
	Online   *stats.OnlineStats       `json:"online"`
	Unsorted *stats.Unsorted[float64] `json:"unsorted"`
	Nulls    uint64                   `json:"nulls"`
}

// MarshalJSON encodes the full column state so that a decoded copy
// merges and answers queries identically.
func (c *ColumnAggregate) MarshalJSON() ([]byte, error) {
	return json.Marshal(columnState{
		Name:     c.name,
		MinMax:   c.minmax,
		Online:   c.online,
		Unsorted: c.unsorted,
		Nulls:    c.nulls,
	})
}

// UnmarshalJSON replaces the column state with the encoded one.
func (c *ColumnAggregate) UnmarshalJSON(data []byte) error {
	st := columnState{
		MinMax:   stats.NewMinMax[float64](),
		Online:   stats.NewOnlineStats(),
		Unsorted: stats.NewUnsorted[float64](),
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	c.name = st.Name
	c.minmax = st.MinMax
	c.online = st.Online
	c.unsorted = st.Unsorted
	c.nulls = st.Nulls
	return nil
}
