// Package server exposes datasets of mergeable aggregates over HTTP:
// sample ingest, statistic readouts, dataset merging, and snapshot
// save/restore through a pluggable store.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jqnatividad/qsv-stats/pkg/config"
	"github.com/jqnatividad/qsv-stats/pkg/describe"
	"github.com/jqnatividad/qsv-stats/pkg/store"
)

var (
	// ErrColumnLimit is returned when an ingest would push a dataset
	// past config.MaxColumnsPerDataset distinct columns.
	ErrColumnLimit = errors.New("dataset column limit exceeded")

	// ErrTooManySamples is returned when one request carries more than
	// config.MaxSamplesPerRequest samples.
	ErrTooManySamples = errors.New("too many samples in one request")

	// ErrDatasetNotFound is returned for operations on datasets the
	// server does not know.
	ErrDatasetNotFound = errors.New("dataset not found")
)

// Server owns the in-memory datasets and their snapshot store.
type Server struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	store    store.Store
	hub      *Hub
}

// New creates a server backed by the given snapshot store. The hub is
// optional; without one, no stream updates are published.
func New(st store.Store, hub *Hub) *Server {
	return &Server{
		datasets: make(map[string]*Dataset),
		store:    st,
		hub:      hub,
	}
}

// Dataset is one named collection of column aggregates. All mutation
// goes through its mutex: the aggregates themselves are not safe for
// concurrent use, so the dataset serializes access per instance.
type Dataset struct {
	mu      sync.Mutex
	name    string
	columns map[string]*describe.ColumnAggregate
	order   []string
}

func newDataset(name string) *Dataset {
	return &Dataset{
		name:    name,
		columns: make(map[string]*describe.ColumnAggregate),
	}
}

// IngestRequest is the sample payload: per-column values plus optional
// per-column null counts.
type IngestRequest struct {
	Columns map[string][]float64 `json:"columns"`
	Nulls   map[string]int       `json:"nulls,omitempty"`
}

// Ingest folds the request's samples into the dataset's aggregates and
// returns the number of samples (nulls included) absorbed.
func (d *Dataset) Ingest(req IngestRequest) (int, error) {
	total := 0
	for _, values := range req.Columns {
		total += len(values)
	}
	for _, n := range req.Nulls {
		total += n
	}
	if total > config.MaxSamplesPerRequest {
		return 0, ErrTooManySamples
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	newColumns := 0
	for name := range req.Columns {
		if _, ok := d.columns[name]; !ok {
			newColumns++
		}
	}
	for name := range req.Nulls {
		if _, ok := d.columns[name]; !ok {
			if _, inColumns := req.Columns[name]; !inColumns {
				newColumns++
			}
		}
	}
	if len(d.columns)+newColumns > config.MaxColumnsPerDataset {
		return 0, ErrColumnLimit
	}

	for name, values := range req.Columns {
		col := d.columnLocked(name)
		for _, v := range values {
			col.Add(v)
		}
	}
	for name, n := range req.Nulls {
		col := d.columnLocked(name)
		for i := 0; i < n; i++ {
			col.AddNull()
		}
	}
	return total, nil
}

// columnLocked returns the named column aggregate, creating it on
// first use. Caller holds d.mu.
func (d *Dataset) columnLocked(name string) *describe.ColumnAggregate {
	col, ok := d.columns[name]
	if !ok {
		col = describe.NewColumnAggregate(name)
		d.columns[name] = col
		d.order = append(d.order, name)
	}
	return col
}

// Stats computes the readout for every column, in first-seen order.
func (d *Dataset) Stats() []describe.ColumnStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]describe.ColumnStats, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.columns[name].Stats())
	}
	return out
}

// merge folds the other dataset's aggregates into this one,
// column by column. The other dataset must already be detached from
// the server so no new samples race the merge.
func (d *Dataset) merge(other *Dataset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()

	for _, name := range other.order {
		d.columnLocked(name).Merge(other.columns[name])
	}
}

// snapshotState is the persisted form of a dataset.
type snapshotState struct {
	Dataset string                      `json:"dataset"`
	SavedAt time.Time                   `json:"saved_at"`
	Columns []*describe.ColumnAggregate `json:"columns"`
}

// encode serializes the full dataset state.
func (d *Dataset) encode() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := snapshotState{
		Dataset: d.name,
		SavedAt: time.Now().UTC(),
		Columns: make([]*describe.ColumnAggregate, 0, len(d.order)),
	}
	for _, name := range d.order {
		st.Columns = append(st.Columns, d.columns[name])
	}
	return json.Marshal(st)
}

// Dataset returns the named dataset, or nil if the server has none.
func (s *Server) Dataset(name string) *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets[name]
}

// getOrCreate returns the named dataset, registering it on first use.
func (s *Server) getOrCreate(name string) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datasets[name]
	if !ok {
		d = newDataset(name)
		s.datasets[name] = d
	}
	return d
}

// detach removes a dataset from the registry and returns it.
func (s *Server) detach(name string) *Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.datasets[name]
	delete(s.datasets, name)
	return d
}

// List returns all registered dataset names.
func (s *Server) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.datasets))
	for name := range s.datasets {
		names = append(names, name)
	}
	return names
}

// SaveSnapshot persists the dataset's encoded state.
func (s *Server) SaveSnapshot(ctx context.Context, name string) error {
	d := s.Dataset(name)
	if d == nil {
		return ErrDatasetNotFound
	}
	state, err := d.encode()
	if err != nil {
		return fmt.Errorf("encode dataset %q: %w", name, err)
	}
	return s.store.Save(ctx, name, state)
}

// RestoreSnapshot loads the dataset's persisted state and merges it
// into the live dataset, creating it when absent. Because the decoded
// aggregates reproduce their in-memory fields exactly, restoring into
// an empty dataset yields the saved statistics, and restoring into a
// live one behaves like any other partition merge.
func (s *Server) RestoreSnapshot(ctx context.Context, name string) error {
	state, err := s.store.Load(ctx, name)
	if err != nil {
		return err
	}
	var st snapshotState
	if err := json.Unmarshal(state, &st); err != nil {
		return fmt.Errorf("decode snapshot %q: %w", name, err)
	}

	restored := newDataset(name)
	for _, col := range st.Columns {
		restored.columns[col.Name()] = col
		restored.order = append(restored.order, col.Name())
	}
	s.getOrCreate(name).merge(restored)
	return nil
}
