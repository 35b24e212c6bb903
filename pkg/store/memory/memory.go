// Package memory provides an in-memory snapshot store for tests and
// single-process use.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jqnatividad/qsv-stats/pkg/store"
)

// Store keeps snapshots in a map guarded by a RWMutex.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{snapshots: make(map[string][]byte)}
}

// Save stores a copy of the snapshot bytes.
func (s *Store) Save(ctx context.Context, dataset string, state []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]byte, len(state))
	copy(cp, state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[dataset] = cp
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *Store) Load(ctx context.Context, dataset string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.snapshots[dataset]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := make([]byte, len(state))
	copy(cp, state)
	return cp, nil
}

// List returns dataset names in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot if present.
func (s *Store) Delete(ctx context.Context, dataset string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, dataset)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
