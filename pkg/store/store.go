// Package store persists serialized aggregate state, so a dataset's
// statistics survive a restart and partial aggregates can be shipped
// between processes. The store holds opaque encoded snapshots; the
// encoding itself lives with the aggregates.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no snapshot exists for a dataset.
var ErrNotFound = errors.New("store: snapshot not found")

// Store is the interface snapshot backends implement.
// Implementations: memory (testing), badger (production).
type Store interface {
	// Save stores the encoded snapshot for a dataset, replacing any
	// previous one.
	Save(ctx context.Context, dataset string, state []byte) error

	// Load retrieves a dataset's snapshot. Returns ErrNotFound when
	// none exists.
	Load(ctx context.Context, dataset string) ([]byte, error)

	// List returns the names of all datasets with a snapshot.
	List(ctx context.Context) ([]string, error)

	// Delete removes a dataset's snapshot. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, dataset string) error

	// Close cleanly shuts down the backend.
	Close() error
}
