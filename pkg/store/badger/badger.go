// Package badger provides a BadgerDB-backed snapshot store.
package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/jqnatividad/qsv-stats/pkg/store"
)

// keyPrefix namespaces snapshot keys inside the LSM tree.
var keyPrefix = []byte("snapshot/")

// checksumSize is the xxhash64 prefix stored in front of every value.
const checksumSize = 8

// Store implements store.Store on BadgerDB. Every value carries an
// xxhash64 of the payload, verified on load, so a torn or corrupted
// snapshot surfaces as an error instead of decoding into nonsense
// aggregate state.
type Store struct {
	db *badger.DB
}

// Config holds BadgerDB configuration.
type Config struct {
	// Path to store database files.
	Path string

	// InMemory mode (for testing).
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage in MB (0 = a
	// conservative 48 MB default suitable for small hosts).
	MaxMemoryMB int64
}

// New opens a BadgerDB snapshot store.
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// Snapshot values are infrequent whole-dataset blobs, so the
	// defaults (sized for a write-heavy time-series workload) are far
	// larger than needed. Keep memory bounded the same way regardless
	// of host size.
	memTableSize := int64(16 * 1024 * 1024)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(2).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumCompactors(2).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Save writes the snapshot with its checksum in one transaction.
func (s *Store) Save(ctx context.Context, dataset string, state []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	value := make([]byte, checksumSize+len(state))
	binary.BigEndian.PutUint64(value, xxhash.Sum64(state))
	copy(value[checksumSize:], state)

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapshotKey(dataset), value)
	})
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", dataset, err)
	}
	return nil
}

// Load reads the snapshot and verifies its checksum.
func (s *Store) Load(ctx context.Context, dataset string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(dataset))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			if len(value) < checksumSize {
				return fmt.Errorf("snapshot %q: value too short", dataset)
			}
			sum := binary.BigEndian.Uint64(value)
			payload := value[checksumSize:]
			if xxhash.Sum64(payload) != sum {
				return fmt.Errorf("snapshot %q: checksum mismatch", dataset)
			}
			state = append([]byte(nil), payload...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", dataset, err)
	}
	return state, nil
}

// List iterates the snapshot prefix, keys only.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyPrefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			names = append(names, string(bytes.TrimPrefix(key, keyPrefix)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot; missing keys are not an error.
func (s *Store) Delete(ctx context.Context, dataset string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapshotKey(dataset))
	})
	if err != nil && err != badger.ErrKeyNotFound {
		return fmt.Errorf("delete snapshot %q: %w", dataset, err)
	}
	return nil
}

// RunGC triggers one round of value log garbage collection. BadgerDB's
// LSM design leaves replaced snapshot blobs in the value log until GC
// rewrites it.
func (s *Store) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// Close shuts down BadgerDB.
func (s *Store) Close() error {
	return s.db.Close()
}

func snapshotKey(dataset string) []byte {
	key := make([]byte, 0, len(keyPrefix)+len(dataset))
	key = append(key, keyPrefix...)
	return append(key, dataset...)
}
