// Package config collects the tunables of the stats service in one
// place, so none of them live as magic numbers at call sites.
package config

import "time"

// Server defaults
const (
	DefaultPort = "8080"
)

// HTTP timeouts
const (
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 30 * time.Second
	ShutdownTimeout    = 30 * time.Second
	IngestTimeout      = 10 * time.Second
	SnapshotTimeout    = 30 * time.Second
)

// Ingest limits
const (
	// MaxColumnsPerDataset caps how many distinct columns one dataset
	// may accumulate, so a misbehaving client cannot grow aggregate
	// state without bound.
	MaxColumnsPerDataset = 1000

	// MaxSamplesPerRequest caps one ingest payload.
	MaxSamplesPerRequest = 1_000_000
)

// WebSocket configuration
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSBroadcastBuffer = 256
	WSChannelBuffer   = 10
	WSWriteDeadline   = 10 * time.Second
)

// Describe defaults
const (
	// DefaultPartitions is how many partition workers the CSV describer
	// uses when the caller does not choose a count.
	DefaultPartitions = 4

	// DescribeBatchSize is how many CSV records are handed to a
	// partition worker at a time.
	DescribeBatchSize = 512
)
