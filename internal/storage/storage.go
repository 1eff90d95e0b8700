package storage

import (
	"context"

	"github.com/dshills/synthcorpus/pkg/types"
)

// Storage defines the interface for persisting and querying corpus entries
type Storage interface {
	// Write operations
	InsertEntry(ctx context.Context, entry *types.Entry) error
	TryInsertEntry(ctx context.Context, entry *types.Entry) (bool, error)

	// Read operations
	GetEntries(ctx context.Context, filter types.EntryFilter) (*types.EntryPage, error)
	GetTopByFunc(ctx context.Context, funcName string, limit int) ([]types.Entry, error)
	GetRecent(ctx context.Context, limit int) ([]types.Entry, error)
	GetBySigKey(ctx context.Context, sigKey string, limit int) ([]types.Entry, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
}

// Status contains statistics about the corpus
type Status struct {
	SchemaVersion   string       `json:"schema_version"`
	TotalEntries    int          `json:"total_entries"`
	PerfectEntries  int          `json:"perfect_entries"`
	DistinctFuncs   int          `json:"distinct_funcs"`
	LatestTimestamp string       `json:"latest_timestamp"`
	Health          HealthStatus `json:"health"`
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible bool `json:"database_accessible"`
	WALEnabled         bool `json:"wal_enabled"`
}
