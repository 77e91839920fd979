package backend

import (
	"context"

	"findash/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the selected persister and optional cleanup function.
// A nil Persister means the store runs memory-only.
type Result struct {
	Persister store.Persister
	Cleanup   CleanupFunc
}

// Factory creates persisters based on configuration
type Factory interface {
	CreatePersister(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for persister creation
type Config struct {
	Type Type

	// JSON snapshot specific
	SnapshotPath string

	// SQLite specific
	SQLiteDBPath string
}

// Type represents the kind of durable backend
type Type string

const (
	JSONBackend   Type = "json"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
