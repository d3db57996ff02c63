package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("storage: not found")

// KV is the flat key-value store the task store persists its blobs in.
// Get reports ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Timestamped is implemented by backends that record when a key was last
// written.
type Timestamped interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
