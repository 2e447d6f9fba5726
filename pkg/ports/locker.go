package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for cross-process concurrency control.
// It allows the session manager to serialize load-mutate-save cycles of
// independent hook invocations touching the same project.
type DistributedLocker interface {
	// Lock attempts to acquire a lock for the given key (the project hash).
	// It blocks until the lock is acquired or the context is canceled. The TTL
	// bounds how long a crashed holder can keep the lock (implementation specific).
	// Returns an UnlockFunc that MUST be called to release the lock.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
