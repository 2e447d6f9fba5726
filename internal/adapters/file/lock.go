package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/waypoint/pkg/ports"
	"github.com/gofrs/flock"
)

// ErrLockAcquire is returned when the lock cannot be acquired.
var ErrLockAcquire = errors.New("failed to acquire state lock")

const lockFile = "state.lock"

// Locker implements ports.DistributedLocker with an OS file lock at
// <BasePath>/<key>/state.lock. The TTL is ignored: the kernel releases the
// lock when the holding process dies.
type Locker struct {
	BasePath   string
	RetryDelay time.Duration
}

// NewLocker creates a Locker rooted at the sessions directory.
func NewLocker(basePath string) *Locker {
	return &Locker{BasePath: basePath, RetryDelay: 20 * time.Millisecond}
}

// Lock blocks until the file lock is held or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	dir := filepath.Join(l.BasePath, key)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure lock directory: %w", err)
	}

	fl := flock.New(filepath.Join(dir, lockFile))
	ok, err := fl.TryLockContext(ctx, l.RetryDelay)
	if err != nil {
		_ = fl.Close()
		return nil, fmt.Errorf("%w: %v", ErrLockAcquire, err)
	}
	if !ok {
		_ = fl.Close()
		return nil, ErrLockAcquire
	}

	return func(context.Context) error {
		if err := fl.Unlock(); err != nil {
			return fmt.Errorf("failed to release state lock: %w", err)
		}
		return fl.Close()
	}, nil
}
