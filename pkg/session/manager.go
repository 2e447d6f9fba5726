package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/waypoint/internal/logging"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

const (
	defaultLockTTL    = 30 * time.Second
	defaultMaxRetries = 3
)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates access to session documents, ensuring safe concurrent
// load-mutate-save cycles. In-process callers are serialized by per-key
// mutexes (reference counted so unused locks are collected); other processes
// are excluded by the optional DistributedLocker.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker       ports.DistributedLocker // Optional cross-process locker
	lockTTL      time.Duration
	maxRetries   int
	initialPhase string
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables cross-process locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL passed to the locker.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithMaxRetries bounds how often Update retries after a revision conflict.
func WithMaxRetries(n int) Option {
	return func(m *Manager) {
		m.maxRetries = n
	}
}

// WithInitialPhase sets the global phase of new documents.
func WithInitialPhase(phase string) Option {
	return func(m *Manager) {
		if phase != "" {
			m.initialPhase = phase
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a new Session Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		locks:        make(map[string]*lockEntry),
		lockTTL:      defaultLockTTL,
		maxRetries:   defaultMaxRetries,
		initialPhase: domain.InitialGlobalPhase,
		now:          time.Now,
		logger:       logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Load retrieves the document. Reads are not locked: stores replace documents
// atomically, so a reader sees either the old or the new revision.
func (m *Manager) Load(ctx context.Context, key string) (*domain.Document, error) {
	return m.store.Load(ctx, key)
}

// Lookup is the fail-soft form of Load: a missing, corrupt or unreadable
// document is reported as absent.
func (m *Manager) Lookup(ctx context.Context, key string) (*domain.Document, bool) {
	doc, err := m.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrStateNotFound) {
			m.logger.Warn("Session state unavailable, treating as absent", "key", key, "err", err)
		}
		return nil, false
	}
	return doc, true
}

// Save persists the document under the lock.
func (m *Manager) Save(ctx context.Context, key string, doc *domain.Document) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Save(ctx, key, doc)
	})
}

// MutateFunc changes a document in place and reports whether it changed.
type MutateFunc func(doc *domain.Document) (changed bool, err error)

// Update runs a locked load-mutate-save cycle. A mutation that reports no
// change is not written. Revision conflicts are retried with a fresh load.
// Returns domain.ErrStateNotFound if there is no document.
func (m *Manager) Update(ctx context.Context, key string, fn MutateFunc) (*domain.Document, bool, error) {
	var (
		doc     *domain.Document
		changed bool
	)
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		for attempt := 0; ; attempt++ {
			var err error
			doc, err = m.store.Load(ctx, key)
			if err != nil {
				return err
			}

			changed, err = fn(doc)
			if err != nil || !changed {
				return err
			}

			err = m.store.Save(ctx, key, doc)
			if errors.Is(err, domain.ErrRevisionConflict) && attempt < m.maxRetries {
				m.logger.Debug("Revision conflict, retrying", "key", key, "attempt", attempt+1)
				continue
			}
			return err
		}
	})
	if err != nil {
		return nil, false, err
	}
	return doc, changed, nil
}

// Initialize creates the document for a new request. An unfinished request is
// kept and domain.ErrRequestExists returned unless force is set.
func (m *Manager) Initialize(ctx context.Context, key, requestText string, id Identity, force bool) (*domain.Document, error) {
	var doc *domain.Document
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		existing, err := m.store.Load(ctx, key)
		var rev int64
		switch {
		case err == nil:
			if !force && !existing.Finished() {
				doc = existing
				return domain.ErrRequestExists
			}
			rev = existing.Revision
		case errors.Is(err, domain.ErrStateNotFound), errors.Is(err, domain.ErrStateCorrupt):
		default:
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		doc = NewDocument(requestText, id, m.now())
		doc.Request.GlobalPhase = m.initialPhase
		doc.Revision = rev
		if err := m.store.Save(ctx, key, doc); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return doc, err
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.WithLock(ctx, key, func(ctx context.Context) error {
		return m.store.Delete(ctx, key)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes a function while holding the lock for the key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire state lock: %w", err)
		}
		defer func() {
			// ctx may already be cancelled; release must still go through
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release state lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
