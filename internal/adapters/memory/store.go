package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/waypoint/internal/adapters/codec"
	"github.com/aretw0/waypoint/pkg/domain"
)

// Store implements ports.StateStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Document
	mu   sync.RWMutex
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		data: make(map[string]*domain.Document),
	}
}

// Save persists a deep copy of the document.
func (s *Store) Save(ctx context.Context, key string, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.data[key]; ok {
		if err := codec.Check(current.Revision, doc); err != nil {
			return err
		}
	}

	// Deep copy to ensure isolation, similar to serialization
	stored := doc.Clone()
	stored.Revision = doc.Revision + 1
	s.data[key] = stored
	doc.Revision = stored.Revision
	return nil
}

// Load retrieves a copy of the document.
func (s *Store) Load(ctx context.Context, key string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[key]
	if !ok {
		return nil, domain.ErrStateNotFound
	}

	// Copy on read so callers can't mutate store state by pointer
	return doc.Clone(), nil
}

// Delete removes the document.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns stored keys in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
