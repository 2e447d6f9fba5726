package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/waypoint/internal/adapters/codec"
	"github.com/aretw0/waypoint/internal/fsutil"
	"github.com/aretw0/waypoint/pkg/domain"
)

const stateFile = "state.json"

// Store implements ports.StateStore using the local filesystem.
// Each document lives at <BasePath>/<key>/state.json.
//
// The revision check and the rename are serialized in-process only; across
// processes the caller holds the state.lock file lock (see Locker).
type Store struct {
	BasePath string

	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".waypoint/sessions".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".waypoint", "sessions")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(key string) string {
	return filepath.Join(s.BasePath, key, stateFile)
}

// Save persists the document to a JSON file atomically.
func (s *Store) Save(ctx context.Context, key string, doc *domain.Document) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if doc == nil {
		return fmt.Errorf("document cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	destPath := s.path(key)
	if current, err := os.ReadFile(destPath); err == nil {
		if err := codec.Check(codec.Revision(current), doc); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read session file: %w", err)
	}

	next := doc.Revision + 1
	data, err := codec.Encode(doc, next, true)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(destPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	doc.Revision = next
	return nil
}

// Load retrieves the document from its JSON file.
func (s *Store) Load(ctx context.Context, key string) (*domain.Document, error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	return codec.Decode(data)
}

// Delete removes the session document. Contracts next to it are kept.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the keys of all stored documents.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(s.path(entry.Name())); err == nil {
			keys = append(keys, entry.Name())
		}
	}
	return keys, nil
}
