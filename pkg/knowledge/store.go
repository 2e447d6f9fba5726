package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/waypoint/internal/fsutil"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// Store reads and writes one knowledge.yaml file.
type Store struct {
	Path string
	now  func() time.Time
}

// NewStore creates a Store for path.
func NewStore(path string) *Store {
	return &Store{Path: path, now: time.Now}
}

// Load returns the document. A missing file yields an empty document.
func (s *Store) Load() (*Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Document{}, nil
		}
		return nil, fmt.Errorf("failed to read knowledge: %w", err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge: %w", err)
	}
	return &doc, nil
}

// Save writes the document atomically.
func (s *Store) Save(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge: %w", err)
	}
	return fsutil.WriteFileAtomic(s.Path, data, 0644)
}

// Update runs fn on the loaded document under a file lock and saves the
// result when fn reports a change.
func (s *Store) Update(ctx context.Context, fn func(*Document) (bool, error)) (*Document, error) {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure knowledge directory: %w", err)
	}
	lock := flock.New(s.Path + ".lock")
	ok, err := lock.TryLockContext(ctx, 20*time.Millisecond)
	if err != nil || !ok {
		return nil, fmt.Errorf("failed to lock knowledge: %w", errors.Join(err, ctx.Err()))
	}
	defer func() { _ = lock.Close() }()

	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return doc, err
	}
	doc.UpdatedAt = s.now().UTC()
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Merge folds incoming into the stored document. Nothing is written when
// the merge adds nothing.
func (s *Store) Merge(ctx context.Context, incoming Document) (MergeResult, error) {
	var res MergeResult
	_, err := s.Update(ctx, func(doc *Document) (bool, error) {
		res = Merge(doc, incoming)
		return res.Changed(), nil
	})
	return res, err
}
