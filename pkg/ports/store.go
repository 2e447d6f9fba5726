package ports

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
)

// StateStore defines the interface for persisting session documents.
// Documents are keyed by the project hash; there is one document per project.
type StateStore interface {
	// Save persists the document for a given key.
	// It returns domain.ErrRevisionConflict if the stored revision is newer than
	// doc.Revision. On success doc.Revision is incremented.
	Save(ctx context.Context, key string, doc *domain.Document) error

	// Load retrieves the document for a given key.
	// Returns domain.ErrStateNotFound if no document exists and an error
	// wrapping domain.ErrStateCorrupt if it cannot be decoded.
	Load(ctx context.Context, key string) (*domain.Document, error)

	// Delete removes the document for a given key.
	Delete(ctx context.Context, key string) error

	// List returns the keys of all stored documents.
	List(ctx context.Context) ([]string, error)
}
