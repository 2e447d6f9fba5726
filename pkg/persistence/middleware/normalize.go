package middleware

import (
	"context"
	"log/slog"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

type normalizeMiddleware struct {
	next       ports.StateStore
	logger     *slog.Logger
	vocabulary map[string]struct{}
}

// NormalizeOption configures Normalize.
type NormalizeOption func(*normalizeMiddleware)

// WithVocabulary reports loaded phases outside v. They are logged, not repaired.
func WithVocabulary(v map[string]struct{}) NormalizeOption {
	return func(m *normalizeMiddleware) {
		m.vocabulary = v
	}
}

// Normalize creates a middleware that repairs ordering and reference
// violations of every loaded document and logs each repair.
func Normalize(logger *slog.Logger, opts ...NormalizeOption) Middleware {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(next ports.StateStore) ports.StateStore {
		m := &normalizeMiddleware{next: next, logger: logger}
		for _, opt := range opts {
			opt(m)
		}
		return m
	}
}

func (m *normalizeMiddleware) Load(ctx context.Context, key string) (*domain.Document, error) {
	doc, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	for _, r := range doc.Normalize() {
		m.logger.Warn("Repaired session document", "key", key, "repair", r)
	}
	if m.vocabulary != nil {
		for _, p := range doc.UnknownPhases(m.vocabulary) {
			m.logger.Warn("Session document has an unknown phase", "key", key, "phase", p)
		}
	}
	return doc, nil
}

func (m *normalizeMiddleware) Save(ctx context.Context, key string, doc *domain.Document) error {
	return m.next.Save(ctx, key, doc)
}

func (m *normalizeMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *normalizeMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
