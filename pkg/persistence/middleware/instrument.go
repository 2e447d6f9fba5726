package middleware

import (
	"context"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/ports"
)

// StoreObserver receives the outcome of every store operation.
type StoreObserver interface {
	ObserveStore(op string, err error)
}

type instrumentMiddleware struct {
	next ports.StateStore
	obs  StoreObserver
}

// Instrument creates a middleware that reports load/save/delete/list outcomes to obs.
func Instrument(obs StoreObserver) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		return &instrumentMiddleware{next: next, obs: obs}
	}
}

func (m *instrumentMiddleware) Save(ctx context.Context, key string, doc *domain.Document) error {
	err := m.next.Save(ctx, key, doc)
	m.obs.ObserveStore("save", err)
	return err
}

func (m *instrumentMiddleware) Load(ctx context.Context, key string) (*domain.Document, error) {
	doc, err := m.next.Load(ctx, key)
	m.obs.ObserveStore("load", err)
	return doc, err
}

func (m *instrumentMiddleware) Delete(ctx context.Context, key string) error {
	err := m.next.Delete(ctx, key)
	m.obs.ObserveStore("delete", err)
	return err
}

func (m *instrumentMiddleware) List(ctx context.Context) ([]string, error) {
	keys, err := m.next.List(ctx)
	m.obs.ObserveStore("list", err)
	return keys, err
}
