package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/waypoint/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, key string, doc *domain.Document) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, key string) (*domain.Document, error) {
	return nil, domain.ErrStateNotFound
}
func (m *MockStore) Delete(ctx context.Context, key string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)  { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("project-%d", i)
		_ = mgr.Save(ctx, key, &domain.Document{})
		_ = mgr.Delete(ctx, key)
	}

	lockCount := len(mgr.locks)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
