package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("150405.000000")

	newDoc := func() *domain.Document {
		doc := domain.NewDocument("add login feature", "sess-1", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
		_, _ = doc.AddTask("T1", "design schema")
		_, _ = doc.AddSubtask("T1", "S1", "users table")
		_ = doc.Focus("T1", "S1")
		doc.Tasks["T1"].Subtasks["S1"].Phase = domain.PhaseTestFirst
		return doc
	}

	t.Run("Save and Load", func(t *testing.T) {
		defer func() { _ = store.Delete(ctx, key) }()

		doc := newDoc()
		require.NoError(t, store.Save(ctx, key, doc), "Save should not return error")
		assert.Equal(t, int64(1), doc.Revision, "Save should increment the revision")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc, loaded, "document must round-trip field-for-field")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound)
	})

	t.Run("Save Does Not Alias", func(t *testing.T) {
		defer func() { _ = store.Delete(ctx, key) }()

		doc := newDoc()
		require.NoError(t, store.Save(ctx, key, doc))
		doc.Tasks["T1"].Name = "mutated after save"

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "design schema", loaded.Tasks["T1"].Name)
	})

	t.Run("Revision Conflict", func(t *testing.T) {
		defer func() { _ = store.Delete(ctx, key) }()

		require.NoError(t, store.Save(ctx, key, newDoc()))

		a, err := store.Load(ctx, key)
		require.NoError(t, err)
		b, err := store.Load(ctx, key)
		require.NoError(t, err)

		a.Request.GlobalPhase = domain.PhaseMerge
		require.NoError(t, store.Save(ctx, key, a))

		b.Request.GlobalPhase = domain.PhaseDesign
		err = store.Save(ctx, key, b)
		assert.ErrorIs(t, err, domain.ErrRevisionConflict)

		current, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseMerge, current.Request.GlobalPhase, "loser must not overwrite the winner")
		assert.Equal(t, int64(2), current.Revision)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, newDoc()))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrStateNotFound, "Load after Delete should return ErrStateNotFound")

		assert.NoError(t, store.Delete(ctx, key), "Delete of a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := key + "-1"
		id2 := key + "-2"
		_ = store.Save(ctx, id1, newDoc())
		_ = store.Save(ctx, id2, newDoc())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, id1)
		assert.Contains(t, keys, id2)
	})
}

// RunLockerContract verifies that a DistributedLocker provides mutual exclusion
// and honours context cancellation.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "lock-" + time.Now().Format("150405.000000")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, time.Second)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		unlock, err = locker.Lock(ctx, key, time.Second)
		require.NoError(t, err, "lock must be reacquirable after unlock")
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contended Lock Honours Context", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(waitCtx, key, time.Second)
		assert.Error(t, err, "second holder must not acquire the lock")
	})

	t.Run("Mutual Exclusion", func(t *testing.T) {
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			holders int
			maxSeen int
		)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				unlock, err := locker.Lock(lctx, key+"-mx", 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				mu.Unlock()

				time.Sleep(5 * time.Millisecond)

				mu.Lock()
				holders--
				mu.Unlock()
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxSeen)
	})
}
