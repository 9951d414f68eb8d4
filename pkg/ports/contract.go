package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractSnapshot is a two-level tree with local bytes at every node.
func contractSnapshot(tag string) *domain.Snapshot {
	return &domain.Snapshot{
		State: []byte(tag + ":root"),
		Children: []domain.ChildSnapshot{
			{
				ID:       domain.NewIdentity("leaf", "a"),
				Snapshot: &domain.Snapshot{State: []byte(tag + ":a")},
			},
			{
				ID: domain.NewIdentity("branch", ""),
				Snapshot: &domain.Snapshot{
					Children: []domain.ChildSnapshot{{
						ID:       domain.NewIdentity("leaf", "b"),
						Snapshot: &domain.Snapshot{State: []byte(tag + ":b")},
					}},
				},
			},
		},
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot("v1")

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.True(t, snap.Equal(loaded), "loaded snapshot should match the saved tree")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("v1")))
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("v2")))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, []byte("v2:root"), loaded.State)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, contractSnapshot("v1")))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.State[0] = 'X'
		loaded.Children = nil

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.True(t, contractSnapshot("v1").Equal(again), "mutating a loaded snapshot must not change the store")
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSnapshot("v1"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Delete of an unknown session should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractSnapshot("one")))
		require.NoError(t, store.Save(ctx, id2, contractSnapshot("two")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
