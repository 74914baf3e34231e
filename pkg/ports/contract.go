package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/fsm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	machineID := "contract-test-machine-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.Snapshot{
			Current: "B",
			Undo:    []domain.StateID{"normal", "A"},
			Redo:    []domain.StateID{"C"},
		}

		err := store.Save(ctx, machineID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, machineID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap, loaded)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, machineID, domain.NewSnapshot("A")))
		require.NoError(t, store.Save(ctx, machineID, domain.NewSnapshot("C")))

		loaded, err := store.Load(ctx, machineID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateID("C"), loaded.Current)
		assert.Empty(t, loaded.Undo)
		assert.Empty(t, loaded.Redo)
	})

	t.Run("Isolation", func(t *testing.T) {
		snap := domain.Snapshot{Current: "B", Undo: []domain.StateID{"A"}}
		require.NoError(t, store.Save(ctx, machineID, snap))

		// Mutating the caller's copy must not affect the stored value
		snap.Undo[0] = "mutated"

		loaded, err := store.Load(ctx, machineID)
		require.NoError(t, err)
		assert.Equal(t, []domain.StateID{"A"}, loaded.Undo)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+machineID)
		assert.ErrorIs(t, err, domain.ErrMachineNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, machineID, domain.NewSnapshot("A")))

		err := store.Delete(ctx, machineID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, machineID)
		assert.ErrorIs(t, err, domain.ErrMachineNotFound, "Load after Delete should return ErrMachineNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := machineID + "-1"
		id2 := machineID + "-2"
		_ = store.Save(ctx, id1, domain.NewSnapshot("A"))
		_ = store.Save(ctx, id2, domain.NewSnapshot("A"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
