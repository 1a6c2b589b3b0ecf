// Package testutil provides shared test fixtures.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/store"
)

// OpenStore opens a fresh store in a temp directory and closes it when the
// test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err, "open test store")

	t.Cleanup(func() {
		require.NoError(t, st.Close(), "close test store")
	})
	return st
}

// SeedList inserts a task list directly through the gateway, bypassing the
// pipeline, and returns its identifier.
func SeedList(t *testing.T, st *store.Store) int64 {
	t.Helper()

	var id int64
	err := st.InTx(context.Background(), func(tx *store.Tx) error {
		var err error
		id, err = tx.Insert(context.Background(), entity.KindList.Table(), map[string]any{
			entity.ColAccountName: "local",
			entity.ColAccountType: "org.taskstore.local",
			entity.ColListName:    "inbox",
		})
		return err
	})
	require.NoError(t, err, "seed list")
	return id
}

// SeedTask inserts a task row directly through the gateway with the given
// columns, marking it stale so the next materializer run picks it up.
func SeedTask(t *testing.T, st *store.Store, listID int64, cols map[string]any) int64 {
	t.Helper()

	values := map[string]any{
		entity.ColListID:         listID,
		entity.ColInstancesStale: int64(1),
	}
	for k, v := range cols {
		values[k] = v
	}

	var id int64
	err := st.InTx(context.Background(), func(tx *store.Tx) error {
		var err error
		id, err = tx.Insert(context.Background(), entity.KindTask.Table(), values)
		return err
	})
	require.NoError(t, err, "seed task")
	return id
}
