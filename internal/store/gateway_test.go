package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_InsertGetRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id int64
	err := s.InTx(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Insert(ctx, "lists", map[string]any{
			"account_name": "local",
			"account_type": "org.local",
			"name":         "inbox",
		})
		return err
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	err = s.InTx(ctx, func(tx *Tx) error {
		row, err := tx.Get(ctx, "lists", id)
		if err != nil {
			return err
		}
		assert.Equal(t, "local", row["account_name"])
		assert.Equal(t, "inbox", row["name"])
		assert.Equal(t, id, row["_id"])
		assert.Equal(t, int64(1), row["visible"], "schema default applies")
		return nil
	})
	require.NoError(t, err)
}

func TestGateway_Get_NoRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Get(ctx, "lists", 999)
		return err
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGateway_Update(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Insert(ctx, "lists", map[string]any{
			"account_name": "local",
			"account_type": "org.local",
		})
		return err
	}))

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		n, err := tx.Update(ctx, "lists", id, map[string]any{"name": "renamed"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	}))

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		row, err := tx.Get(ctx, "lists", id)
		require.NoError(t, err)
		assert.Equal(t, "renamed", row["name"])
		return nil
	}))
}

func TestGateway_Update_AbsentRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		n, err := tx.Update(ctx, "lists", 12345, map[string]any{"name": "x"})
		require.NoError(t, err)
		assert.Zero(t, n)
		return nil
	}))
}

func TestGateway_Update_NoColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Update(ctx, "lists", 1, map[string]any{})
		return err
	})
	assert.Error(t, err)
}

func TestGateway_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var id int64
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		var err error
		id, err = tx.Insert(ctx, "lists", map[string]any{
			"account_name": "local",
			"account_type": "org.local",
		})
		return err
	}))

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		n, err := tx.Delete(ctx, "lists", "_id = ?", id)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		return nil
	}))
}

func TestGateway_DeleteCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var listID, taskID int64
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		var err error
		listID, err = tx.Insert(ctx, "lists", map[string]any{
			"account_name": "local",
			"account_type": "org.local",
		})
		if err != nil {
			return err
		}
		taskID, err = tx.Insert(ctx, "tasks", map[string]any{
			"list_id": listID,
			"title":   "doomed",
		})
		if err != nil {
			return err
		}
		_, err = tx.Insert(ctx, "instances", map[string]any{"task_id": taskID})
		return err
	}))

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Delete(ctx, "lists", "_id = ?", listID)
		return err
	}))

	// Task and instance rows follow their list
	err := s.InTx(ctx, func(tx *Tx) error {
		_, err := tx.Get(ctx, "tasks", taskID)
		return err
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM instances").Scan(&count))
	assert.Zero(t, count)
}
