package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReadFixture(t *testing.T, s *Store) (listA, listB int64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		var err error
		listA, err = tx.Insert(ctx, "lists", map[string]any{
			"account_name": "local", "account_type": "org.local", "name": "work",
		})
		if err != nil {
			return err
		}
		listB, err = tx.Insert(ctx, "lists", map[string]any{
			"account_name": "local", "account_type": "org.local", "name": "home",
		})
		if err != nil {
			return err
		}
		for _, row := range []map[string]any{
			{"list_id": listA, "title": "report", "status": int64(1)},
			{"list_id": listB, "title": "dishes"},
		} {
			if _, err := tx.Insert(ctx, "tasks", row); err != nil {
				return err
			}
		}
		return nil
	}))
	return listA, listB
}

func TestLists_Ordered(t *testing.T) {
	s := openTestStore(t)
	seedReadFixture(t, s)

	lists, err := s.Lists(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "work", lists[0].Name)
	assert.Equal(t, "home", lists[1].Name)
	assert.True(t, lists[0].Visible)
	assert.Nil(t, lists[0].Color)
}

func TestTasks_FilterByList(t *testing.T) {
	s := openTestStore(t)
	listA, _ := seedReadFixture(t, s)

	all, err := s.Tasks(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	work, err := s.Tasks(context.Background(), listA)
	require.NoError(t, err)
	require.Len(t, work, 1)
	assert.Equal(t, "report", work[0].Title)
	assert.Equal(t, int64(1), work[0].Status)
	assert.Nil(t, work[0].Due)
}

func TestAgenda_UndatedSortLast(t *testing.T) {
	s := openTestStore(t)
	listA, listB := seedReadFixture(t, s)
	ctx := context.Background()

	// Instance rows written directly; the materializer normally owns these.
	require.NoError(t, s.InTx(ctx, func(tx *Tx) error {
		var undatedTask, datedTask int64
		var err error
		if undatedTask, err = tx.Insert(ctx, "tasks", map[string]any{
			"list_id": listA, "title": "undated",
		}); err != nil {
			return err
		}
		if datedTask, err = tx.Insert(ctx, "tasks", map[string]any{
			"list_id": listB, "title": "dated",
		}); err != nil {
			return err
		}
		if _, err = tx.Insert(ctx, "instances", map[string]any{
			"task_id": undatedTask,
		}); err != nil {
			return err
		}
		_, err = tx.Insert(ctx, "instances", map[string]any{
			"task_id":              datedTask,
			"instance_due":         int64(1704103200000),
			"instance_due_sorting": int64(1704103200000),
		})
		return err
	}))

	rows, err := s.Agenda(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "dated", rows[0].Title)
	assert.Equal(t, "undated", rows[1].Title, "undated instances sort last")

	// Range bounds exclude the undated row entirely
	bounded, err := s.Agenda(ctx, 1704103200000, 1704103200001)
	require.NoError(t, err)
	require.Len(t, bounded, 1)
	assert.Equal(t, "dated", bounded[0].Title)
}
