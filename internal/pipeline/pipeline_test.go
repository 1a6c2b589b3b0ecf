package pipeline

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/taskstore/internal/instances"
	"github.com/roach88/taskstore/internal/notify"
	"github.com/roach88/taskstore/internal/store"
	"github.com/roach88/taskstore/internal/testutil"
)

// testExecutor wires a full pipeline over a temp store: UTC materializer and
// a capturing notifier.
type testExecutor struct {
	store    *store.Store
	exec     *Executor
	notified [][]string
}

func newTestExecutor(t *testing.T) *testExecutor {
	t.Helper()

	te := &testExecutor{store: testutil.OpenStore(t)}
	mat := instances.New(time.UTC, nil, slog.Default())
	te.exec = NewExecutor(te.store, mat.Run, notify.Func(func(ctx context.Context, uris []string) {
		te.notified = append(te.notified, uris)
	}), slog.Default())
	return te
}

func (te *testExecutor) apply(t *testing.T, reqs ...MutationRequest) []Result {
	t.Helper()
	results, err := te.exec.Apply(context.Background(), reqs)
	require.NoError(t, err)
	return results
}

// instanceRow reads the sole instance row of a task directly from storage.
type instanceRow struct {
	Start        sql.NullInt64
	StartSorting sql.NullInt64
	Due          sql.NullInt64
	DueSorting   sql.NullInt64
	Duration     sql.NullInt64
}

func (te *testExecutor) instance(t *testing.T, taskID int64) instanceRow {
	t.Helper()
	var r instanceRow
	err := te.store.DB().QueryRow(`
		SELECT instance_start, instance_start_sorting,
		       instance_due, instance_due_sorting, instance_duration
		FROM instances WHERE task_id = ?
	`, taskID).Scan(&r.Start, &r.StartSorting, &r.Due, &r.DueSorting, &r.Duration)
	require.NoError(t, err)
	return r
}

func (te *testExecutor) instanceCount(t *testing.T, taskID int64) int {
	t.Helper()
	var n int
	err := te.store.DB().QueryRow(
		"SELECT COUNT(*) FROM instances WHERE task_id = ?", taskID).Scan(&n)
	require.NoError(t, err)
	return n
}

func (te *testExecutor) taskColumn(t *testing.T, taskID int64, col string) int64 {
	t.Helper()
	var v int64
	err := te.store.DB().QueryRow(
		"SELECT "+col+" FROM tasks WHERE _id = ?", taskID).Scan(&v)
	require.NoError(t, err)
	return v
}
