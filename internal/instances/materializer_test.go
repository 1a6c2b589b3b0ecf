package instances

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/store"
	"github.com/roach88/taskstore/internal/testutil"
)

// 2024-01-01T09:00:00Z in milliseconds.
const startMs = int64(1704099600000)

func run(t *testing.T, st *store.Store, m *Materializer) {
	t.Helper()
	require.NoError(t, st.InTx(context.Background(), func(tx *store.Tx) error {
		return m.Run(context.Background(), tx)
	}))
}

func readInstance(t *testing.T, st *store.Store, taskID int64) Occurrence {
	t.Helper()
	var occ Occurrence
	err := st.DB().QueryRow(`
		SELECT instance_start, instance_start_sorting,
		       instance_due, instance_due_sorting, instance_duration
		FROM instances WHERE task_id = ?
	`, taskID).Scan(&occ.Start, &occ.StartSorting, &occ.Due, &occ.DueSorting, &occ.Duration)
	require.NoError(t, err)
	return occ
}

func instanceCount(t *testing.T, st *store.Store, taskID int64) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow(
		"SELECT COUNT(*) FROM instances WHERE task_id = ?", taskID).Scan(&n))
	return n
}

func staleFlag(t *testing.T, st *store.Store, taskID int64) int64 {
	t.Helper()
	var v int64
	require.NoError(t, st.DB().QueryRow(
		"SELECT instances_stale FROM tasks WHERE _id = ?", taskID).Scan(&v))
	return v
}

func TestRun_DueWinsOverDuration(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart:  startMs,
		entity.ColDue:      startMs + 7200000,
		entity.ColDuration: "PT1H",
	})

	run(t, st, New(time.UTC, nil, slog.Default()))

	occ := readInstance(t, st, id)
	assert.Equal(t, startMs+7200000, occ.Due.Int64,
		"an explicit due beats the duration-derived one")
	assert.Equal(t, int64(7200000), occ.Duration.Int64,
		"span derives from the due/start gap, not the duration field")
	assert.Zero(t, staleFlag(t, st, id))
}

func TestRun_DurationAppliedToStart(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart:  startMs,
		entity.ColDuration: "PT1H",
	})

	run(t, st, New(time.UTC, nil, slog.Default()))

	occ := readInstance(t, st, id)
	assert.Equal(t, startMs, occ.Start.Int64)
	assert.Equal(t, startMs+3600000, occ.Due.Int64)
	assert.Equal(t, int64(3600000), occ.Duration.Int64)
}

func TestRun_DurationWithoutStartStaysAbsent(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDuration: "PT1H",
	})

	run(t, st, New(time.UTC, nil, slog.Default()))

	occ := readInstance(t, st, id)
	assert.False(t, occ.Start.Valid)
	assert.False(t, occ.Due.Valid)
	assert.False(t, occ.Duration.Valid)
	assert.Zero(t, staleFlag(t, st, id), "absent timing is still a clean result")
}

func TestRun_MalformedDurationStaysAbsent(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart:  startMs,
		entity.ColDuration: "garbage",
	})

	run(t, st, New(time.UTC, nil, slog.Default()))

	occ := readInstance(t, st, id)
	assert.Equal(t, startMs, occ.Start.Int64, "start still materializes")
	assert.False(t, occ.Due.Valid, "a raw row with a bad duration derives nothing")
	assert.Zero(t, staleFlag(t, st, id))
}

func TestRun_SkipsFreshTasks(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart:        startMs,
		entity.ColInstancesStale: int64(0),
	})

	run(t, st, New(time.UTC, nil, slog.Default()))

	assert.Zero(t, instanceCount(t, st, id), "fresh tasks are left alone")
}

func TestRun_SecondRunUpdatesInPlace(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart: startMs,
	})

	m := New(time.UTC, nil, slog.Default())
	run(t, st, m)
	require.Equal(t, 1, instanceCount(t, st, id))

	// Reschedule and flag stale again
	require.NoError(t, st.InTx(context.Background(), func(tx *store.Tx) error {
		_, err := tx.Update(context.Background(), "tasks", id, map[string]any{
			entity.ColDTStart:        startMs + 3600000,
			entity.ColInstancesStale: int64(1),
		})
		return err
	}))
	run(t, st, m)

	assert.Equal(t, 1, instanceCount(t, st, id), "rematerialization replaces, never duplicates")
	assert.Equal(t, startMs+3600000, readInstance(t, st, id).Start.Int64)
}

// fanOut is a test expander producing one occurrence per listed offset.
type fanOut struct {
	offsets []int64
	err     error
}

func (f fanOut) Expand(rule string, base Occurrence) ([]Occurrence, error) {
	if f.err != nil {
		return nil, f.err
	}
	occs := make([]Occurrence, 0, len(f.offsets))
	for _, off := range f.offsets {
		occ := base
		occ.Start = sql.NullInt64{Int64: base.Start.Int64 + off, Valid: base.Start.Valid}
		occ.StartSorting = occ.Start
		occs = append(occs, occ)
	}
	return occs, nil
}

func TestRun_RecurringReplacesFullSet(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart: startMs,
		entity.ColRRule:   "FREQ=DAILY;COUNT=3",
	})

	day := int64(86400000)
	m := New(time.UTC, fanOut{offsets: []int64{0, day, 2 * day}}, slog.Default())
	run(t, st, m)
	assert.Equal(t, 3, instanceCount(t, st, id))

	// Shrinking the set on rematerialization drops the extra rows
	require.NoError(t, st.InTx(context.Background(), func(tx *store.Tx) error {
		_, err := tx.Update(context.Background(), "tasks", id, map[string]any{
			entity.ColInstancesStale: int64(1),
		})
		return err
	}))
	run(t, st, New(time.UTC, fanOut{offsets: []int64{0, day}}, slog.Default()))

	assert.Equal(t, 2, instanceCount(t, st, id))
}

func TestRun_ExpanderErrorAborts(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart: startMs,
		entity.ColRRule:   "FREQ=DAILY",
	})

	boom := errors.New("bad rule")
	m := New(time.UTC, fanOut{err: boom}, slog.Default())
	err := st.InTx(context.Background(), func(tx *store.Tx) error {
		return m.Run(context.Background(), tx)
	})
	require.ErrorIs(t, err, boom)

	assert.Zero(t, instanceCount(t, st, id), "the failed transaction left nothing")
	assert.Equal(t, int64(1), staleFlag(t, st, id), "the task stays stale for a retry")
}

func TestRun_TimedSortKeyUsesConfiguredZone(t *testing.T) {
	st := testutil.OpenStore(t)
	listID := testutil.SeedList(t, st)
	id := testutil.SeedTask(t, st, listID, map[string]any{
		entity.ColDTStart: startMs, // 2024-01-01T09:00Z = 10:00 Berlin
	})

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	run(t, st, New(berlin, nil, slog.Default()))

	occ := readInstance(t, st, id)
	want := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, occ.StartSorting.Int64)
}
