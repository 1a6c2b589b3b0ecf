package instances

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/store"
)

// Materializer rebuilds instance rows for tasks flagged stale.
type Materializer struct {
	local    *time.Location
	expander Expander
	log      *slog.Logger
}

// New creates a materializer. local is the zone timed values sort in
// (nil means time.Local); expander may be nil for the single-occurrence
// default.
func New(local *time.Location, expander Expander, log *slog.Logger) *Materializer {
	if local == nil {
		local = time.Local
	}
	if expander == nil {
		expander = SingleOccurrence{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Materializer{local: local, expander: expander, log: log}
}

// staleTask is one row of the stale scan.
type staleTask struct {
	id       int64
	start    sql.NullInt64
	due      sql.NullInt64
	duration sql.NullString
	tz       sql.NullString
	allDay   bool
	rrule    sql.NullString
}

// Run recomputes the instance rows of every stale task and clears the flag.
// Registered with the transaction-end queue by the pipeline; it therefore
// always observes the final post-batch entity state.
func (m *Materializer) Run(ctx context.Context, tx *store.Tx) error {
	stale, err := m.scanStale(ctx, tx)
	if err != nil {
		return err
	}

	for _, t := range stale {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("materialize: %w", err)
		}
		if err := m.materializeTask(ctx, tx, t); err != nil {
			return err
		}
		if _, err := tx.Update(ctx, entity.KindTask.Table(), t.id,
			map[string]any{entity.ColInstancesStale: int64(0)}); err != nil {
			return fmt.Errorf("clear stale flag for task %d: %w", t.id, err)
		}
	}

	m.log.Debug("instances materialized", "tasks", len(stale))
	return nil
}

// scanStale collects every stale task up front so no cursor stays open while
// the loop writes.
func (m *Materializer) scanStale(ctx context.Context, tx *store.Tx) ([]staleTask, error) {
	rows, err := tx.Query(ctx, `
		SELECT _id, dtstart, due, duration, tz, is_allday, rrule
		FROM tasks
		WHERE instances_stale = 1
		ORDER BY _id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("scan stale tasks: %w", err)
	}
	defer rows.Close()

	var stale []staleTask
	for rows.Next() {
		var t staleTask
		if err := rows.Scan(&t.id, &t.start, &t.due, &t.duration, &t.tz, &t.allDay, &t.rrule); err != nil {
			return nil, fmt.Errorf("scan stale task: %w", err)
		}
		stale = append(stale, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale tasks: %w", err)
	}
	return stale, nil
}

// materializeTask resolves the base occurrence, expands recurrence, and
// writes the task's instance rows.
func (m *Materializer) materializeTask(ctx context.Context, tx *store.Tx, t staleTask) error {
	base := m.resolve(t)

	occs := []Occurrence{base}
	if t.rrule.Valid && t.rrule.String != "" {
		expanded, err := m.expander.Expand(t.rrule.String, base)
		if err != nil {
			return fmt.Errorf("expand recurrence for task %d: %w", t.id, err)
		}
		occs = expanded
	}

	if len(occs) == 1 {
		return m.upsertSingle(ctx, tx, t.id, occs[0])
	}
	return m.replaceAll(ctx, tx, t.id, occs)
}

// resolve computes the derived fields of the base occurrence.
//
// Priority order: a present due materializes directly; otherwise a duration
// is applied to a present start; otherwise due, due-sort, and duration are
// all absent. Duration without start is benign - it must never produce a due
// date, and absent is a legal derived state, not an error.
func (m *Materializer) resolve(t staleTask) Occurrence {
	var occ Occurrence
	tz := t.tz.String

	if t.start.Valid {
		occ.Start = t.start
		occ.StartSorting = validInt(sortKey(t.start.Int64, t.allDay, m.local))
	}

	switch {
	case t.due.Valid:
		occ.Due = t.due
		occ.DueSorting = validInt(sortKey(t.due.Int64, t.allDay, m.local))
		if t.start.Valid {
			occ.Duration = validInt(t.due.Int64 - t.start.Int64)
		}

	case t.duration.Valid && t.duration.String != "" && t.start.Valid:
		d, err := entity.ParseDuration(t.duration.String)
		if err != nil {
			// Unparseable durations are filtered by validation; a raw row
			// that slipped past stays absent.
			m.log.Warn("ignoring malformed duration", "task", t.id, "duration", t.duration.String)
			return occ
		}
		due := addDuration(t.start.Int64, d, t.allDay, tz)
		occ.Due = validInt(due)
		occ.DueSorting = validInt(sortKey(due, t.allDay, m.local))
		occ.Duration = validInt(due - t.start.Int64)
	}

	return occ
}

// upsertSingle writes the sole instance row of a non-recurring task.
//
// Update first, insert on zero rows affected: instance rows are never created
// by external callers, so the first materialization for a task is what
// creates its row.
func (m *Materializer) upsertSingle(ctx context.Context, tx *store.Tx, taskID int64, occ Occurrence) error {
	cols := occurrenceColumns(occ)

	n, err := tx.Exec(ctx, `
		UPDATE instances
		SET instance_start = ?, instance_start_sorting = ?,
		    instance_due = ?, instance_due_sorting = ?, instance_duration = ?
		WHERE task_id = ?
	`, cols[0], cols[1], cols[2], cols[3], cols[4], taskID)
	if err != nil {
		return fmt.Errorf("update instance for task %d: %w", taskID, err)
	}

	affected, err := n.RowsAffected()
	if err != nil {
		return fmt.Errorf("update instance for task %d: rows affected: %w", taskID, err)
	}
	if affected > 0 {
		return nil
	}

	if err := m.insertOccurrence(ctx, tx, taskID, occ); err != nil {
		return err
	}
	return nil
}

// replaceAll swaps the full instance set of a recurring task.
func (m *Materializer) replaceAll(ctx context.Context, tx *store.Tx, taskID int64, occs []Occurrence) error {
	if _, err := tx.Delete(ctx, "instances", "task_id = ?", taskID); err != nil {
		return fmt.Errorf("clear instances for task %d: %w", taskID, err)
	}
	for _, occ := range occs {
		if err := m.insertOccurrence(ctx, tx, taskID, occ); err != nil {
			return err
		}
	}
	return nil
}

func (m *Materializer) insertOccurrence(ctx context.Context, tx *store.Tx, taskID int64, occ Occurrence) error {
	cols := occurrenceColumns(occ)
	_, err := tx.Exec(ctx, `
		INSERT INTO instances
		(task_id, instance_start, instance_start_sorting,
		 instance_due, instance_due_sorting, instance_duration)
		VALUES (?, ?, ?, ?, ?, ?)
	`, taskID, cols[0], cols[1], cols[2], cols[3], cols[4])
	if err != nil {
		return fmt.Errorf("insert instance for task %d: %w", taskID, err)
	}
	return nil
}

// occurrenceColumns flattens an occurrence into SQL arguments, absent fields
// as NULL.
func occurrenceColumns(occ Occurrence) [5]any {
	return [5]any{
		nullable(occ.Start),
		nullable(occ.StartSorting),
		nullable(occ.Due),
		nullable(occ.DueSorting),
		nullable(occ.Duration),
	}
}

func nullable(n sql.NullInt64) any {
	if !n.Valid {
		return nil
	}
	return n.Int64
}

func validInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}
