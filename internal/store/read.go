package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ListRow is one task list as read from storage.
type ListRow struct {
	ID          int64   `json:"id"`
	AccountName string  `json:"account_name"`
	AccountType string  `json:"account_type"`
	Name        string  `json:"name"`
	Color       *int64  `json:"color"`
	Visible     bool    `json:"visible"`
	SyncEnabled bool    `json:"sync_enabled"`
	SyncID      *string `json:"sync_id"`
	SyncVersion *string `json:"sync_version"`
	Owner       *string `json:"owner"`
}

// TaskRow is one task as read from storage.
type TaskRow struct {
	ID              int64   `json:"id"`
	ListID          int64   `json:"list_id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Status          int64   `json:"status"`
	PercentComplete int64   `json:"percent_complete"`
	Start           *int64  `json:"start"`
	Due             *int64  `json:"due"`
	TZ              *string `json:"tz"`
	AllDay          bool    `json:"all_day"`
	Duration        *string `json:"duration"`
	RRule           *string `json:"rrule"`
	InstancesStale  bool    `json:"instances_stale"`
}

// AgendaRow is one materialized instance joined with its task.
type AgendaRow struct {
	TaskID       int64  `json:"task_id"`
	ListID       int64  `json:"list_id"`
	Title        string `json:"title"`
	Status       int64  `json:"status"`
	Start        *int64 `json:"instance_start"`
	StartSorting *int64 `json:"instance_start_sorting"`
	Due          *int64 `json:"instance_due"`
	DueSorting   *int64 `json:"instance_due_sorting"`
	Duration     *int64 `json:"instance_duration"`
}

// Lists returns all task lists, ordered deterministically by identifier.
func (s *Store) Lists(ctx context.Context) ([]ListRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT _id, account_name, account_type, name, color, visible,
		       sync_enabled, sync_id, sync_version, owner
		FROM lists
		ORDER BY _id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query lists: %w", err)
	}
	defer rows.Close()

	lists := []ListRow{}
	for rows.Next() {
		var l ListRow
		var name sql.NullString
		var color sql.NullInt64
		var syncID, syncVersion, owner sql.NullString
		if err := rows.Scan(&l.ID, &l.AccountName, &l.AccountType, &name,
			&color, &l.Visible, &l.SyncEnabled, &syncID, &syncVersion, &owner); err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		l.Name = name.String
		l.Color = nullInt(color)
		l.SyncID = nullStr(syncID)
		l.SyncVersion = nullStr(syncVersion)
		l.Owner = nullStr(owner)
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return lists, nil
}

// Tasks returns all tasks of a list (or of every list when listID is 0),
// ordered deterministically by identifier.
func (s *Store) Tasks(ctx context.Context, listID int64) ([]TaskRow, error) {
	query := `
		SELECT _id, list_id, title, description, status, percent_complete,
		       dtstart, due, tz, is_allday, duration, rrule, instances_stale
		FROM tasks
	`
	args := []any{}
	if listID != 0 {
		query += " WHERE list_id = ?"
		args = append(args, listID)
	}
	query += " ORDER BY _id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []TaskRow{}
	for rows.Next() {
		var t TaskRow
		var title, description sql.NullString
		var start, due sql.NullInt64
		var tz, duration, rrule sql.NullString
		if err := rows.Scan(&t.ID, &t.ListID, &title, &description, &t.Status,
			&t.PercentComplete, &start, &due, &tz, &t.AllDay,
			&duration, &rrule, &t.InstancesStale); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Title = title.String
		t.Description = description.String
		t.Start = nullInt(start)
		t.Due = nullInt(due)
		t.TZ = nullStr(tz)
		t.Duration = nullStr(duration)
		t.RRule = nullStr(rrule)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Agenda returns materialized instances joined with their tasks, ordered by
// due sorting value (undated instances last), then by task identifier for
// deterministic results.
//
// from and to bound the due sorting value; either may be 0 for unbounded.
func (s *Store) Agenda(ctx context.Context, from, to int64) ([]AgendaRow, error) {
	query := `
		SELECT i.task_id, t.list_id, t.title, t.status,
		       i.instance_start, i.instance_start_sorting,
		       i.instance_due, i.instance_due_sorting, i.instance_duration
		FROM instances i
		JOIN tasks t ON i.task_id = t._id
	`
	where := []string{}
	args := []any{}
	if from != 0 {
		where = append(where, "i.instance_due_sorting >= ?")
		args = append(args, from)
	}
	if to != 0 {
		where = append(where, "i.instance_due_sorting < ?")
		args = append(args, to)
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += `
		ORDER BY i.instance_due_sorting IS NULL,
		         i.instance_due_sorting ASC,
		         i.task_id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query agenda: %w", err)
	}
	defer rows.Close()

	agenda := []AgendaRow{}
	for rows.Next() {
		var a AgendaRow
		var title sql.NullString
		var start, startSorting, due, dueSorting, duration sql.NullInt64
		if err := rows.Scan(&a.TaskID, &a.ListID, &title, &a.Status,
			&start, &startSorting, &due, &dueSorting, &duration); err != nil {
			return nil, fmt.Errorf("scan agenda row: %w", err)
		}
		a.Title = title.String
		a.Start = nullInt(start)
		a.StartSorting = nullInt(startSorting)
		a.Due = nullInt(due)
		a.DueSorting = nullInt(dueSorting)
		a.Duration = nullInt(duration)
		agenda = append(agenda, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agenda: %w", err)
	}
	return agenda, nil
}

func nullInt(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
