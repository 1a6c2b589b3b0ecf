package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// Get retrieves a single row by identifier as a column→value map.
// Returns sql.ErrNoRows if not found.
func (t *Tx) Get(ctx context.Context, table string, id int64) (map[string]any, error) {
	rows, err := t.tx.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s WHERE _id = ?", table), id)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", table, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get %s %d: %w", table, id, err)
		}
		return nil, sql.ErrNoRows
	}

	row, err := scanRowMap(rows)
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", table, id, err)
	}
	return row, nil
}

// Insert writes a new row from a column→value map and returns its identifier.
func (t *Tx) Insert(ctx context.Context, table string, values map[string]any) (int64, error) {
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	// Deterministic statement text regardless of map iteration order
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	for _, col := range cols {
		args = append(args, values[col])
		placeholders = append(placeholders, "?")
	}

	var query string
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	} else {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	}

	result, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last insert id: %w", table, err)
	}
	return id, nil
}

// Update writes the given columns to the row with the given identifier.
// Returns the number of rows affected (0 when the row is absent).
func (t *Tx) Update(ctx context.Context, table string, id int64, values map[string]any) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("update %s %d: no columns", table, id)
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, col+" = ?")
		args = append(args, values[col])
	}
	args = append(args, id)

	result, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET %s WHERE _id = ?", table, strings.Join(sets, ", ")),
		args...)
	if err != nil {
		return 0, fmt.Errorf("update %s %d: %w", table, id, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update %s %d: rows affected: %w", table, id, err)
	}
	return n, nil
}

// Delete removes rows matching the where clause.
// Returns the number of rows affected.
func (t *Tx) Delete(ctx context.Context, table, where string, args ...any) (int64, error) {
	result, err := t.tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete %s: rows affected: %w", table, err)
	}
	return n, nil
}

// Query executes a query within the transaction.
// Callers are responsible for closing the returned rows.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

// Exec executes a statement within the transaction.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// scanRowMap reads the current row into a column→value map, normalizing
// []byte text to string.
func scanRowMap(rows *sql.Rows) (map[string]any, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	row := make(map[string]any, len(cols))
	for i, col := range cols {
		if b, ok := vals[i].([]byte); ok {
			row[col] = string(b)
			continue
		}
		row[col] = vals[i]
	}
	return row, nil
}
