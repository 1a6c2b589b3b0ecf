package instances

import "database/sql"

// Occurrence is the materialized timing of one concrete occurrence of a task.
type Occurrence struct {
	Start        sql.NullInt64
	StartSorting sql.NullInt64
	Due          sql.NullInt64
	DueSorting   sql.NullInt64
	Duration     sql.NullInt64
}

// Expander turns a recurrence rule and a base occurrence into the finite
// occurrence set of a task. An empty rule means exactly one occurrence, the
// base itself.
type Expander interface {
	Expand(rule string, base Occurrence) ([]Occurrence, error)
}

// SingleOccurrence is the default expander: every task has exactly one
// occurrence regardless of rule.
type SingleOccurrence struct{}

// Expand implements Expander.
func (SingleOccurrence) Expand(rule string, base Occurrence) ([]Occurrence, error) {
	return []Occurrence{base}, nil
}
