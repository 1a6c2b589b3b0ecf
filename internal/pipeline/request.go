package pipeline

import "github.com/roach88/taskstore/internal/entity"

// Operation identifies what a mutation request does to its entity.
type Operation int

const (
	// OpInsert creates a new row.
	OpInsert Operation = iota + 1
	// OpUpdate modifies an existing row.
	OpUpdate
	// OpDelete removes an existing row.
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MutationRequest is one requested entity mutation.
//
// Privileged marks a synchronization caller. It travels with the request and
// is explicit at every stage; nothing recovers it from ambient state.
type MutationRequest struct {
	// Kind selects the entity (list or task).
	Kind entity.Kind

	// Op selects insert, update, or delete.
	Op Operation

	// ID is the target row for updates and deletes. Ignored for inserts.
	ID int64

	// Fields holds the explicitly set column values.
	Fields map[string]any

	// Privileged grants synchronization-caller rights.
	Privileged bool
}

// Result is the outcome of one committed mutation.
type Result struct {
	Kind entity.Kind
	Op   Operation

	// ID is the authoritative row identifier (fresh for inserts).
	ID int64

	// Row is the committed entity snapshot. Nil for deletes.
	Row map[string]any
}
