package entity

import (
	"context"
	"fmt"
)

// Writer is the minimal row-write surface Commit persists through.
// *store.Tx satisfies it.
type Writer interface {
	Insert(ctx context.Context, table string, values map[string]any) (int64, error)
	Update(ctx context.Context, table string, id int64, values map[string]any) (int64, error)
}

// Adapter is the working view of one entity row during a single operation.
//
// For updates it holds both the loaded row (old values) and the pending
// values the operation set, so processors can compare the two. For inserts
// there is no loaded row and every effective value comes from the pending
// set.
type Adapter struct {
	kind    Kind
	id      int64
	insert  bool
	loaded  *Values
	pending *Values
}

// NewInsert returns an adapter for a row that does not exist yet.
func NewInsert(kind Kind, pending *Values) *Adapter {
	if pending == nil {
		pending = NewValues()
	}
	return &Adapter{kind: kind, insert: true, pending: pending}
}

// NewUpdate returns an adapter over a loaded row with pending changes.
// Also used for deletes, with an empty pending set.
func NewUpdate(kind Kind, id int64, loaded, pending *Values) *Adapter {
	if loaded == nil {
		loaded = NewValues()
	}
	if pending == nil {
		pending = NewValues()
	}
	return &Adapter{kind: kind, id: id, loaded: loaded, pending: pending}
}

// Kind returns the entity kind this adapter wraps.
func (a *Adapter) Kind() Kind { return a.kind }

// ID returns the row identifier. Zero until an insert has committed.
func (a *Adapter) ID() int64 { return a.id }

// IsInsert reports whether the row is being created by this operation.
func (a *Adapter) IsInsert() bool { return a.insert }

// IsUpdated reports whether the current operation explicitly set the column.
func (a *Adapter) IsUpdated(col string) bool {
	return a.pending.IsSet(col)
}

// Set stores a pending value for the column. Used by processors that derive
// one field from another (e.g. the percent-complete coupling).
func (a *Adapter) Set(col string, val any) {
	a.pending.Set(col, val)
}

// effective returns the Values holding the post-mutation value of col.
func (a *Adapter) effective(col string) *Values {
	if a.insert || a.pending.IsSet(col) {
		return a.pending
	}
	return a.loaded
}

// String returns the effective (post-mutation) value of a string column.
func (a *Adapter) String(col string) (string, bool, error) {
	return a.effective(col).String(col)
}

// Int64 returns the effective (post-mutation) value of an integer column.
func (a *Adapter) Int64(col string) (int64, bool, error) {
	return a.effective(col).Int64(col)
}

// Bool returns the effective (post-mutation) value of a boolean column.
func (a *Adapter) Bool(col string) (bool, bool, error) {
	return a.effective(col).Bool(col)
}

// OldInt64 returns the pre-mutation value of an integer column.
// Always absent for inserts.
func (a *Adapter) OldInt64(col string) (int64, bool, error) {
	if a.insert {
		return 0, false, nil
	}
	return a.loaded.Int64(col)
}

// OldString returns the pre-mutation value of a string column.
func (a *Adapter) OldString(col string) (string, bool, error) {
	if a.insert {
		return "", false, nil
	}
	return a.loaded.String(col)
}

// TouchedColumns returns the columns this operation set, in sorted order.
func (a *Adapter) TouchedColumns() []string {
	return a.pending.TouchedColumns()
}

// Commit persists all touched columns as one atomic row write and returns
// the authoritative row identifier (the fresh identifier for inserts).
// An update that touched nothing is a no-op.
func (a *Adapter) Commit(ctx context.Context, w Writer) (int64, error) {
	touched := a.pending.Touched()

	if a.insert {
		id, err := w.Insert(ctx, a.kind.Table(), touched)
		if err != nil {
			return 0, fmt.Errorf("commit %s insert: %w", a.kind, err)
		}
		a.id = id
		return id, nil
	}

	if len(touched) == 0 {
		return a.id, nil
	}

	n, err := w.Update(ctx, a.kind.Table(), a.id, touched)
	if err != nil {
		return 0, fmt.Errorf("commit %s update: %w", a.kind, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("commit %s update: row %d vanished", a.kind, a.id)
	}
	return a.id, nil
}
