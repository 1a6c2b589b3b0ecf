package pipeline

import "github.com/roach88/taskstore/internal/entity"

// commitAdapter is the terminal stage for inserts and updates: it persists
// all touched fields as one atomic row write.
func commitAdapter(oc *opContext) error {
	if _, err := oc.adapter.Commit(oc.ctx, oc.tx); err != nil {
		return storageFailure(oc.adapter.Kind(), err)
	}
	oc.log.Debug("row committed",
		"id", oc.adapter.ID(), "columns", oc.adapter.TouchedColumns())
	return nil
}

// deleteRow is the terminal stage for deletes: a direct delete keyed by
// identifier. Existence was established when the row was loaded, and the
// single-writer model keeps it stable until commit.
func deleteRow(oc *opContext) error {
	kind := oc.adapter.Kind()
	n, err := oc.tx.Delete(oc.ctx, kind.Table(), entity.ColID+" = ?", oc.adapter.ID())
	if err != nil {
		return storageFailure(kind, err)
	}
	if n == 0 {
		return notFound(kind, oc.adapter.ID())
	}
	return nil
}
