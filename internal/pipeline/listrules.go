package pipeline

import (
	"github.com/roach88/taskstore/internal/entity"
)

// listPrivilegedColumns may only be touched on update by a privileged
// (synchronization) caller. Interactive callers are restricted to the
// visibility toggles.
var listPrivilegedColumns = []string{
	entity.ColSyncID,
	entity.ColSyncVersion,
	entity.ColOwner,
	entity.ColColor,
	entity.ColListName,
}

// validateListInsert enforces the list creation rules: only a privileged
// caller may create lists, and the account identity must be complete.
func validateListInsert(oc *opContext) error {
	if !oc.req.Privileged {
		return unauthorized(entity.KindList, "only a sync caller may create lists")
	}

	if oc.adapter.IsUpdated(entity.ColID) {
		return invalidArgument(entity.KindList, entity.ColID, "identifier is assigned by storage")
	}

	for _, col := range []string{entity.ColAccountName, entity.ColAccountType} {
		v, ok, err := oc.adapter.String(col)
		if err != nil {
			return invalidArgument(entity.KindList, col, err.Error())
		}
		if !ok || v == "" {
			return invalidArgument(entity.KindList, col, "must be non-empty")
		}
	}

	return nil
}

// validateListUpdate gates write-once and privileged-only columns.
func validateListUpdate(oc *opContext) error {
	if oc.adapter.IsUpdated(entity.ColID) {
		return invalidArgument(entity.KindList, entity.ColID, "identifier is write-once")
	}

	// Account identity is write-once for every caller. Re-sending the
	// stored value is tolerated; sync callers tend to write full rows.
	for _, col := range []string{entity.ColAccountName, entity.ColAccountType} {
		if !oc.adapter.IsUpdated(col) {
			continue
		}
		newVal, _, err := oc.adapter.String(col)
		if err != nil {
			return invalidArgument(entity.KindList, col, err.Error())
		}
		oldVal, _, err := oc.adapter.OldString(col)
		if err != nil {
			return invalidArgument(entity.KindList, col, err.Error())
		}
		if newVal != oldVal {
			return invalidArgument(entity.KindList, col, "account identity is write-once")
		}
	}

	if !oc.req.Privileged {
		for _, col := range listPrivilegedColumns {
			if oc.adapter.IsUpdated(col) {
				return unauthorized(entity.KindList, "column "+col+" requires a sync caller")
			}
		}
	}

	return nil
}

// validateListDelete restricts list deletion to privileged callers.
// Owned tasks cascade at the storage layer.
func validateListDelete(oc *opContext) error {
	if !oc.req.Privileged {
		return unauthorized(entity.KindList, "only a sync caller may delete lists")
	}
	return nil
}
