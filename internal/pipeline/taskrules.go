package pipeline

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/store"
)

// materializeTaskName is the logical identity of the materializer job in the
// transaction-end queue. Registering it twice in one transaction is a no-op.
const materializeTaskName = "materialize-instances"

// validateTaskFields enforces field-level and cross-field task rules shared
// by insert and update, and applies the status/percent coupling.
func validateTaskFields(oc *opContext) error {
	a := oc.adapter

	if a.IsUpdated(entity.ColStatus) {
		st, ok, err := a.Int64(entity.ColStatus)
		if err != nil {
			return invalidArgument(entity.KindTask, entity.ColStatus, err.Error())
		}
		if !ok || !entity.Status(st).IsValid() {
			return invalidArgument(entity.KindTask, entity.ColStatus, "not a valid status")
		}
	}

	if a.IsUpdated(entity.ColPercentComplete) {
		pct, ok, err := a.Int64(entity.ColPercentComplete)
		if err != nil {
			return invalidArgument(entity.KindTask, entity.ColPercentComplete, err.Error())
		}
		if !ok || pct < 0 || pct > 100 {
			return invalidArgument(entity.KindTask, entity.ColPercentComplete, "must be between 0 and 100")
		}
	}

	if a.IsUpdated(entity.ColTZ) {
		tz, ok, err := a.String(entity.ColTZ)
		if err != nil {
			return invalidArgument(entity.KindTask, entity.ColTZ, err.Error())
		}
		if ok && tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return invalidArgument(entity.KindTask, entity.ColTZ, fmt.Sprintf("unknown timezone %q", tz))
			}
		}
	}

	if a.IsUpdated(entity.ColDuration) {
		dur, ok, err := a.String(entity.ColDuration)
		if err != nil {
			return invalidArgument(entity.KindTask, entity.ColDuration, err.Error())
		}
		if ok && dur != "" {
			if _, err := entity.ParseDuration(dur); err != nil {
				return invalidArgument(entity.KindTask, entity.ColDuration, err.Error())
			}
		}
	}

	// Due and duration must not both be authoritative: duration is only
	// interpretable relative to start, and a present due supersedes it.
	_, hasDue, err := a.Int64(entity.ColDue)
	if err != nil {
		return invalidArgument(entity.KindTask, entity.ColDue, err.Error())
	}
	dur, hasDur, err := a.String(entity.ColDuration)
	if err != nil {
		return invalidArgument(entity.KindTask, entity.ColDuration, err.Error())
	}
	if hasDue && hasDur && dur != "" {
		return invalidArgument(entity.KindTask, entity.ColDuration, "a task may carry due or duration, not both")
	}

	return applyStatusPercentCoupling(oc)
}

// applyStatusPercentCoupling keeps percent-complete consistent with status:
//
//   - NEEDS_ACTION forces percent 0
//   - COMPLETED defaults percent to 100 when the caller did not set one
//   - COMPLETED → IN_PROCESS resets a still-complete percent to 50, the
//     sync-friendly default
func applyStatusPercentCoupling(oc *opContext) error {
	a := oc.adapter
	if !a.IsUpdated(entity.ColStatus) {
		return nil
	}

	st, _, err := a.Int64(entity.ColStatus)
	if err != nil {
		return invalidArgument(entity.KindTask, entity.ColStatus, err.Error())
	}

	switch entity.Status(st) {
	case entity.StatusNeedsAction:
		a.Set(entity.ColPercentComplete, int64(0))

	case entity.StatusCompleted:
		if !a.IsUpdated(entity.ColPercentComplete) {
			a.Set(entity.ColPercentComplete, int64(100))
		}

	case entity.StatusInProcess:
		old, wasSet, err := a.OldInt64(entity.ColStatus)
		if err != nil {
			return invalidArgument(entity.KindTask, entity.ColStatus, err.Error())
		}
		if wasSet && entity.Status(old) == entity.StatusCompleted {
			pct, _, err := a.Int64(entity.ColPercentComplete)
			if err != nil {
				return invalidArgument(entity.KindTask, entity.ColPercentComplete, err.Error())
			}
			if !a.IsUpdated(entity.ColPercentComplete) || pct == 100 {
				a.Set(entity.ColPercentComplete, int64(50))
			}
		}
	}

	return nil
}

// validateTaskInsert requires an owning list that exists.
func validateTaskInsert(oc *opContext) error {
	if oc.adapter.IsUpdated(entity.ColID) {
		return invalidArgument(entity.KindTask, entity.ColID, "identifier is assigned by storage")
	}

	listID, ok, err := oc.adapter.Int64(entity.ColListID)
	if err != nil {
		return invalidArgument(entity.KindTask, entity.ColListID, err.Error())
	}
	if !ok {
		return invalidArgument(entity.KindTask, entity.ColListID, "owning list is required")
	}

	return requireList(oc, listID)
}

// validateTaskUpdate gates the write-once identifier and keeps a moved task
// pointing at an existing list.
func validateTaskUpdate(oc *opContext) error {
	if oc.adapter.IsUpdated(entity.ColID) {
		return invalidArgument(entity.KindTask, entity.ColID, "identifier is write-once")
	}

	if oc.adapter.IsUpdated(entity.ColListID) {
		listID, ok, err := oc.adapter.Int64(entity.ColListID)
		if err != nil {
			return invalidArgument(entity.KindTask, entity.ColListID, err.Error())
		}
		if !ok {
			return invalidArgument(entity.KindTask, entity.ColListID, "owning list is required")
		}
		if err := requireList(oc, listID); err != nil {
			return err
		}
	}

	return nil
}

func requireList(oc *opContext, listID int64) error {
	_, err := oc.tx.Get(oc.ctx, entity.KindList.Table(), listID)
	if errors.Is(err, sql.ErrNoRows) {
		return invalidArgument(entity.KindTask, entity.ColListID,
			fmt.Sprintf("list %d does not exist", listID))
	}
	if err != nil {
		return storageFailure(entity.KindTask, err)
	}
	return nil
}

// markInstancesStale builds the side-effect stage for task mutations.
//
// Every insert marks the task stale (the first materialization creates its
// instance row); an update only when a timing-relevant field was touched.
// The materializer is registered once per transaction regardless of how many
// tasks went stale.
func markInstancesStale(materialize store.TaskFunc) func(*opContext) error {
	return func(oc *opContext) error {
		stale := oc.adapter.IsInsert()
		if !stale {
			for _, col := range entity.TimingColumns {
				if oc.adapter.IsUpdated(col) {
					stale = true
					break
				}
			}
		}
		if !stale {
			return nil
		}

		oc.adapter.Set(entity.ColInstancesStale, int64(1))
		if oc.tx.Register(materializeTaskName, materialize) {
			oc.log.Debug("materializer registered for transaction")
		}
		return nil
	}
}
