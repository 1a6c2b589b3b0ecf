package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Tx is one storage transaction plus its transaction-end task queue.
// All pipeline writes go through a Tx; nothing writes outside one.
type Tx struct {
	tx    *sql.Tx
	queue *taskQueue
}

// InTx runs fn inside a single transaction.
//
// After fn returns successfully, every transaction-end task registered via
// Register runs exactly once, in registration order, and only then does the
// transaction commit. Any error - from fn, from a task, or from commit -
// rolls back everything: entity mutations and derived writes never commit
// partially.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	tx := &Tx{tx: sqlTx, queue: newTaskQueue()}

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.queue.runAll(ctx, tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			slog.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Register adds a deferred task under its logical name. Registering the same
// name again within this transaction is a no-op; returns true only for the
// first registration.
func (t *Tx) Register(name string, fn TaskFunc) bool {
	return t.queue.register(name, fn)
}

// PendingTasks returns how many transaction-end tasks are registered.
func (t *Tx) PendingTasks() int {
	return t.queue.len()
}
