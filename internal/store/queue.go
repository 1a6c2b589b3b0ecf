package store

import (
	"context"
	"fmt"
)

// TaskFunc is a unit of deferred work that runs at transaction end, after all
// requested mutations and before commit. It must be idempotent: the queue
// guarantees at most one execution per transaction, and a re-run in a later
// transaction must be safe.
type TaskFunc func(ctx context.Context, tx *Tx) error

// taskQueue is the per-transaction set of deferred tasks.
//
// Registration is keyed by logical task name: registering the same name more
// than once in one transaction is a no-op after the first. At-most-once
// execution is a hard invariant, not an optimization - the instance
// materializer scans a whole table and must not run redundantly.
//
// Tasks run in registration order.
type taskQueue struct {
	order []string
	tasks map[string]TaskFunc
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks: make(map[string]TaskFunc),
	}
}

// register adds a task under its logical name.
// Returns true if the task was newly registered, false if the name was
// already pending (mirrors the inserted flag of an idempotent write).
func (q *taskQueue) register(name string, fn TaskFunc) bool {
	if _, exists := q.tasks[name]; exists {
		return false
	}
	q.tasks[name] = fn
	q.order = append(q.order, name)
	return true
}

// runAll executes every registered task exactly once, in registration order.
// The first failure aborts; the caller rolls the whole transaction back.
func (q *taskQueue) runAll(ctx context.Context, tx *Tx) error {
	for _, name := range q.order {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("transaction-end task %s: %w", name, err)
		}
		if err := q.tasks[name](ctx, tx); err != nil {
			return fmt.Errorf("transaction-end task %s: %w", name, err)
		}
	}
	return nil
}

// len returns the number of pending tasks.
func (q *taskQueue) len() int {
	return len(q.order)
}
