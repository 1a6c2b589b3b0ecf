// Package store provides SQLite-backed storage for task lists, tasks, and the
// derived instances view.
//
// Three tables:
//   - lists: task lists, provisioned by sync callers
//   - tasks: tasks owned by a list (ON DELETE CASCADE)
//   - instances: derived timing rows, owned entirely by the materializer
//
// All writes go through InTx, which owns the transaction boundary and the
// transaction-end task queue: deferred tasks registered during the
// transaction run at most once each, in registration order, after every
// requested mutation and before commit. A failing task rolls the whole
// transaction back; there is no partial-commit path.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce list→task→instance ownership
//
// The connection pool is capped at a single connection: the pipeline is a
// single-writer system and serializing on one connection avoids SQLITE_BUSY.
package store
