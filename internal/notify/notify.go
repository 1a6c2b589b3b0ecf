// Package notify reports committed entity changes to observers.
//
// Notification is fire-and-forget: it happens after the transaction has
// committed, and no outcome of it ever flows back into the pipeline.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/taskstore/internal/entity"
)

// Notifier receives the canonical URIs of rows changed by a committed
// transaction.
type Notifier interface {
	Notify(ctx context.Context, uris []string)
}

// EntityURI returns the canonical URI of one entity row.
func EntityURI(kind entity.Kind, id int64) string {
	return fmt.Sprintf("content://taskstore/%s/%d", kind.Table(), id)
}

// InstancesURI returns the URI observers watch for derived-view changes.
func InstancesURI() string {
	return "content://taskstore/instances"
}

// LogNotifier logs notifications instead of delivering them. The default
// collaborator for a local store without observers.
type LogNotifier struct {
	Log *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, uris []string) {
	log := n.Log
	if log == nil {
		log = slog.Default()
	}
	log.Debug("change notification", "uris", uris)
}

// Func adapts a function to the Notifier interface.
type Func func(ctx context.Context, uris []string)

// Notify implements Notifier.
func (f Func) Notify(ctx context.Context, uris []string) {
	f(ctx, uris)
}
