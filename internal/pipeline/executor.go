package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/notify"
	"github.com/roach88/taskstore/internal/store"
)

// Executor applies mutation batches through the processor chains.
//
// One Apply call is one storage transaction: every request runs in caller
// order, transaction-end tasks (the materializer) run once after the last
// request, and only then does the transaction commit. Observers are notified
// after commit, never before.
type Executor struct {
	store    *store.Store
	chains   map[chainKey]chain
	notifier notify.Notifier
	log      *slog.Logger
}

// NewExecutor wires the executor. materialize is the transaction-end job that
// rebuilds the instances view; notifier may be nil for a silent store.
func NewExecutor(st *store.Store, materialize store.TaskFunc, notifier notify.Notifier, log *slog.Logger) *Executor {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		store:    st,
		chains:   newChains(materialize),
		notifier: notifier,
		log:      log,
	}
}

// Apply runs the requests in order inside a single transaction and returns
// one result per request. On any error nothing is committed and no result is
// returned.
func (e *Executor) Apply(ctx context.Context, reqs []MutationRequest) ([]Result, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	log := e.log.With("op_token", newOpToken())

	results := make([]Result, 0, len(reqs))
	uris := make([]string, 0, len(reqs)+1)
	tasksTouched := false

	err := e.store.InTx(ctx, func(tx *store.Tx) error {
		for i, req := range reqs {
			res, err := e.applyOne(ctx, tx, req, log)
			if err != nil {
				return fmt.Errorf("operation %d (%s %s): %w", i, req.Kind, req.Op, err)
			}
			results = append(results, res)
			uris = append(uris, notify.EntityURI(req.Kind, res.ID))
			if req.Kind == entity.KindTask {
				tasksTouched = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if tasksTouched {
		uris = append(uris, notify.InstancesURI())
	}
	e.notifier.Notify(ctx, uris)

	log.Info("batch committed", "operations", len(reqs))
	return results, nil
}

// applyOne builds the adapter for one request and runs its chain.
func (e *Executor) applyOne(ctx context.Context, tx *store.Tx, req MutationRequest, log *slog.Logger) (Result, error) {
	c, ok := e.chains[chainKey{req.Kind, req.Op}]
	if !ok {
		return Result{}, invalidArgument(req.Kind, "", fmt.Sprintf("unsupported operation %s", req.Op))
	}

	pending := entity.NewValues()
	for col, val := range req.Fields {
		pending.Set(col, val)
	}

	var adapter *entity.Adapter
	switch req.Op {
	case OpInsert:
		adapter = entity.NewInsert(req.Kind, pending)
	case OpUpdate, OpDelete:
		row, err := tx.Get(ctx, req.Kind.Table(), req.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, notFound(req.Kind, req.ID)
		}
		if err != nil {
			return Result{}, storageFailure(req.Kind, err)
		}
		adapter = entity.NewUpdate(req.Kind, req.ID, entity.FromRow(row), pending)
	default:
		return Result{}, invalidArgument(req.Kind, "", fmt.Sprintf("unsupported operation %d", req.Op))
	}

	oc := &opContext{
		ctx:     ctx,
		tx:      tx,
		adapter: adapter,
		req:     req,
		log: log.With(
			"kind", req.Kind.String(),
			"op", req.Op.String(),
		),
	}

	if err := c.execute(oc); err != nil {
		return Result{}, err
	}

	if req.Op == OpDelete {
		return Result{Kind: req.Kind, Op: req.Op, ID: req.ID}, nil
	}

	// Committed snapshot, re-read so derived values set by processors are
	// authoritative.
	row, err := tx.Get(ctx, req.Kind.Table(), adapter.ID())
	if err != nil {
		return Result{}, storageFailure(req.Kind, err)
	}
	return Result{Kind: req.Kind, Op: req.Op, ID: adapter.ID(), Row: row}, nil
}

// newOpToken returns a sortable correlation token for one batch.
func newOpToken() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
