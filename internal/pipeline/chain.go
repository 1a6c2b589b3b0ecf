package pipeline

import (
	"context"
	"log/slog"

	"github.com/roach88/taskstore/internal/entity"
	"github.com/roach88/taskstore/internal/store"
)

// StageKind tags the role of a stage within a chain.
type StageKind int

const (
	// StageValidate rejects illegal operations before anything is written.
	StageValidate StageKind = iota + 1
	// StageSideEffect schedules deferred work (stale marking, materializer).
	StageSideEffect
	// StageCommit persists the operation. Never rejects.
	StageCommit
)

func (k StageKind) String() string {
	switch k {
	case StageValidate:
		return "validate"
	case StageSideEffect:
		return "side-effect"
	case StageCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// opContext carries one operation through its chain.
type opContext struct {
	ctx     context.Context
	tx      *store.Tx
	adapter *entity.Adapter
	req     MutationRequest
	log     *slog.Logger
}

// stage is one step of a chain. Stages run in order and short-circuit on the
// first error.
type stage struct {
	kind StageKind
	name string
	run  func(*opContext) error
}

// chain is the ordered stage list for one (entity kind, operation) pair,
// composed once at construction time.
type chain []stage

// execute runs the chain end to end. Logging is observational only; outcomes
// never depend on it.
func (c chain) execute(oc *opContext) error {
	for _, s := range c {
		if err := s.run(oc); err != nil {
			oc.log.Debug("stage rejected operation",
				"stage", s.name, "kind", s.kind.String(), "error", err)
			return err
		}
		oc.log.Debug("stage passed", "stage", s.name, "kind", s.kind.String())
	}
	return nil
}

// chainKey selects the chain for a request.
type chainKey struct {
	Kind entity.Kind
	Op   Operation
}

// newChains composes the per-(kind, operation) chains. The materialize task
// is the transaction-end job the task side-effect stage registers.
func newChains(materialize store.TaskFunc) map[chainKey]chain {
	return map[chainKey]chain{
		{entity.KindList, OpInsert}: {
			{StageValidate, "validate-list-insert", validateListInsert},
			{StageCommit, "commit-list", commitAdapter},
		},
		{entity.KindList, OpUpdate}: {
			{StageValidate, "validate-list-update", validateListUpdate},
			{StageCommit, "commit-list", commitAdapter},
		},
		{entity.KindList, OpDelete}: {
			{StageValidate, "validate-list-delete", validateListDelete},
			{StageCommit, "delete-list", deleteRow},
		},
		{entity.KindTask, OpInsert}: {
			{StageValidate, "validate-task-fields", validateTaskFields},
			{StageValidate, "validate-task-insert", validateTaskInsert},
			{StageSideEffect, "mark-instances-stale", markInstancesStale(materialize)},
			{StageCommit, "commit-task", commitAdapter},
		},
		{entity.KindTask, OpUpdate}: {
			{StageValidate, "validate-task-fields", validateTaskFields},
			{StageValidate, "validate-task-update", validateTaskUpdate},
			{StageSideEffect, "mark-instances-stale", markInstancesStale(materialize)},
			{StageCommit, "commit-task", commitAdapter},
		},
		{entity.KindTask, OpDelete}: {
			// Instance rows follow the task via ON DELETE CASCADE;
			// no materializer run is needed for a plain delete.
			{StageCommit, "delete-task", deleteRow},
		},
	}
}
