// Package store defines the data-access ports the computation core and
// HTTP layer consume. Implementations: store/memory and storage (sqlite).
package store

import (
	"context"

	"horas/internal/core"
)

type (
	TaskTypeStore interface {
		ListTaskTypes(ctx context.Context) ([]core.TaskType, error)
		GetTaskType(ctx context.Context, id string) (core.TaskType, error)
		PutTaskType(ctx context.Context, t core.TaskType) error
		// DeleteTaskType removes the record unconditionally; the in-use
		// guard lives in the service layer, which owns the ledger.
		DeleteTaskType(ctx context.Context, id string) error
	}

	TaskStore interface {
		ListTasks(ctx context.Context) ([]core.Task, error)
		GetTask(ctx context.Context, id string) (core.Task, error)
		PutTask(ctx context.Context, t core.Task) error
		DeleteTask(ctx context.Context, id string) error
	}

	ImputationStore interface {
		ListImputations(ctx context.Context, f core.ImputationFilter) ([]core.Imputation, error)
		GetImputation(ctx context.Context, id string) (core.Imputation, error)
		PutImputation(ctx context.Context, imp core.Imputation) error
		DeleteImputation(ctx context.Context, id string) error
	}

	LockStore interface {
		ListWeekLocks(ctx context.Context) ([]core.WeekLock, error)
		IsWeekLocked(ctx context.Context, weekID string) (bool, error)
		SetWeekLock(ctx context.Context, lock core.WeekLock) error
	}

	UserStore interface {
		ListUsers(ctx context.Context) ([]core.User, error)
		GetUserByName(ctx context.Context, name string) (core.User, error)
	}
)

// Store is the unified persistence interface the backends implement.
type Store interface {
	TaskTypeStore
	TaskStore
	ImputationStore
	LockStore
	UserStore

	Close() error
}
