package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"horas/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements store.Store on top of a local sqlite file.
// It is the durable side of the system; the in-memory ledger remains the
// working set the computations read from.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListTaskTypes(ctx context.Context) ([]core.TaskType, error) {
	types, err := r.queries.ListTaskTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task types: %w", err)
	}
	return types, nil
}

func (r *SQLiteRepository) GetTaskType(ctx context.Context, id string) (core.TaskType, error) {
	t, err := r.queries.GetTaskType(ctx, id)
	if err != nil {
		return core.TaskType{}, notFound("task type", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) PutTaskType(ctx context.Context, t core.TaskType) error {
	if err := r.queries.UpsertTaskType(ctx, t); err != nil {
		return fmt.Errorf("upsert task type: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTaskType(ctx context.Context, id string) error {
	if err := r.queries.DeleteTaskType(ctx, id); err != nil {
		return notFound("task type", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]core.Task, error) {
	tasks, err := r.queries.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *SQLiteRepository) GetTask(ctx context.Context, id string) (core.Task, error) {
	t, err := r.queries.GetTask(ctx, id)
	if err != nil {
		return core.Task{}, notFound("task", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) PutTask(ctx context.Context, t core.Task) error {
	if err := r.queries.UpsertTask(ctx, t); err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTask(ctx context.Context, id string) error {
	if err := r.queries.DeleteTask(ctx, id); err != nil {
		return notFound("task", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListImputations(ctx context.Context, f core.ImputationFilter) ([]core.Imputation, error) {
	imps, err := r.queries.ListImputations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list imputations: %w", err)
	}
	return imps, nil
}

func (r *SQLiteRepository) GetImputation(ctx context.Context, id string) (core.Imputation, error) {
	imp, err := r.queries.GetImputation(ctx, id)
	if err != nil {
		return core.Imputation{}, notFound("imputation", id, err)
	}
	return imp, nil
}

func (r *SQLiteRepository) PutImputation(ctx context.Context, imp core.Imputation) error {
	if err := r.queries.UpsertImputation(ctx, imp); err != nil {
		return fmt.Errorf("upsert imputation: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteImputation(ctx context.Context, id string) error {
	if err := r.queries.DeleteImputation(ctx, id); err != nil {
		return notFound("imputation", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListWeekLocks(ctx context.Context) ([]core.WeekLock, error) {
	locks, err := r.queries.ListWeekLocks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list week locks: %w", err)
	}
	return locks, nil
}

// IsWeekLocked reports the lock flag; weeks with no row are unlocked.
func (r *SQLiteRepository) IsWeekLocked(ctx context.Context, weekID string) (bool, error) {
	lock, err := r.queries.GetWeekLock(ctx, weekID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get week lock: %w", err)
	}
	return lock.Locked, nil
}

func (r *SQLiteRepository) SetWeekLock(ctx context.Context, lock core.WeekLock) error {
	if _, _, err := core.ParseWeekID(lock.WeekID); err != nil {
		return &core.ValidationError{Field: "weekId", Reason: err.Error()}
	}
	if err := r.queries.UpsertWeekLock(ctx, lock); err != nil {
		return fmt.Errorf("upsert week lock: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *SQLiteRepository) GetUserByName(ctx context.Context, name string) (core.User, error) {
	u, err := r.queries.GetUserByName(ctx, name)
	if err != nil {
		return core.User{}, notFound("user", name, err)
	}
	return u, nil
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("%s %s: %w", kind, id, err)
}
