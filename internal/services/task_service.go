package services

import (
	"context"
	"fmt"

	"horas/internal/core"
	"horas/internal/ledger"
	"horas/internal/log"
	"horas/internal/store"
)

// TaskService owns the task catalogue.
type TaskService struct {
	store  store.TaskStore
	ledger *ledger.Ledger
	logger *log.Logger
}

func NewTaskService(st store.TaskStore, led *ledger.Ledger, logger *log.Logger) *TaskService {
	return &TaskService{store: st, ledger: led, logger: logger.WithComponent(log.ComponentTask)}
}

func (s *TaskService) List(ctx context.Context) ([]core.Task, error) {
	return s.store.ListTasks(ctx)
}

func (s *TaskService) Get(ctx context.Context, id string) (core.Task, error) {
	return s.store.GetTask(ctx, id)
}

func (s *TaskService) Create(ctx context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetTask(ctx, t.ID); err == nil {
		return &core.ValidationError{Field: "id", Reason: fmt.Sprintf("task %s already exists", t.ID)}
	}
	if err := s.store.PutTask(ctx, t); err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	s.logger.InfoContext(ctx, "Task created", log.FieldTaskID, t.ID, log.FieldOperation, log.OpCreate)
	return nil
}

// Update replaces a task. Permanent tasks cannot be deactivated.
func (s *TaskService) Update(ctx context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	existing, err := s.store.GetTask(ctx, t.ID)
	if err != nil {
		return err
	}
	if existing.Permanent && !t.Active {
		return fmt.Errorf("task %s: %w", t.ID, core.ErrPermanentTask)
	}
	if err := s.store.PutTask(ctx, t); err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	s.logger.InfoContext(ctx, "Task updated", log.FieldTaskID, t.ID, log.FieldOperation, log.OpUpdate)
	return nil
}

// Delete removes a task unless imputations still reference it.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetTask(ctx, id); err != nil {
		return err
	}
	if s.ledger.AnyWithTask(id) {
		return fmt.Errorf("task %s: %w", id, core.ErrTaskInUse)
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.logger.InfoContext(ctx, "Task deleted", log.FieldTaskID, id, log.FieldOperation, log.OpDelete)
	return nil
}
