package services

import (
	"context"
	"fmt"

	"horas/internal/core"
	"horas/internal/ledger"
	"horas/internal/log"
	"horas/internal/store"
)

// TaskTypeService owns the task type catalogue. Deletion is refused while
// any imputation still references the type.
type TaskTypeService struct {
	store  store.TaskTypeStore
	ledger *ledger.Ledger
	logger *log.Logger
}

func NewTaskTypeService(st store.TaskTypeStore, led *ledger.Ledger, logger *log.Logger) *TaskTypeService {
	return &TaskTypeService{store: st, ledger: led, logger: logger.WithComponent(log.ComponentTaskType)}
}

func (s *TaskTypeService) List(ctx context.Context) ([]core.TaskType, error) {
	return s.store.ListTaskTypes(ctx)
}

func (s *TaskTypeService) Get(ctx context.Context, id string) (core.TaskType, error) {
	return s.store.GetTaskType(ctx, id)
}

// TypeSet returns the catalogue indexed for aggregation lookups.
func (s *TaskTypeService) TypeSet(ctx context.Context) (core.TypeSet, error) {
	types, err := s.store.ListTaskTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task types: %w", err)
	}
	return core.NewTypeSet(types), nil
}

func (s *TaskTypeService) Create(ctx context.Context, t core.TaskType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetTaskType(ctx, t.ID); err == nil {
		return &core.ValidationError{Field: "id", Reason: fmt.Sprintf("task type %s already exists", t.ID)}
	}
	if err := s.store.PutTaskType(ctx, t); err != nil {
		return fmt.Errorf("put task type: %w", err)
	}
	s.logger.InfoContext(ctx, "Task type created", log.FieldTaskType, t.ID, log.FieldOperation, log.OpCreate)
	return nil
}

func (s *TaskTypeService) Update(ctx context.Context, t core.TaskType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetTaskType(ctx, t.ID); err != nil {
		return err
	}
	if err := s.store.PutTaskType(ctx, t); err != nil {
		return fmt.Errorf("put task type: %w", err)
	}
	s.logger.InfoContext(ctx, "Task type updated", log.FieldTaskType, t.ID, log.FieldOperation, log.OpUpdate)
	return nil
}

// Upsert writes a task type whether or not the id exists. CSV import
// goes through here so re-importing a catalogue is idempotent.
func (s *TaskTypeService) Upsert(ctx context.Context, t core.TaskType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.store.PutTaskType(ctx, t); err != nil {
		return fmt.Errorf("put task type: %w", err)
	}
	s.logger.InfoContext(ctx, "Task type upserted", log.FieldTaskType, t.ID, log.FieldOperation, log.OpImport)
	return nil
}

// Delete removes a task type. It fails with core.ErrTypeInUse while any
// imputation references the id; the caller must resolve references first.
func (s *TaskTypeService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetTaskType(ctx, id); err != nil {
		return err
	}
	if s.ledger.AnyWithType(id) {
		return fmt.Errorf("task type %s: %w", id, core.ErrTypeInUse)
	}
	if err := s.store.DeleteTaskType(ctx, id); err != nil {
		return fmt.Errorf("delete task type: %w", err)
	}
	s.logger.InfoContext(ctx, "Task type deleted", log.FieldTaskType, id, log.FieldOperation, log.OpDelete)
	return nil
}
