package services

import (
	"context"
	"fmt"

	"horas/internal/core"
	"horas/internal/log"
	"horas/internal/store"
)

// LockService owns the week lock flags. Only approvers may change them.
type LockService struct {
	store  store.LockStore
	logger *log.Logger
}

func NewLockService(st store.LockStore, logger *log.Logger) *LockService {
	return &LockService{store: st, logger: logger.WithComponent(log.ComponentLock)}
}

func (s *LockService) List(ctx context.Context) ([]core.WeekLock, error) {
	return s.store.ListWeekLocks(ctx)
}

func (s *LockService) IsLocked(ctx context.Context, weekID string) (bool, error) {
	return s.store.IsWeekLocked(ctx, weekID)
}

// Set upserts a week lock flag. One lock exists per week id.
func (s *LockService) Set(ctx context.Context, actor Actor, lock core.WeekLock) error {
	if !actor.IsApprover() {
		return fmt.Errorf("set week lock: %w", core.ErrForbidden)
	}
	if _, _, err := core.ParseWeekID(lock.WeekID); err != nil {
		return &core.ValidationError{Field: "weekId", Reason: err.Error()}
	}
	if err := s.store.SetWeekLock(ctx, lock); err != nil {
		return fmt.Errorf("set week lock: %w", err)
	}
	s.logger.InfoContext(ctx, "Week lock updated",
		log.FieldWeekID, lock.WeekID,
		log.FieldLocked, lock.Locked,
		log.FieldUserID, actor.UserID,
		log.FieldOperation, log.OpLock)
	return nil
}
