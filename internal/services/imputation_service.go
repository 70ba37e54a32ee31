package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"horas/internal/core"
	"horas/internal/ledger"
	"horas/internal/log"
	"horas/internal/store"
)

// Actor identifies who is performing a write. Roles are passed explicitly
// rather than read from ambient session state.
type Actor struct {
	UserID string
	Roles  []core.Role
}

func (a Actor) IsApprover() bool {
	return core.HasRole(a.Roles, core.RoleApprover)
}

// SyncPublisher is the outbound side channel notified after imputation
// writes. Publish failures never fail the write: the record is already
// persisted locally and the worker catches up.
type SyncPublisher interface {
	PublishImputationSync(ctx context.Context, id string) error
	PublishImputationDelete(ctx context.Context, id string) error
}

// ImputationService is the write boundary for weekly timesheet rows. It
// enforces validation and the week lock here, not in presentation code.
type ImputationService struct {
	store     store.Store
	ledger    *ledger.Ledger
	publisher SyncPublisher
	logger    *log.Logger
}

func NewImputationService(st store.Store, led *ledger.Ledger, pub SyncPublisher, logger *log.Logger) *ImputationService {
	return &ImputationService{
		store:     st,
		ledger:    led,
		publisher: pub,
		logger:    logger.WithComponent(log.ComponentImputation),
	}
}

// Ledger exposes the in-memory working set for read paths (aggregation).
func (s *ImputationService) Ledger() *ledger.Ledger {
	return s.ledger
}

func (s *ImputationService) List(ctx context.Context, f core.ImputationFilter) []core.Imputation {
	return s.ledger.Query(f)
}

func (s *ImputationService) Get(ctx context.Context, id string) (core.Imputation, error) {
	imp, ok := s.ledger.Get(id)
	if !ok {
		return core.Imputation{}, fmt.Errorf("imputation %s: %w", id, core.ErrNotFound)
	}
	return imp, nil
}

// Upsert validates and stores a complete imputation record, replacing any
// previous record with the same id. Non-approvers may only write their
// own rows, and writes to a locked week are rejected unless the actor is
// an approver. A missing id gets a generated one.
func (s *ImputationService) Upsert(ctx context.Context, actor Actor, imp core.Imputation) (core.Imputation, error) {
	if err := imp.Validate(); err != nil {
		return core.Imputation{}, err
	}
	if err := s.checkOwner(actor, imp.UserID); err != nil {
		return core.Imputation{}, err
	}
	if err := s.checkLock(ctx, actor, imp.WeekID); err != nil {
		return core.Imputation{}, err
	}
	// An edit may reassign or move a row; the previous owner and the
	// original week gate the write too.
	if prev, ok := s.ledger.Get(imp.ID); ok {
		if err := s.checkOwner(actor, prev.UserID); err != nil {
			return core.Imputation{}, err
		}
		if prev.WeekID != imp.WeekID {
			if err := s.checkLock(ctx, actor, prev.WeekID); err != nil {
				return core.Imputation{}, err
			}
		}
	}
	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}

	// Durable store first: a persist failure must not leave the record
	// visible to aggregation only to vanish on restart.
	if err := s.store.PutImputation(ctx, imp); err != nil {
		return core.Imputation{}, fmt.Errorf("persist imputation: %w", err)
	}
	if err := s.ledger.Upsert(imp); err != nil {
		return core.Imputation{}, err
	}

	s.logger.InfoContext(ctx, "Imputation saved",
		"id", imp.ID,
		log.FieldWeekID, imp.WeekID,
		log.FieldUserID, imp.UserID,
		log.FieldTaskID, imp.TaskID,
		log.FieldTaskType, imp.Type,
		log.FieldHoursTotal, imp.TotalHours())

	if s.publisher != nil {
		if err := s.publisher.PublishImputationSync(ctx, imp.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish sync message", "id", imp.ID, log.FieldError, err)
		}
	}
	return imp, nil
}

// Delete removes an imputation. Unknown ids report core.ErrNotFound, and
// the ownership and week-lock rules apply the same way as for edits.
func (s *ImputationService) Delete(ctx context.Context, actor Actor, id string) error {
	imp, ok := s.ledger.Get(id)
	if !ok {
		return fmt.Errorf("imputation %s: %w", id, core.ErrNotFound)
	}
	if err := s.checkOwner(actor, imp.UserID); err != nil {
		return err
	}
	if err := s.checkLock(ctx, actor, imp.WeekID); err != nil {
		return err
	}

	if err := s.store.DeleteImputation(ctx, id); err != nil {
		return fmt.Errorf("delete imputation: %w", err)
	}
	s.ledger.Delete(id)

	s.logger.InfoContext(ctx, "Imputation deleted",
		"id", id, log.FieldWeekID, imp.WeekID, log.FieldUserID, imp.UserID)

	if s.publisher != nil {
		if err := s.publisher.PublishImputationDelete(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish delete message", "id", id, log.FieldError, err)
		}
	}
	return nil
}

// checkOwner enforces that non-approvers only touch their own rows.
func (s *ImputationService) checkOwner(actor Actor, ownerID string) error {
	if ownerID != actor.UserID && !actor.IsApprover() {
		return fmt.Errorf("imputation of %s: %w", ownerID, core.ErrForbidden)
	}
	return nil
}

func (s *ImputationService) checkLock(ctx context.Context, actor Actor, weekID string) error {
	locked, err := s.store.IsWeekLocked(ctx, weekID)
	if err != nil {
		return fmt.Errorf("check week lock: %w", err)
	}
	if locked && !actor.IsApprover() {
		return fmt.Errorf("week %s: %w", weekID, core.ErrWeekLocked)
	}
	return nil
}
