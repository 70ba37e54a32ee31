// Package worker mirrors persisted imputations into the reporting
// spreadsheet. Messages carry only the record id; the worker re-reads
// the current row before writing, so stale or duplicated messages are
// harmless.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/log"
	"horas/internal/sheets"
	"horas/internal/store"
)

type SyncWorker struct {
	store     store.ImputationStore
	writer    sheets.ImputationWriter
	deleter   sheets.ImputationDeleter
	batchSize int
	logger    *log.Logger
}

func NewSyncWorker(st store.ImputationStore, writer sheets.ImputationWriter, deleter sheets.ImputationDeleter, batchSize int, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:     st,
		writer:    writer,
		deleter:   deleter,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleMessage processes one sync message. Returning an error requeues
// the message.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Action {
	case amqp.ActionDelete:
		return w.handleDelete(ctx, msg.ID)
	case amqp.ActionSync:
		return w.handleSync(ctx, msg.ID)
	}
	// Unknown actions are dropped rather than requeued; retrying cannot
	// make them understood.
	w.logger.WarnContext(ctx, "Dropping message with unknown action",
		"id", msg.ID, "action", msg.Action)
	return nil
}

func (w *SyncWorker) handleSync(ctx context.Context, id string) error {
	imp, err := w.store.GetImputation(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// The row was deleted after the sync message was published.
		// The delete message is already in flight or lost; remove the
		// mirror row either way.
		return w.handleDelete(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("get imputation %s: %w", id, err)
	}

	ref, err := w.writer.Append(ctx, imp)
	if err != nil {
		return fmt.Errorf("append imputation %s: %w", id, err)
	}

	w.logger.InfoContext(ctx, "Imputation mirrored",
		log.FieldOperation, log.OpSync,
		"id", id,
		log.FieldWeekID, imp.WeekID,
		log.FieldSheetsRef, ref)
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, id string) error {
	if w.deleter == nil {
		w.logger.WarnContext(ctx, "No deleter configured, skipping mirror removal", "id", id)
		return nil
	}
	if err := w.deleter.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete mirror row %s: %w", id, err)
	}
	w.logger.InfoContext(ctx, "Mirror row removed",
		log.FieldOperation, log.OpDelete, "id", id)
	return nil
}

// ResyncAll re-mirrors every stored imputation. Appends are keyed by
// record id, so repeating them is idempotent. This is the safety net
// for messages lost while the broker or worker was down.
func (w *SyncWorker) ResyncAll(ctx context.Context) error {
	imps, err := w.store.ListImputations(ctx, core.ImputationFilter{})
	if err != nil {
		return fmt.Errorf("list imputations: %w", err)
	}
	if len(imps) == 0 {
		return nil
	}

	synced, failed := 0, 0
	for i, imp := range imps {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := w.writer.Append(ctx, imp); err != nil {
			w.logger.ErrorContext(ctx, "Resync append failed",
				"id", imp.ID, log.FieldError, err.Error())
			failed++
			continue
		}
		synced++
		if (i+1)%w.batchSize == 0 {
			w.logger.InfoContext(ctx, "Resync progress",
				"processed", i+1, "total", len(imps))
		}
	}

	w.logger.InfoContext(ctx, "Resync completed",
		"total", len(imps), "synced", synced, "errors", failed)
	if failed > 0 {
		return fmt.Errorf("resync: %d of %d rows failed", failed, len(imps))
	}
	return nil
}

// Run consumes sync messages and re-mirrors the full store every
// interval. It blocks until the context is cancelled or the broker
// connection fails.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, interval time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return client.ConsumeSyncMessages(ctx, func(msg *amqp.SyncMessage) error {
			return w.HandleMessage(ctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ResyncAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
					// Periodic resync failures are retried next tick.
					w.logger.ErrorContext(ctx, "Periodic resync failed",
						log.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
