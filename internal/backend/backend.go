// Package backend selects and wires the persistence layer from
// configuration. The HTTP server and the worker both open their store
// through here so the backend choice stays in one place.
package backend

import (
	"context"
	"fmt"

	"horas/internal/amqp"
	"horas/internal/config"
	"horas/internal/core"
	"horas/internal/ledger"
	"horas/internal/log"
	"horas/internal/store"
	"horas/internal/store/memory"
	"horas/internal/storage"
)

type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) IsValid() bool {
	return t == Memory || t == SQLite
}

// Result bundles the opened store with the optional AMQP client. Close
// releases both.
type Result struct {
	Store store.Store

	// AMQP is nil when no broker is configured; callers treat a nil
	// client as "sync disabled".
	AMQP *amqp.Client
}

func (r *Result) Close() error {
	var firstErr error
	if r.AMQP != nil {
		if err := r.AMQP.Close(); err != nil {
			firstErr = err
		}
	}
	if err := r.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Open builds the store named by cfg.DataBackend and, when an AMQP URL
// is configured, connects the sync client. A broker that is down does
// not fail startup: writes still land in the store, only mirroring is
// skipped.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Result, error) {
	logger = logger.WithComponent(log.ComponentBackend)

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("unsupported data backend %q", cfg.DataBackend)
	}

	var st store.Store
	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		st = repo
		logger.InfoContext(ctx, "Initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		st = memory.NewFromFiles(cfg.DataDir)
		logger.InfoContext(ctx, "Initialized memory backend", "data_dir", cfg.DataDir)
	}

	var client *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		client, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, continuing without sync",
				log.FieldError, err.Error())
			client = nil
		} else {
			logger.InfoContext(ctx, "Connected AMQP sync client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	return &Result{Store: st, AMQP: client}, nil
}

// LoadLedger hydrates an in-memory ledger from everything the store
// holds. Called once at startup so aggregation never reads the store.
func LoadLedger(ctx context.Context, st store.ImputationStore) (*ledger.Ledger, error) {
	imps, err := st.ListImputations(ctx, core.ImputationFilter{})
	if err != nil {
		return nil, fmt.Errorf("load imputations: %w", err)
	}
	return ledger.FromRecords(imps), nil
}
