package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"horas/internal/amqp"
	"horas/internal/core"
	"horas/internal/log"
	sheetsmem "horas/internal/sheets/memory"
	storemem "horas/internal/store/memory"
)

func newTestWorker(t *testing.T) (*SyncWorker, *storemem.Store, *sheetsmem.Store) {
	t.Helper()
	st := storemem.New()
	mirror := sheetsmem.New()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return NewSyncWorker(st, mirror, mirror, 10, logger), st, mirror
}

func seedImputation(t *testing.T, st *storemem.Store, id string) core.Imputation {
	t.Helper()
	imp := core.Imputation{
		ID: id, WeekID: "2024-W10", UserID: "u1", TaskID: "t1",
		Type: core.TypeTrabajado, Hours: core.DayHours{Mon: 8},
	}
	if err := st.PutImputation(context.Background(), imp); err != nil {
		t.Fatal(err)
	}
	return imp
}

func TestHandleSyncMessage(t *testing.T) {
	w, st, mirror := newTestWorker(t)
	ctx := context.Background()
	seedImputation(t, st, "i1")

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("i1")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	row, ok := mirror.Row("i1")
	if !ok {
		t.Fatal("row not mirrored")
	}
	if row.WeekID != "2024-W10" || row.Hours.Mon != 8 {
		t.Errorf("mirrored row = %+v", row)
	}

	// Re-delivery overwrites in place rather than duplicating.
	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("i1")); err != nil {
		t.Fatal(err)
	}
	if mirror.Len() != 1 {
		t.Errorf("mirror rows = %d, want 1", mirror.Len())
	}
}

func TestHandleSyncMessageDeletedRow(t *testing.T) {
	w, _, mirror := newTestWorker(t)
	ctx := context.Background()

	// A sync message for a row deleted meanwhile clears the mirror
	// instead of failing and requeueing forever.
	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("gone")); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if mirror.Len() != 0 {
		t.Errorf("mirror rows = %d, want 0", mirror.Len())
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	w, st, mirror := newTestWorker(t)
	ctx := context.Background()
	seedImputation(t, st, "i1")

	if err := w.HandleMessage(ctx, amqp.NewSyncMessage("i1")); err != nil {
		t.Fatal(err)
	}
	if err := w.HandleMessage(ctx, amqp.NewDeleteMessage("i1")); err != nil {
		t.Fatalf("HandleMessage(delete) error = %v", err)
	}
	if _, ok := mirror.Row("i1"); ok {
		t.Error("row still present after delete")
	}

	// Deleting an absent row is not an error.
	if err := w.HandleMessage(ctx, amqp.NewDeleteMessage("i1")); err != nil {
		t.Errorf("repeated delete error = %v", err)
	}
}

func TestHandleMessageUnknownAction(t *testing.T) {
	w, _, _ := newTestWorker(t)
	msg := &amqp.SyncMessage{ID: "i1", Action: "reindex"}
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Errorf("unknown action should be dropped, got error %v", err)
	}
}

func TestResyncAll(t *testing.T) {
	w, st, mirror := newTestWorker(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		seedImputation(t, st, id)
	}
	if err := w.ResyncAll(ctx); err != nil {
		t.Fatalf("ResyncAll() error = %v", err)
	}
	if mirror.Len() != 3 {
		t.Errorf("mirror rows = %d, want 3", mirror.Len())
	}

	// Idempotent across runs.
	if err := w.ResyncAll(ctx); err != nil {
		t.Fatal(err)
	}
	if mirror.Len() != 3 {
		t.Errorf("mirror rows after second run = %d, want 3", mirror.Len())
	}
}
