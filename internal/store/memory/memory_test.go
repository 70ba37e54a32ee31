package memory

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"horas/internal/core"
)

func TestSeedFromFiles(t *testing.T) {
	dir := t.TempDir()

	// Legacy fixture: task type without the explicit boolean fields.
	types := `[{"id":"TRABAJADO","label":"Trabajado"},{"id":"YA_IMPUTADO","label":"Ya imputado","computesInWeek":false,"subtractsFromBudget":false}]`
	if err := os.WriteFile(filepath.Join(dir, "task_types.json"), []byte(types), 0644); err != nil {
		t.Fatal(err)
	}
	users := `[{"id":"u1","name":"ana","password":"secreto","roles":["ANALYST"],"active":true,"maxHours":40}]`
	if err := os.WriteFile(filepath.Join(dir, "users.json"), []byte(users), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFromFiles(dir)
	ctx := context.Background()

	tt, err := s.GetTaskType(ctx, core.TypeTrabajado)
	if err != nil {
		t.Fatalf("GetTaskType: %v", err)
	}
	if !tt.ComputesInWeek || !tt.SubtractsFromBudget {
		t.Error("legacy task type should default both flags to true")
	}

	ya, err := s.GetTaskType(ctx, core.TypeYaImputado)
	if err != nil {
		t.Fatalf("GetTaskType: %v", err)
	}
	if ya.ComputesInWeek || ya.SubtractsFromBudget {
		t.Error("explicit false flags lost during seeding")
	}

	u, err := s.GetUserByName(ctx, "ana")
	if err != nil {
		t.Fatalf("GetUserByName: %v", err)
	}
	if u.Password != "secreto" || !u.HasRole(core.RoleAnalyst) {
		t.Errorf("seeded user wrong: %+v", u)
	}
}

func TestSeedDefaults(t *testing.T) {
	s := NewFromFiles(t.TempDir())
	ctx := context.Background()

	types, err := s.ListTaskTypes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) == 0 {
		t.Fatal("empty directory should seed the default catalogue")
	}
	if _, err := s.GetUserByName(ctx, "admin"); err != nil {
		t.Error("default admin user missing")
	}

	var defaults []core.TaskType
	data, _ := json.Marshal(DefaultTaskTypes())
	if err := json.Unmarshal(data, &defaults); err != nil {
		t.Fatal(err)
	}
}

func TestCRUDAndLocks(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.GetTask(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetTask on missing id = %v, want ErrNotFound", err)
	}

	task := core.Task{ID: "t1", Code: "H1-01", Name: "Backend", Active: true}
	if err := s.PutTask(ctx, task); err != nil {
		t.Fatalf("PutTask: %v", err)
	}

	imp := core.Imputation{
		ID: "i1", WeekID: "2024-W10", TaskID: "t1", UserID: "u1",
		Type: core.TypeTrabajado, Hours: core.DayHours{Mon: 8},
	}
	if err := s.PutImputation(ctx, imp); err != nil {
		t.Fatalf("PutImputation: %v", err)
	}
	got, err := s.ListImputations(ctx, core.ImputationFilter{WeekID: "2024-W10"})
	if err != nil || len(got) != 1 {
		t.Fatalf("ListImputations = (%v, %v), want 1 record", got, err)
	}

	if err := s.SetWeekLock(ctx, core.WeekLock{WeekID: "2024-W10", Locked: true}); err != nil {
		t.Fatalf("SetWeekLock: %v", err)
	}
	locked, err := s.IsWeekLocked(ctx, "2024-W10")
	if err != nil || !locked {
		t.Error("week should be locked")
	}
	// Upsert semantics: setting again flips the flag in place.
	_ = s.SetWeekLock(ctx, core.WeekLock{WeekID: "2024-W10", Locked: false})
	locked, _ = s.IsWeekLocked(ctx, "2024-W10")
	if locked {
		t.Error("week should be unlocked after upsert")
	}

	if err := s.SetWeekLock(ctx, core.WeekLock{WeekID: "garbage"}); err == nil {
		t.Error("malformed week id accepted by SetWeekLock")
	}
}
