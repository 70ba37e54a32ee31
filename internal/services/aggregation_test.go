package services

import (
	"testing"

	"horas/internal/core"
	"horas/internal/ledger"
)

func testTypes() core.TypeSet {
	return core.NewTypeSet([]core.TaskType{
		{ID: core.TypeTrabajado, Label: "Trabajado", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeJira, Label: "Jira", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeVacaciones, Label: "Vacaciones", Structural: true, ComputesInWeek: true, SubtractsFromBudget: false},
		{ID: core.TypeYaImputado, Label: "Ya imputado", ComputesInWeek: false, SubtractsFromBudget: false},
		{ID: core.TypePreImputado, Label: "Pre-imputado", ComputesInWeek: true, SubtractsFromBudget: true},
	})
}

func TestWeekTotals(t *testing.T) {
	led := ledger.FromRecords([]core.Imputation{
		{ID: "i1", WeekID: "2024-W10", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8, Tue: 8, Wed: 8, Thu: 8, Fri: 8}},
		{ID: "i2", WeekID: "2024-W10", UserID: "u1", TaskID: "t2", Type: core.TypeYaImputado,
			Hours: core.DayHours{Mon: 2, Tue: 1}},
		{ID: "i3", WeekID: "2024-W10", UserID: "u2", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8}},
		{ID: "i4", WeekID: "2024-W11", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8}},
	})
	agg := NewAggregator(led)

	totals := agg.WeekTotals(testTypes(), "u1", "2024-W10")

	if totals.Total != 43 {
		t.Errorf("Total = %v, want 43", totals.Total)
	}
	if totals.Computable != 40 {
		t.Errorf("Computable = %v, want 40", totals.Computable)
	}
	if totals.Other[core.TypeYaImputado] != 3 {
		t.Errorf("Other[YA_IMPUTADO] = %v, want 3", totals.Other[core.TypeYaImputado])
	}
	if totals.ByDay.Mon != 10 || totals.ByDay.Fri != 8 {
		t.Errorf("ByDay = %+v", totals.ByDay)
	}
	if totals.ByType[core.TypeTrabajado] != 40 {
		t.Errorf("ByType[TRABAJADO] = %v, want 40", totals.ByType[core.TypeTrabajado])
	}
}

func TestWeekTotalsMemoizationInvalidatesOnMutation(t *testing.T) {
	led := ledger.New()
	agg := NewAggregator(led)
	types := testTypes()

	first := agg.WeekTotals(types, "u1", "2024-W10")
	if first.Total != 0 {
		t.Fatalf("empty ledger total = %v", first.Total)
	}

	err := led.Upsert(core.Imputation{
		ID: "i1", WeekID: "2024-W10", UserID: "u1", TaskID: "t1",
		Type: core.TypeTrabajado, Hours: core.DayHours{Mon: 8},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := agg.WeekTotals(types, "u1", "2024-W10")
	if second.Total != 8 {
		t.Errorf("post-mutation total = %v, want 8 (stale cache?)", second.Total)
	}
}

func TestTaskBudget(t *testing.T) {
	led := ledger.FromRecords([]core.Imputation{
		{ID: "i1", WeekID: "2024-W10", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8, Tue: 8, Wed: 8, Thu: 8, Fri: 8}},
		{ID: "i2", WeekID: "2024-W11", UserID: "u1", TaskID: "t1", Type: core.TypeVacaciones,
			Hours: core.DayHours{Mon: 8}}, // not budget-subtracting
	})
	agg := NewAggregator(led)
	types := testTypes()

	tracked := agg.TaskBudget(types, core.Task{ID: "t1", Code: "C", Name: "N", UTEs: 100})
	if !tracked.Tracked {
		t.Fatal("task with UTEs should be tracked")
	}
	if tracked.Consumed != 40 || tracked.Remaining != 60 {
		t.Errorf("budget = consumed %v remaining %v, want 40/60", tracked.Consumed, tracked.Remaining)
	}

	// A task without UTEs reports not-applicable, not zero remaining.
	untracked := agg.TaskBudget(types, core.Task{ID: "t2", Code: "C", Name: "N"})
	if untracked.Tracked {
		t.Error("task without UTEs must not be budget-tracked")
	}
}

func TestTaskBalance(t *testing.T) {
	led := ledger.FromRecords([]core.Imputation{
		{ID: "i1", WeekID: "2024-W10", UserID: "u1", TaskID: "t1", Type: core.TypePreImputado,
			Hours: core.DayHours{Mon: 10}},
		{ID: "i2", WeekID: "2024-W11", UserID: "u1", TaskID: "t1", Type: core.TypeYaImputado,
			Hours: core.DayHours{Mon: 4}},
		{ID: "i3", WeekID: "2024-W12", UserID: "u1", TaskID: "t1", Type: core.TypePendiente,
			Hours: core.DayHours{Mon: 3}},
		{ID: "i4", WeekID: "2024-W13", UserID: "u1", TaskID: "t1", Type: core.TypeRegularizado,
			Hours: core.DayHours{Mon: 5}},
	})
	agg := NewAggregator(led)

	balance := agg.TaskBalance("t1")
	if balance.PreimputedRemaining != 6 {
		t.Errorf("PreimputedRemaining = %v, want 6", balance.PreimputedRemaining)
	}
	// Negative balances signal over-consumption and are not clamped.
	if balance.PendingRegularize != -2 {
		t.Errorf("PendingRegularize = %v, want -2", balance.PendingRegularize)
	}
}

func TestMonthTotalsBucketsByMonday(t *testing.T) {
	// 2024-W05 starts Monday 2024-01-29 and spans into February; the whole
	// week is attributed to January.
	led := ledger.FromRecords([]core.Imputation{
		{ID: "i1", WeekID: "2024-W05", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8, Fri: 8}},
		{ID: "i2", WeekID: "2024-W06", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8}},
		{ID: "i3", WeekID: "2024-W10", UserID: "u1", TaskID: "t1", Type: core.TypeJira,
			Hours: core.DayHours{Mon: 2}, Seg: true},
		{ID: "i4", WeekID: "2023-W40", UserID: "u1", TaskID: "t1", Type: core.TypeTrabajado,
			Hours: core.DayHours{Mon: 8}},
	})
	agg := NewAggregator(led)

	totals := agg.MonthTotals(2024, "u1", SegAll)
	if got := totals[0][core.TypeTrabajado]; got != 16 {
		t.Errorf("January TRABAJADO = %v, want 16", got)
	}
	if got := totals[1][core.TypeTrabajado]; got != 8 {
		t.Errorf("February TRABAJADO = %v, want 8", got)
	}
	if got := totals[2][core.TypeJira]; got != 2 {
		t.Errorf("March JIRA = %v, want 2", got)
	}

	segOnly := agg.MonthTotals(2024, "u1", SegOnly)
	if segOnly[0][core.TypeTrabajado] != 0 || segOnly[2][core.TypeJira] != 2 {
		t.Errorf("SegOnly filter wrong: %v", segOnly)
	}
	noSeg := agg.MonthTotals(2024, "u1", SegExcluded)
	if noSeg[2][core.TypeJira] != 0 {
		t.Errorf("SegExcluded filter kept a SEG row")
	}
}

func TestVisibleTasks(t *testing.T) {
	tasks := []core.Task{
		{ID: "t1", Code: "A", Name: "Assigned", Active: true, AssignedUserIDs: []string{"u1"}},
		{ID: "t2", Code: "B", Name: "Global", Active: true, Global: true},
		{ID: "t3", Code: "C", Name: "Inactive global", Active: false, Global: true},
		{ID: "t4", Code: "D", Name: "Role scoped", Active: true, TargetRoles: []core.Role{core.RoleApprover}},
	}

	visible := VisibleTasks(tasks, "u1", []core.Role{core.RoleAnalyst})
	if len(visible) != 2 {
		t.Fatalf("got %d visible tasks, want 2: %+v", len(visible), visible)
	}

	approver := VisibleTasks(tasks, "u2", []core.Role{core.RoleApprover})
	if len(approver) != 2 {
		t.Fatalf("approver sees %d tasks, want 2", len(approver))
	}
}

func TestAllowedTypes(t *testing.T) {
	catalogue := []core.TaskType{
		{ID: core.TypeTrabajado, Label: "Trabajado"},
		{ID: core.TypeVacaciones, Label: "Vacaciones", Structural: true},
	}

	structural := core.Task{ID: "t1", Code: core.StructuralTaskCode, Name: "Estructural"}
	regular := core.Task{ID: "t2", Code: "H1-01", Name: "Backend"}

	if got := AllowedTypes(structural, catalogue); len(got) != 1 || got[0].ID != core.TypeVacaciones {
		t.Errorf("structural task allowed types = %+v", got)
	}
	if got := AllowedTypes(regular, catalogue); len(got) != 1 || got[0].ID != core.TypeTrabajado {
		t.Errorf("regular task allowed types = %+v", got)
	}
}

func TestParseSegFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    SegFilter
		wantErr bool
	}{
		{"", SegAll, false},
		{"all", SegAll, false},
		{"seg", SegOnly, false},
		{"no-seg", SegExcluded, false},
		{"bogus", SegAll, true},
	}
	for _, tt := range tests {
		got, err := ParseSegFilter(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSegFilter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseSegFilter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
