package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestDayHoursTotal(t *testing.T) {
	tests := []struct {
		name  string
		hours DayHours
		want  float64
	}{
		{
			name:  "full working week",
			hours: DayHours{Mon: 8, Tue: 8, Wed: 8, Thu: 8, Fri: 8},
			want:  40,
		},
		{
			name:  "absent cells count as zero",
			hours: DayHours{Wed: 4.5},
			want:  4.5,
		},
		{
			name:  "empty row",
			hours: DayHours{},
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hours.Total(); got != tt.want {
				t.Errorf("Total() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDayHoursValidate(t *testing.T) {
	tests := []struct {
		name    string
		hours   DayHours
		wantErr bool
	}{
		{name: "all zero is valid", hours: DayHours{}},
		{name: "fractional hours are valid", hours: DayHours{Mon: 7.5}},
		{name: "negative hours rejected", hours: DayHours{Tue: -1}, wantErr: true},
		{name: "NaN rejected", hours: DayHours{Fri: math.NaN()}, wantErr: true},
		{name: "infinity rejected", hours: DayHours{Sun: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hours.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("Validate() returned %T, want *ValidationError", err)
			}
		})
	}
}

func TestImputationValidate(t *testing.T) {
	valid := Imputation{
		ID:     "imp-1",
		WeekID: "2024-W10",
		TaskID: "task-1",
		UserID: "user-1",
		Type:   TypeTrabajado,
		Hours:  DayHours{Mon: 8, Tue: 8, Wed: 8, Thu: 8, Fri: 8},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid imputation rejected: %v", err)
	}
	if got := valid.TotalHours(); got != 40 {
		t.Errorf("TotalHours() = %v, want 40", got)
	}

	tests := []struct {
		name   string
		mutate func(*Imputation)
	}{
		{"empty week id", func(i *Imputation) { i.WeekID = "" }},
		{"malformed week id", func(i *Imputation) { i.WeekID = "2024-10" }},
		{"empty task id", func(i *Imputation) { i.TaskID = "" }},
		{"empty user id", func(i *Imputation) { i.UserID = "" }},
		{"empty type", func(i *Imputation) { i.Type = "" }},
		{"negative hours", func(i *Imputation) { i.Hours.Mon = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := valid
			tt.mutate(&imp)
			if err := imp.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestTaskTypeUnmarshalDefaults(t *testing.T) {
	// Legacy records without computesInWeek/subtractsFromBudget keep the
	// old implicit true semantics.
	var legacy TaskType
	if err := json.Unmarshal([]byte(`{"id":"TRABAJADO","label":"Trabajado"}`), &legacy); err != nil {
		t.Fatalf("unmarshal legacy: %v", err)
	}
	if !legacy.ComputesInWeek || !legacy.SubtractsFromBudget {
		t.Errorf("legacy defaults = (%v, %v), want (true, true)",
			legacy.ComputesInWeek, legacy.SubtractsFromBudget)
	}

	var explicit TaskType
	data := `{"id":"PRE_IMPUTADO","label":"Pre-imputado","computesInWeek":false,"subtractsFromBudget":false}`
	if err := json.Unmarshal([]byte(data), &explicit); err != nil {
		t.Fatalf("unmarshal explicit: %v", err)
	}
	if explicit.ComputesInWeek || explicit.SubtractsFromBudget {
		t.Errorf("explicit false values overridden: (%v, %v)",
			explicit.ComputesInWeek, explicit.SubtractsFromBudget)
	}
}

func TestTypeSetDefaults(t *testing.T) {
	set := NewTypeSet([]TaskType{
		{ID: TypeTrabajado, Label: "Trabajado", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: TypePreImputado, Label: "Pre-imputado", ComputesInWeek: false, SubtractsFromBudget: false},
		{ID: "GUARDIA", Label: "Guardia", Structural: true, ComputesInWeek: true, SubtractsFromBudget: true},
	})

	if !set.Computable(TypeTrabajado) {
		t.Error("Computable(TRABAJADO) = false")
	}
	if set.Computable(TypePreImputado) {
		t.Error("Computable(PRE_IMPUTADO) = true")
	}
	// Unknown ids default to computable and budget-subtracting so rows
	// pointing at deleted types still count in user totals.
	if !set.Computable("DELETED") || !set.BudgetSubtracting("DELETED") {
		t.Error("unknown type id should default to true")
	}
	if !set.Structural("GUARDIA") || set.Structural(TypeTrabajado) {
		t.Error("Structural() wrong for explicit flags")
	}
	if set.Structural("DELETED") {
		t.Error("Structural() should default to false for unknown ids")
	}
}

func TestTaskVisibleTo(t *testing.T) {
	task := Task{
		ID:              "t1",
		Code:            "HITO1-01",
		Name:            "Backend",
		AssignedUserIDs: []string{"ana"},
		TargetRoles:     []Role{RoleApprover},
	}

	tests := []struct {
		name   string
		userID string
		roles  []Role
		want   bool
	}{
		{"assigned user", "ana", []Role{RoleAnalyst}, true},
		{"matching role", "bob", []Role{RoleApprover}, true},
		{"no assignment nor role", "bob", []Role{RoleAnalyst}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := task.VisibleTo(tt.userID, tt.roles); got != tt.want {
				t.Errorf("VisibleTo(%q) = %v, want %v", tt.userID, got, tt.want)
			}
		})
	}

	global := Task{ID: "t2", Code: "G", Name: "Global", Global: true}
	if !global.VisibleTo("anyone", nil) {
		t.Error("global task should be visible to everyone")
	}
}

func TestImputationFilterMatches(t *testing.T) {
	imp := Imputation{
		ID: "i1", WeekID: "2024-W10", TaskID: "t1", UserID: "u1", Type: TypeTrabajado,
	}

	tests := []struct {
		name   string
		filter ImputationFilter
		want   bool
	}{
		{"empty filter matches", ImputationFilter{}, true},
		{"week match", ImputationFilter{WeekID: "2024-W10"}, true},
		{"week mismatch", ImputationFilter{WeekID: "2024-W11"}, false},
		{"conjunction", ImputationFilter{UserID: "u1", TaskID: "t1", Type: TypeTrabajado}, true},
		{"conjunction with one mismatch", ImputationFilter{UserID: "u1", Type: TypeJira}, false},
		{"year range inclusive", ImputationFilter{YearFrom: 2024, YearTo: 2024}, true},
		{"year below range", ImputationFilter{YearFrom: 2025}, false},
		{"year above range", ImputationFilter{YearTo: 2023}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(imp); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
