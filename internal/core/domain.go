package core

import (
	"encoding/json"
	"math"
	"strings"
)

// Well-known task type ids. The reporting formulas are defined over these.
const (
	TypeTrabajado    = "TRABAJADO"
	TypeJira         = "JIRA"
	TypeVacaciones   = "VACACIONES"
	TypePreImputado  = "PRE_IMPUTADO"
	TypeYaImputado   = "YA_IMPUTADO"
	TypePendiente    = "PENDIENTE"
	TypeRegularizado = "REGULARIZADO"
	TypeRecuperado   = "RECUPERADO"
	TypeSinProyecto  = "SIN_PROYECTO"
	TypeEnfermedad   = "ENFERMEDAD"
)

// StructuralTaskCode marks the task whose rows may only carry structural
// task types; every other task may only carry non-structural ones.
const StructuralTaskCode = "Estructural"

type Role string

const (
	RoleAnalyst  Role = "ANALYST"
	RoleApprover Role = "APPROVER"
)

type (
	// TaskType classifies imputation rows. ComputesInWeek and
	// SubtractsFromBudget are explicit booleans; legacy records that omit
	// them decode as true (see UnmarshalJSON).
	TaskType struct {
		ID                  string `json:"id"`
		Label               string `json:"label"`
		Color               string `json:"color"`
		Structural          bool   `json:"structural"`
		ComputesInWeek      bool   `json:"computesInWeek"`
		SubtractsFromBudget bool   `json:"subtractsFromBudget"`
	}

	// Task is a unit of work hours are logged against. UTEs is the
	// budgeted hour allotment; zero means no budget is tracked.
	Task struct {
		ID              string   `json:"id"`
		Code            string   `json:"code"`
		Name            string   `json:"name"`
		Description     string   `json:"description"`
		Hito            string   `json:"hito"`
		UTEs            float64  `json:"utes"`
		Permanent       bool     `json:"permanent"`
		Active          bool     `json:"active"`
		Global          bool     `json:"isGlobal"`
		TargetRoles     []Role   `json:"targetRoles"`
		AssignedUserIDs []string `json:"assignedUserIds"`
	}

	// DayHours holds the seven per-day hour cells of one imputation row.
	// Absent cells are zero.
	DayHours struct {
		Mon float64 `json:"mon"`
		Tue float64 `json:"tue"`
		Wed float64 `json:"wed"`
		Thu float64 `json:"thu"`
		Fri float64 `json:"fri"`
		Sat float64 `json:"sat"`
		Sun float64 `json:"sun"`
	}

	// Imputation is one weekly timesheet line: task x type x per-day
	// hours for one user.
	Imputation struct {
		ID       string   `json:"id"`
		WeekID   string   `json:"weekId"`
		TaskID   string   `json:"taskId"`
		UserID   string   `json:"userId"`
		Type     string   `json:"type"`
		Hours    DayHours `json:"hours"`
		Seg      bool     `json:"seg"`
		Status   string   `json:"status"`
		Approved bool     `json:"approved"`
	}

	// WeekLock freezes edits to one week's imputations for non-approvers.
	WeekLock struct {
		WeekID string `json:"weekId"`
		Locked bool   `json:"isLocked"`
	}

	User struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Password string  `json:"-"`
		Roles    []Role  `json:"roles"`
		Active   bool    `json:"active"`
		MaxHours float64 `json:"maxHours"`
	}
)

// DayNames lists the JSON keys of DayHours in week order.
var DayNames = [7]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}

// Days returns the seven cells in week order (Monday first).
func (h DayHours) Days() [7]float64 {
	return [7]float64{h.Mon, h.Tue, h.Wed, h.Thu, h.Fri, h.Sat, h.Sun}
}

// Total sums the seven day cells.
func (h DayHours) Total() float64 {
	var sum float64
	for _, v := range h.Days() {
		sum += v
	}
	return sum
}

// Add returns the cell-wise sum of two DayHours.
func (h DayHours) Add(o DayHours) DayHours {
	return DayHours{
		Mon: h.Mon + o.Mon,
		Tue: h.Tue + o.Tue,
		Wed: h.Wed + o.Wed,
		Thu: h.Thu + o.Thu,
		Fri: h.Fri + o.Fri,
		Sat: h.Sat + o.Sat,
		Sun: h.Sun + o.Sun,
	}
}

func (h DayHours) Validate() error {
	for i, v := range h.Days() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: "hours." + DayNames[i], Reason: "not a number"}
		}
		if v < 0 {
			return &ValidationError{Field: "hours." + DayNames[i], Reason: "negative hours"}
		}
	}
	return nil
}

// TotalHours sums the seven day cells of the imputation.
func (i Imputation) TotalHours() float64 {
	return i.Hours.Total()
}

func (i Imputation) Validate() error {
	if strings.TrimSpace(i.WeekID) == "" {
		return &ValidationError{Field: "weekId", Reason: "empty"}
	}
	if _, _, err := ParseWeekID(i.WeekID); err != nil {
		return &ValidationError{Field: "weekId", Reason: err.Error()}
	}
	if strings.TrimSpace(i.TaskID) == "" {
		return &ValidationError{Field: "taskId", Reason: "empty"}
	}
	if strings.TrimSpace(i.UserID) == "" {
		return &ValidationError{Field: "userId", Reason: "empty"}
	}
	if strings.TrimSpace(i.Type) == "" {
		return &ValidationError{Field: "type", Reason: "empty"}
	}
	return i.Hours.Validate()
}

func (t TaskType) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "empty"}
	}
	if strings.TrimSpace(t.Label) == "" {
		return &ValidationError{Field: "label", Reason: "empty"}
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return &ValidationError{Field: "id", Reason: "empty"}
	}
	if strings.TrimSpace(t.Code) == "" {
		return &ValidationError{Field: "code", Reason: "empty"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: "empty"}
	}
	if t.UTEs < 0 || math.IsNaN(t.UTEs) {
		return &ValidationError{Field: "utes", Reason: "must be a non-negative number"}
	}
	return nil
}

// Structural reports whether this is the structural task.
func (t Task) Structural() bool {
	return t.Code == StructuralTaskCode
}

// HasBudget reports whether budget tracking applies. A zero UTEs value
// means "no budget tracked", which is distinct from a budget of zero hours
// remaining.
func (t Task) HasBudget() bool {
	return t.UTEs > 0
}

// VisibleTo reports whether the task shows up on the weekly sheet of the
// given user. Global tasks are visible to everyone.
func (t Task) VisibleTo(userID string, roles []Role) bool {
	if t.Global {
		return true
	}
	for _, id := range t.AssignedUserIDs {
		if id == userID {
			return true
		}
	}
	for _, tr := range t.TargetRoles {
		for _, r := range roles {
			if tr == r {
				return true
			}
		}
	}
	return false
}

func (u User) HasRole(r Role) bool {
	return HasRole(u.Roles, r)
}

func (u User) IsApprover() bool {
	return u.HasRole(RoleApprover)
}

// HasRole reports whether r is in roles.
func HasRole(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}

// UnmarshalJSON decodes a task type, defaulting ComputesInWeek and
// SubtractsFromBudget to true when absent. Legacy records predate both
// fields and kept those semantics implicitly.
func (t *TaskType) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID                  string `json:"id"`
		Label               string `json:"label"`
		Color               string `json:"color"`
		Structural          bool   `json:"structural"`
		ComputesInWeek      *bool  `json:"computesInWeek"`
		SubtractsFromBudget *bool  `json:"subtractsFromBudget"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	t.ID = a.ID
	t.Label = a.Label
	t.Color = a.Color
	t.Structural = a.Structural
	t.ComputesInWeek = a.ComputesInWeek == nil || *a.ComputesInWeek
	t.SubtractsFromBudget = a.SubtractsFromBudget == nil || *a.SubtractsFromBudget
	return nil
}

// TypeSet indexes task types by id for classification lookups during
// aggregation.
type TypeSet map[string]TaskType

// NewTypeSet builds a TypeSet from a slice of task types.
func NewTypeSet(types []TaskType) TypeSet {
	set := make(TypeSet, len(types))
	for _, t := range types {
		set[t.ID] = t
	}
	return set
}

// Computable reports whether hours of the given type count toward weekly
// computable totals. Unknown ids default to true so that rows pointing at
// a deleted type are still counted in user totals.
func (s TypeSet) Computable(id string) bool {
	t, ok := s[id]
	return !ok || t.ComputesInWeek
}

// BudgetSubtracting reports whether hours of the given type consume task
// budget. Unknown ids default to true.
func (s TypeSet) BudgetSubtracting(id string) bool {
	t, ok := s[id]
	return !ok || t.SubtractsFromBudget
}

// Structural reports the structural flag of the given type id.
func (s TypeSet) Structural(id string) bool {
	t, ok := s[id]
	return ok && t.Structural
}

// ImputationFilter selects imputations by conjunction of the supplied
// predicates. Zero fields match everything.
type ImputationFilter struct {
	WeekID   string
	UserID   string
	TaskID   string
	Type     string
	YearFrom int
	YearTo   int
}

// Matches reports whether the imputation satisfies every supplied predicate.
func (f ImputationFilter) Matches(imp Imputation) bool {
	if f.WeekID != "" && imp.WeekID != f.WeekID {
		return false
	}
	if f.UserID != "" && imp.UserID != f.UserID {
		return false
	}
	if f.TaskID != "" && imp.TaskID != f.TaskID {
		return false
	}
	if f.Type != "" && imp.Type != f.Type {
		return false
	}
	if f.YearFrom != 0 || f.YearTo != 0 {
		year, _, err := ParseWeekID(imp.WeekID)
		if err != nil {
			return false
		}
		if f.YearFrom != 0 && year < f.YearFrom {
			return false
		}
		if f.YearTo != 0 && year > f.YearTo {
			return false
		}
	}
	return true
}
