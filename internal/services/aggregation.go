// Package services holds the computation core (aggregation, period
// summaries) and the write boundaries that guard it (validation, week
// locks, the type-in-use rule).
package services

import (
	"fmt"
	"time"

	"horas/internal/cache"
	"horas/internal/core"
	"horas/internal/ledger"
)

// SegFilter restricts aggregation to rows by their SEG flag.
type SegFilter int

const (
	SegAll SegFilter = iota
	SegOnly
	SegExcluded
)

// ParseSegFilter maps the query-string form to a SegFilter.
func ParseSegFilter(s string) (SegFilter, error) {
	switch s {
	case "", "all":
		return SegAll, nil
	case "seg":
		return SegOnly, nil
	case "no-seg":
		return SegExcluded, nil
	}
	return SegAll, &core.ValidationError{Field: "seg", Reason: fmt.Sprintf("unknown filter %q", s)}
}

func (f SegFilter) matches(seg bool) bool {
	switch f {
	case SegOnly:
		return seg
	case SegExcluded:
		return !seg
	}
	return true
}

func (f SegFilter) String() string {
	switch f {
	case SegOnly:
		return "seg"
	case SegExcluded:
		return "no-seg"
	}
	return "all"
}

type (
	// WeekTotals aggregates one user's week: per-day sums, the grand
	// total, and per-type splits into computable and other.
	WeekTotals struct {
		WeekID     string             `json:"weekId"`
		UserID     string             `json:"userId"`
		ByDay      core.DayHours      `json:"byDay"`
		Total      float64            `json:"total"`
		Computable float64            `json:"computable"`
		ByType     map[string]float64 `json:"byType"`
		// Other itemizes hours of non-computable types per type id.
		Other map[string]float64 `json:"other"`
	}

	// BudgetStatus reports budget consumption for one task. Tracked is
	// false when the task carries no UTEs allotment; a zero budget and
	// "no budget tracked" are different things.
	BudgetStatus struct {
		TaskID    string  `json:"taskId"`
		Tracked   bool    `json:"tracked"`
		Budget    float64 `json:"budget"`
		Consumed  float64 `json:"consumed"`
		Remaining float64 `json:"remaining"`
	}

	// TaskBalance carries the two signed per-task counters. Negative
	// values signal over-consumption and are surfaced, never clamped.
	TaskBalance struct {
		TaskID              string  `json:"taskId"`
		PreimputedRemaining float64 `json:"preimputedRemaining"`
		PendingRegularize   float64 `json:"pendingRegularize"`
	}

	// MonthlyTypeTotals holds hours per task type for each month of a
	// year. Index 0 is January.
	MonthlyTypeTotals [12]map[string]float64
)

// Aggregator derives totals from a ledger snapshot. Results are pure
// functions of (ledger, type set, scope) and are memoized under the
// ledger version, so any mutation invalidates them implicitly.
type Aggregator struct {
	ledger     *ledger.Ledger
	weekCache  *cache.LRU[WeekTotals]
	monthCache *cache.LRU[MonthlyTypeTotals]
}

func NewAggregator(led *ledger.Ledger) *Aggregator {
	return &Aggregator{
		ledger:     led,
		weekCache:  cache.NewLRU[WeekTotals](256, 10*time.Minute),
		monthCache: cache.NewLRU[MonthlyTypeTotals](64, 10*time.Minute),
	}
}

// WeekTotals computes one user's totals for a week. The acting user is an
// explicit parameter; the engine never consults ambient session state.
func (a *Aggregator) WeekTotals(types core.TypeSet, userID, weekID string) WeekTotals {
	key := cache.VersionedKey(fmt.Sprintf("week:%s:%s", weekID, userID), a.ledger.Version())
	if cached, ok := a.weekCache.Get(key); ok {
		return cached
	}

	totals := WeekTotals{
		WeekID: weekID,
		UserID: userID,
		ByType: make(map[string]float64),
		Other:  make(map[string]float64),
	}
	for _, imp := range a.ledger.Query(core.ImputationFilter{WeekID: weekID, UserID: userID}) {
		hours := imp.TotalHours()
		totals.ByDay = totals.ByDay.Add(imp.Hours)
		totals.Total += hours
		totals.ByType[imp.Type] += hours
		if types.Computable(imp.Type) {
			totals.Computable += hours
		} else {
			totals.Other[imp.Type] += hours
		}
	}

	a.weekCache.Set(key, totals)
	return totals
}

// TaskBudget computes remaining budget for a task across the whole ledger.
// Rows whose type does not subtract from budget are ignored.
func (a *Aggregator) TaskBudget(types core.TypeSet, task core.Task) BudgetStatus {
	status := BudgetStatus{TaskID: task.ID, Tracked: task.HasBudget(), Budget: task.UTEs}
	for _, imp := range a.ledger.Query(core.ImputationFilter{TaskID: task.ID}) {
		if types.BudgetSubtracting(imp.Type) {
			status.Consumed += imp.TotalHours()
		}
	}
	if status.Tracked {
		status.Remaining = status.Budget - status.Consumed
	}
	return status
}

// TaskBalance computes the signed pre-imputed and pending counters for a
// task: PRE_IMPUTADO minus YA_IMPUTADO, and PENDIENTE minus REGULARIZADO.
func (a *Aggregator) TaskBalance(taskID string) TaskBalance {
	balance := TaskBalance{TaskID: taskID}
	for _, imp := range a.ledger.Query(core.ImputationFilter{TaskID: taskID}) {
		switch imp.Type {
		case core.TypePreImputado:
			balance.PreimputedRemaining += imp.TotalHours()
		case core.TypeYaImputado:
			balance.PreimputedRemaining -= imp.TotalHours()
		case core.TypePendiente:
			balance.PendingRegularize += imp.TotalHours()
		case core.TypeRegularizado:
			balance.PendingRegularize -= imp.TotalHours()
		}
	}
	return balance
}

// MonthTotals buckets a year's hours per task type and calendar month.
// A week is attributed wholly to the month of its Monday, even when it
// spans two months. userID empty means all users. Task identity is not
// required here, so rows pointing at deleted tasks still count.
func (a *Aggregator) MonthTotals(year int, userID string, seg SegFilter) MonthlyTypeTotals {
	key := cache.VersionedKey(fmt.Sprintf("year:%d:%s:%s", year, userID, seg), a.ledger.Version())
	if cached, ok := a.monthCache.Get(key); ok {
		return cached
	}

	var totals MonthlyTypeTotals
	for i := range totals {
		totals[i] = make(map[string]float64)
	}
	for _, imp := range a.ledger.Query(core.ImputationFilter{UserID: userID, YearFrom: year, YearTo: year}) {
		if !seg.matches(imp.Seg) {
			continue
		}
		_, month, err := core.MonthOfWeek(imp.WeekID)
		if err != nil {
			continue // unreachable for records that passed validation
		}
		totals[int(month)-1][imp.Type] += imp.TotalHours()
	}

	a.monthCache.Set(key, totals)
	return totals
}

// VisibleTasks filters the catalogue down to what the acting user may log
// hours against. Roles are passed explicitly by the caller.
func VisibleTasks(tasks []core.Task, userID string, roles []core.Role) []core.Task {
	var out []core.Task
	for _, t := range tasks {
		if t.Active && t.VisibleTo(userID, roles) {
			out = append(out, t)
		}
	}
	return out
}

// AllowedTypes partitions the catalogue for a task: the structural task
// takes structural types only, every other task the non-structural ones.
func AllowedTypes(task core.Task, types []core.TaskType) []core.TaskType {
	var out []core.TaskType
	for _, t := range types {
		if t.Structural == task.Structural() {
			out = append(out, t)
		}
	}
	return out
}
