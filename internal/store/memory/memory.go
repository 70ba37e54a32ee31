// Package memory is the non-persistent store used for development and
// tests. It can seed its catalogue from JSON fixture files in a data
// directory; missing files fall back to a small default catalogue.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"horas/internal/core"
	"horas/internal/store"
)

type Store struct {
	mu          sync.RWMutex
	taskTypes   map[string]core.TaskType
	tasks       map[string]core.Task
	imputations map[string]core.Imputation
	locks       map[string]bool
	users       map[string]core.User // keyed by name
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		taskTypes:   make(map[string]core.TaskType),
		tasks:       make(map[string]core.Task),
		imputations: make(map[string]core.Imputation),
		locks:       make(map[string]bool),
		users:       make(map[string]core.User),
	}
}

// NewFromFiles seeds a store from JSON fixtures under base: task_types.json,
// tasks.json, users.json, imputations.json, week_locks.json. Any missing
// file is skipped; an empty task-type catalogue gets the default one.
func NewFromFiles(base string) *Store {
	s := New()

	var types []core.TaskType
	readJSON(filepath.Join(base, "task_types.json"), &types)
	if len(types) == 0 {
		types = DefaultTaskTypes()
	}
	for _, t := range types {
		s.taskTypes[t.ID] = t
	}

	var tasks []core.Task
	readJSON(filepath.Join(base, "tasks.json"), &tasks)
	for _, t := range tasks {
		s.tasks[t.ID] = t
	}

	var users []seedUser
	readJSON(filepath.Join(base, "users.json"), &users)
	if len(users) == 0 {
		users = []seedUser{{
			ID: "admin", Name: "admin", Password: "admin",
			Roles: []core.Role{core.RoleApprover, core.RoleAnalyst}, Active: true, MaxHours: 40,
		}}
	}
	for _, u := range users {
		s.users[u.Name] = core.User(u)
	}

	var imps []core.Imputation
	readJSON(filepath.Join(base, "imputations.json"), &imps)
	for _, imp := range imps {
		s.imputations[imp.ID] = imp
	}

	var locks []core.WeekLock
	readJSON(filepath.Join(base, "week_locks.json"), &locks)
	for _, l := range locks {
		s.locks[l.WeekID] = l.Locked
	}

	return s
}

// seedUser mirrors core.User but with the password included in JSON.
type seedUser struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Password string      `json:"password"`
	Roles    []core.Role `json:"roles"`
	Active   bool        `json:"active"`
	MaxHours float64     `json:"maxHours"`
}

// DefaultTaskTypes is the catalogue a fresh deployment starts with.
func DefaultTaskTypes() []core.TaskType {
	return []core.TaskType{
		{ID: core.TypeTrabajado, Label: "Trabajado", Color: "#4caf50", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeJira, Label: "Jira", Color: "#2196f3", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeVacaciones, Label: "Vacaciones", Color: "#ff9800", Structural: true, ComputesInWeek: true, SubtractsFromBudget: false},
		{ID: core.TypeEnfermedad, Label: "Enfermedad", Color: "#f44336", Structural: true, ComputesInWeek: true, SubtractsFromBudget: false},
		{ID: core.TypeSinProyecto, Label: "Sin proyecto", Color: "#9e9e9e", Structural: true, ComputesInWeek: true, SubtractsFromBudget: false},
		{ID: core.TypePreImputado, Label: "Pre-imputado", Color: "#9c27b0", ComputesInWeek: true, SubtractsFromBudget: true},
		{ID: core.TypeYaImputado, Label: "Ya imputado", Color: "#673ab7", ComputesInWeek: false, SubtractsFromBudget: false},
		{ID: core.TypePendiente, Label: "Pendiente de regularizar", Color: "#ffc107", ComputesInWeek: true, SubtractsFromBudget: false},
		{ID: core.TypeRegularizado, Label: "Regularizado", Color: "#00bcd4", ComputesInWeek: false, SubtractsFromBudget: true},
		{ID: core.TypeRecuperado, Label: "Recuperado", Color: "#8bc34a", ComputesInWeek: true, SubtractsFromBudget: true},
	}
}

func readJSON(path string, v any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = json.Unmarshal(data, v)
}

func (s *Store) ListTaskTypes(_ context.Context) ([]core.TaskType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.TaskType, 0, len(s.taskTypes))
	for _, t := range s.taskTypes {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) GetTaskType(_ context.Context, id string) (core.TaskType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.taskTypes[id]
	if !ok {
		return core.TaskType{}, fmt.Errorf("task type %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) PutTaskType(_ context.Context, t core.TaskType) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskTypes[t.ID] = t
	return nil
}

func (s *Store) DeleteTaskType(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.taskTypes[id]; !ok {
		return fmt.Errorf("task type %s: %w", id, core.ErrNotFound)
	}
	delete(s.taskTypes, id)
	return nil
}

func (s *Store) ListTasks(_ context.Context) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) GetTask(_ context.Context, id string) (core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return core.Task{}, fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) PutTask(_ context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, core.ErrNotFound)
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) ListImputations(_ context.Context, f core.ImputationFilter) ([]core.Imputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Imputation
	for _, imp := range s.imputations {
		if f.Matches(imp) {
			out = append(out, imp)
		}
	}
	return out, nil
}

func (s *Store) GetImputation(_ context.Context, id string) (core.Imputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	imp, ok := s.imputations[id]
	if !ok {
		return core.Imputation{}, fmt.Errorf("imputation %s: %w", id, core.ErrNotFound)
	}
	return imp, nil
}

func (s *Store) PutImputation(_ context.Context, imp core.Imputation) error {
	if err := imp.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imputations[imp.ID] = imp
	return nil
}

func (s *Store) DeleteImputation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.imputations, id)
	return nil
}

func (s *Store) ListWeekLocks(_ context.Context) ([]core.WeekLock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.WeekLock, 0, len(s.locks))
	for weekID, locked := range s.locks {
		out = append(out, core.WeekLock{WeekID: weekID, Locked: locked})
	}
	return out, nil
}

func (s *Store) IsWeekLocked(_ context.Context, weekID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locks[weekID], nil
}

func (s *Store) SetWeekLock(_ context.Context, lock core.WeekLock) error {
	if _, _, err := core.ParseWeekID(lock.WeekID); err != nil {
		return &core.ValidationError{Field: "weekId", Reason: err.Error()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[lock.WeekID] = lock.Locked
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) GetUserByName(_ context.Context, name string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[name]
	if !ok {
		return core.User{}, fmt.Errorf("user %s: %w", name, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) Close() error { return nil }
