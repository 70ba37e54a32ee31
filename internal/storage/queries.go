package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"horas/internal/core"
)

// Queries wraps the raw SQL statements of the sqlite backend. Role and
// user-assignment lists are stored as JSON arrays in text columns.
type Queries struct {
	db *sql.DB
}

func New(db *sql.DB) *Queries {
	return &Queries{db: db}
}

const listTaskTypes = `
SELECT id, label, color, structural, computes_in_week, subtracts_from_budget
FROM task_types ORDER BY id`

func (q *Queries) ListTaskTypes(ctx context.Context) ([]core.TaskType, error) {
	rows, err := q.db.QueryContext(ctx, listTaskTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.TaskType
	for rows.Next() {
		var t core.TaskType
		if err := rows.Scan(&t.ID, &t.Label, &t.Color, &t.Structural, &t.ComputesInWeek, &t.SubtractsFromBudget); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const getTaskType = `
SELECT id, label, color, structural, computes_in_week, subtracts_from_budget
FROM task_types WHERE id = ?`

func (q *Queries) GetTaskType(ctx context.Context, id string) (core.TaskType, error) {
	var t core.TaskType
	err := q.db.QueryRowContext(ctx, getTaskType, id).
		Scan(&t.ID, &t.Label, &t.Color, &t.Structural, &t.ComputesInWeek, &t.SubtractsFromBudget)
	return t, err
}

const upsertTaskType = `
INSERT INTO task_types (id, label, color, structural, computes_in_week, subtracts_from_budget)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    label = excluded.label,
    color = excluded.color,
    structural = excluded.structural,
    computes_in_week = excluded.computes_in_week,
    subtracts_from_budget = excluded.subtracts_from_budget`

func (q *Queries) UpsertTaskType(ctx context.Context, t core.TaskType) error {
	_, err := q.db.ExecContext(ctx, upsertTaskType,
		t.ID, t.Label, t.Color, t.Structural, t.ComputesInWeek, t.SubtractsFromBudget)
	return err
}

func (q *Queries) DeleteTaskType(ctx context.Context, id string) error {
	return q.deleteByID(ctx, "task_types", id)
}

const listTasks = `
SELECT id, code, name, description, hito, utes, permanent, active, is_global, target_roles, assigned_user_ids
FROM tasks ORDER BY code, id`

func (q *Queries) ListTasks(ctx context.Context) ([]core.Task, error) {
	rows, err := q.db.QueryContext(ctx, listTasks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

const getTask = `
SELECT id, code, name, description, hito, utes, permanent, active, is_global, target_roles, assigned_user_ids
FROM tasks WHERE id = ?`

func (q *Queries) GetTask(ctx context.Context, id string) (core.Task, error) {
	return scanTask(q.db.QueryRowContext(ctx, getTask, id))
}

const upsertTask = `
INSERT INTO tasks (id, code, name, description, hito, utes, permanent, active, is_global, target_roles, assigned_user_ids)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    code = excluded.code,
    name = excluded.name,
    description = excluded.description,
    hito = excluded.hito,
    utes = excluded.utes,
    permanent = excluded.permanent,
    active = excluded.active,
    is_global = excluded.is_global,
    target_roles = excluded.target_roles,
    assigned_user_ids = excluded.assigned_user_ids`

func (q *Queries) UpsertTask(ctx context.Context, t core.Task) error {
	roles, err := json.Marshal(rolesOrEmpty(t.TargetRoles))
	if err != nil {
		return fmt.Errorf("encode target roles: %w", err)
	}
	assigned, err := json.Marshal(stringsOrEmpty(t.AssignedUserIDs))
	if err != nil {
		return fmt.Errorf("encode assigned users: %w", err)
	}
	_, err = q.db.ExecContext(ctx, upsertTask,
		t.ID, t.Code, t.Name, t.Description, t.Hito, t.UTEs,
		t.Permanent, t.Active, t.Global, string(roles), string(assigned))
	return err
}

func (q *Queries) DeleteTask(ctx context.Context, id string) error {
	return q.deleteByID(ctx, "tasks", id)
}

const imputationColumns = `
id, week_id, task_id, user_id, type, mon, tue, wed, thu, fri, sat, sun, seg, status, approved`

// ListImputations filters server-side on week, user, task, type and the
// week-id year range. Zero filter fields are not constrained.
func (q *Queries) ListImputations(ctx context.Context, f core.ImputationFilter) ([]core.Imputation, error) {
	query := "SELECT " + imputationColumns + " FROM imputations"
	var (
		conds []string
		args  []any
	)
	if f.WeekID != "" {
		conds = append(conds, "week_id = ?")
		args = append(args, f.WeekID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.TaskID != "" {
		conds = append(conds, "task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, f.Type)
	}
	if f.YearFrom != 0 {
		conds = append(conds, "week_year >= ?")
		args = append(args, f.YearFrom)
	}
	if f.YearTo != 0 {
		conds = append(conds, "week_year <= ?")
		args = append(args, f.YearTo)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY week_id, task_id, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Imputation
	for rows.Next() {
		imp, err := scanImputation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	return out, rows.Err()
}

const getImputation = `
SELECT ` + imputationColumns + ` FROM imputations WHERE id = ?`

func (q *Queries) GetImputation(ctx context.Context, id string) (core.Imputation, error) {
	return scanImputation(q.db.QueryRowContext(ctx, getImputation, id))
}

const upsertImputation = `
INSERT INTO imputations (id, week_id, week_year, task_id, user_id, type, mon, tue, wed, thu, fri, sat, sun, seg, status, approved)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    week_id = excluded.week_id,
    week_year = excluded.week_year,
    task_id = excluded.task_id,
    user_id = excluded.user_id,
    type = excluded.type,
    mon = excluded.mon, tue = excluded.tue, wed = excluded.wed, thu = excluded.thu,
    fri = excluded.fri, sat = excluded.sat, sun = excluded.sun,
    seg = excluded.seg,
    status = excluded.status,
    approved = excluded.approved,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertImputation(ctx context.Context, imp core.Imputation) error {
	year, _, err := core.ParseWeekID(imp.WeekID)
	if err != nil {
		return fmt.Errorf("parse week id: %w", err)
	}
	h := imp.Hours
	_, err = q.db.ExecContext(ctx, upsertImputation,
		imp.ID, imp.WeekID, year, imp.TaskID, imp.UserID, imp.Type,
		h.Mon, h.Tue, h.Wed, h.Thu, h.Fri, h.Sat, h.Sun,
		imp.Seg, imp.Status, imp.Approved)
	return err
}

func (q *Queries) DeleteImputation(ctx context.Context, id string) error {
	return q.deleteByID(ctx, "imputations", id)
}

const listWeekLocks = `SELECT week_id, locked FROM week_locks ORDER BY week_id`

func (q *Queries) ListWeekLocks(ctx context.Context) ([]core.WeekLock, error) {
	rows, err := q.db.QueryContext(ctx, listWeekLocks)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.WeekLock
	for rows.Next() {
		var l core.WeekLock
		if err := rows.Scan(&l.WeekID, &l.Locked); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const getWeekLock = `SELECT week_id, locked FROM week_locks WHERE week_id = ?`

func (q *Queries) GetWeekLock(ctx context.Context, weekID string) (core.WeekLock, error) {
	var l core.WeekLock
	err := q.db.QueryRowContext(ctx, getWeekLock, weekID).Scan(&l.WeekID, &l.Locked)
	return l, err
}

const upsertWeekLock = `
INSERT INTO week_locks (week_id, locked) VALUES (?, ?)
ON CONFLICT(week_id) DO UPDATE SET locked = excluded.locked`

func (q *Queries) UpsertWeekLock(ctx context.Context, lock core.WeekLock) error {
	_, err := q.db.ExecContext(ctx, upsertWeekLock, lock.WeekID, lock.Locked)
	return err
}

const listUsers = `SELECT id, name, password, roles, active, max_hours FROM users ORDER BY name`

func (q *Queries) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

const getUserByName = `SELECT id, name, password, roles, active, max_hours FROM users WHERE name = ?`

func (q *Queries) GetUserByName(ctx context.Context, name string) (core.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByName, name))
}

func (q *Queries) deleteByID(ctx context.Context, table, id string) error {
	res, err := q.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (core.Task, error) {
	var (
		t        core.Task
		roles    string
		assigned string
	)
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.Hito, &t.UTEs,
		&t.Permanent, &t.Active, &t.Global, &roles, &assigned)
	if err != nil {
		return core.Task{}, err
	}
	if err := json.Unmarshal([]byte(roles), &t.TargetRoles); err != nil {
		return core.Task{}, fmt.Errorf("decode target roles: %w", err)
	}
	if err := json.Unmarshal([]byte(assigned), &t.AssignedUserIDs); err != nil {
		return core.Task{}, fmt.Errorf("decode assigned users: %w", err)
	}
	return t, nil
}

func scanImputation(row scanner) (core.Imputation, error) {
	var imp core.Imputation
	h := &imp.Hours
	err := row.Scan(&imp.ID, &imp.WeekID, &imp.TaskID, &imp.UserID, &imp.Type,
		&h.Mon, &h.Tue, &h.Wed, &h.Thu, &h.Fri, &h.Sat, &h.Sun,
		&imp.Seg, &imp.Status, &imp.Approved)
	return imp, err
}

func scanUser(row scanner) (core.User, error) {
	var (
		u     core.User
		roles string
	)
	err := row.Scan(&u.ID, &u.Name, &u.Password, &roles, &u.Active, &u.MaxHours)
	if err != nil {
		return core.User{}, err
	}
	if err := json.Unmarshal([]byte(roles), &u.Roles); err != nil {
		return core.User{}, fmt.Errorf("decode roles: %w", err)
	}
	return u, nil
}

func rolesOrEmpty(rs []core.Role) []core.Role {
	if rs == nil {
		return []core.Role{}
	}
	return rs
}

func stringsOrEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
