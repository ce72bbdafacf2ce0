package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"taskboard/internal/core"
	"taskboard/internal/outbox"
)

const taskColumns = `id, project_id, assignee_id, title, description, status, priority, due_date, tags, position, created_at, updated_at`

// CreateTask inserts a new task. When no explicit position is supplied the
// next free position in the (project, status) bucket is computed inside the
// INSERT itself, so concurrent inserts cannot read the same maximum. The
// cascade events for the save land in the same transaction.
func (s *Store) CreateTask(ctx context.Context, t core.Task) (core.Task, error) {
	now := time.Now().UTC()
	t.DueDate = toUTC(t.DueDate)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO tasks (` + taskColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
            CASE WHEN ? > 0 THEN ?
                 ELSE (SELECT COALESCE(MAX(position), 0) + 1 FROM tasks WHERE project_id = ? AND status = ?)
            END,
            ?, ?)`

	_, err = tx.ExecContext(ctx, q,
		t.ID, t.ProjectID, t.AssigneeID, t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Tags,
		t.Position, t.Position, t.ProjectID, t.Status,
		now, now)
	if err != nil {
		return core.Task{}, fmt.Errorf("insert task: %w", err)
	}

	if err := enqueueEvent(ctx, tx, outbox.KindTaskSaved, t.ProjectID, now); err != nil {
		return core.Task{}, err
	}
	if t.Status == core.StatusDone {
		if err := enqueueEvent(ctx, tx, outbox.KindTaskDone, t.ProjectID, now); err != nil {
			return core.Task{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Task{}, fmt.Errorf("commit: %w", err)
	}
	return s.GetTask(ctx, t.ID, t.AssigneeID)
}

// GetTask retrieves one of the assignee's tasks by id.
func (s *Store) GetTask(ctx context.Context, id, assigneeID string) (core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND assignee_id = ?`

	var t core.Task
	if err := s.db.GetContext(ctx, &t, q, id, assigneeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Task{}, core.ErrTaskNotFound
		}
		return core.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasks returns one filtered page of tasks plus the total match count.
func (s *Store) ListTasks(ctx context.Context, f core.TaskFilter) ([]core.Task, int, error) {
	where := taskFilterClause(f)

	query, args, err := sq.Select(strings.Split(taskColumns, ", ")...).
		From("tasks").
		Where(where).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(f.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	tasks := []core.Task{}
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("tasks").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}
	return tasks, total, nil
}

func taskFilterClause(f core.TaskFilter) sq.And {
	where := sq.And{sq.Eq{"assignee_id": f.AssigneeID}}

	if f.Status != nil {
		where = append(where, sq.Eq{"status": *f.Status})
	}
	if f.Priority != nil {
		where = append(where, sq.Eq{"priority": *f.Priority})
	}
	if f.ProjectID != nil {
		where = append(where, sq.Eq{"project_id": *f.ProjectID})
	}
	if f.StartDate != nil {
		where = append(where, sq.GtOrEq{"due_date": f.StartDate.UTC()})
	}
	if f.EndDate != nil {
		where = append(where, sq.LtOrEq{"due_date": f.EndDate.UTC()})
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, sq.Or{
			sq.Expr("LOWER(title) LIKE ?", like),
			sq.Expr("LOWER(description) LIKE ?", like),
		})
	}
	return where
}

// ProjectTasks returns every task of a project ordered for the board:
// position first, creation time as the tie break.
func (s *Store) ProjectTasks(ctx context.Context, projectID string) ([]core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ? ORDER BY position ASC, created_at ASC`

	tasks := []core.Task{}
	if err := s.db.SelectContext(ctx, &tasks, q, projectID); err != nil {
		return nil, fmt.Errorf("project tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask rewrites a task and records its cascade events. The completion
// check is enqueued only when this save moved the task into done, so
// repeating the same status change has no extra side effects.
func (s *Store) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	now := time.Now().UTC()
	t.DueDate = toUTC(t.DueDate)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.Task{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var oldStatus core.Status
	err = tx.GetContext(ctx, &oldStatus, `SELECT status FROM tasks WHERE id = ? AND assignee_id = ?`, t.ID, t.AssigneeID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Task{}, core.ErrTaskNotFound
	}
	if err != nil {
		return core.Task{}, fmt.Errorf("load task status: %w", err)
	}

	const q = `UPDATE tasks
        SET title = ?, description = ?, status = ?, priority = ?, due_date = ?, tags = ?, position = ?, updated_at = ?
        WHERE id = ? AND assignee_id = ?`

	if _, err := tx.ExecContext(ctx, q,
		t.Title, t.Description, t.Status, t.Priority, t.DueDate, t.Tags, t.Position, now,
		t.ID, t.AssigneeID); err != nil {
		return core.Task{}, fmt.Errorf("update task: %w", err)
	}

	if err := enqueueEvent(ctx, tx, outbox.KindTaskSaved, t.ProjectID, now); err != nil {
		return core.Task{}, err
	}
	if t.Status == core.StatusDone && oldStatus != core.StatusDone {
		if err := enqueueEvent(ctx, tx, outbox.KindTaskDone, t.ProjectID, now); err != nil {
			return core.Task{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Task{}, fmt.Errorf("commit: %w", err)
	}
	return s.GetTask(ctx, t.ID, t.AssigneeID)
}

// DeleteTask removes one of the assignee's tasks by id.
func (s *Store) DeleteTask(ctx context.Context, id, assigneeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND assignee_id = ?`, id, assigneeID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.ErrTaskNotFound
	}
	return nil
}

// RecentTasks returns the assignee's newest tasks.
func (s *Store) RecentTasks(ctx context.Context, assigneeID string, limit int) ([]core.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE assignee_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`

	tasks := []core.Task{}
	if err := s.db.SelectContext(ctx, &tasks, q, assigneeID, limit); err != nil {
		return nil, fmt.Errorf("recent tasks: %w", err)
	}
	return tasks, nil
}

// toUTC normalizes an optional timestamp so stored values compare cleanly.
func toUTC(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
