package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskboard/internal/core"
)

const projectColumns = `id, owner_id, name, description, status, color, created_at, updated_at`

// CreateProject persists a new project.
func (s *Store) CreateProject(ctx context.Context, p core.Project) (core.Project, error) {
	now := time.Now().UTC()

	const q = `INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, p.ID, p.OwnerID, p.Name, p.Description, p.Status, p.Color, now, now)
	if err != nil {
		return core.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return s.GetProject(ctx, p.ID, p.OwnerID)
}

// GetProject fetches one of the owner's projects by id.
func (s *Store) GetProject(ctx context.Context, id, ownerID string) (core.Project, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE id = ? AND owner_id = ?`

	var p core.Project
	if err := s.db.GetContext(ctx, &p, q, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Project{}, core.ErrProjectNotFound
		}
		return core.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListProjects returns one page of the owner's projects, newest first, plus
// the owner's total project count.
func (s *Store) ListProjects(ctx context.Context, ownerID string, limit, offset int) ([]core.Project, int, error) {
	const q = `SELECT ` + projectColumns + ` FROM projects WHERE owner_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	projects := []core.Project{}
	if err := s.db.SelectContext(ctx, &projects, q, ownerID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects WHERE owner_id = ?`, ownerID); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	return projects, total, nil
}

// UpdateProject rewrites one of the owner's projects.
func (s *Store) UpdateProject(ctx context.Context, p core.Project) (core.Project, error) {
	const q = `UPDATE projects
        SET name = ?, description = ?, status = ?, color = ?, updated_at = ?
        WHERE id = ? AND owner_id = ?`

	res, err := s.db.ExecContext(ctx, q, p.Name, p.Description, p.Status, p.Color, time.Now().UTC(), p.ID, p.OwnerID)
	if err != nil {
		return core.Project{}, fmt.Errorf("update project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return core.Project{}, err
	}
	if affected == 0 {
		return core.Project{}, core.ErrProjectNotFound
	}
	return s.GetProject(ctx, p.ID, p.OwnerID)
}

// DeleteProject removes the project's tasks, its pending cascade events and
// the project itself in one transaction, so a crash cannot orphan tasks.
func (s *Store) DeleteProject(ctx context.Context, id, ownerID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM projects WHERE id = ? AND owner_id = ?`, id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("check project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM outbox WHERE project_id = ? AND processed_at IS NULL`, id); err != nil {
		return fmt.Errorf("delete pending events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Stats

// ProjectStatusCounts groups the project's tasks by board column.
func (s *Store) ProjectStatusCounts(ctx context.Context, projectID string) (map[core.Status]int, error) {
	return statusCounts(ctx, s, `SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status`, projectID)
}

// ProjectPriorityCounts groups the project's tasks by priority.
func (s *Store) ProjectPriorityCounts(ctx context.Context, projectID string) (map[core.Priority]int, error) {
	return priorityCounts(ctx, s, `SELECT priority, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY priority`, projectID)
}

// ProjectOverdueCount counts the project's unfinished tasks past their due
// date.
func (s *Store) ProjectOverdueCount(ctx context.Context, projectID string, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM tasks WHERE project_id = ? AND due_date IS NOT NULL AND due_date < ? AND status != ?`

	var n int
	if err := s.db.GetContext(ctx, &n, q, projectID, now.UTC(), core.StatusDone); err != nil {
		return 0, fmt.Errorf("overdue count: %w", err)
	}
	return n, nil
}

// UserStatusCounts groups the assignee's tasks by board column.
func (s *Store) UserStatusCounts(ctx context.Context, assigneeID string) (map[core.Status]int, error) {
	return statusCounts(ctx, s, `SELECT status, COUNT(*) FROM tasks WHERE assignee_id = ? GROUP BY status`, assigneeID)
}

// UserPriorityCounts groups the assignee's tasks by priority.
func (s *Store) UserPriorityCounts(ctx context.Context, assigneeID string) (map[core.Priority]int, error) {
	return priorityCounts(ctx, s, `SELECT priority, COUNT(*) FROM tasks WHERE assignee_id = ? GROUP BY priority`, assigneeID)
}

// UserOverdueCount counts the assignee's unfinished tasks past their due
// date.
func (s *Store) UserOverdueCount(ctx context.Context, assigneeID string, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM tasks WHERE assignee_id = ? AND due_date IS NOT NULL AND due_date < ? AND status != ?`

	var n int
	if err := s.db.GetContext(ctx, &n, q, assigneeID, now.UTC(), core.StatusDone); err != nil {
		return 0, fmt.Errorf("overdue count: %w", err)
	}
	return n, nil
}

// UserDueBetweenCount counts the assignee's unfinished tasks due inside the
// inclusive window.
func (s *Store) UserDueBetweenCount(ctx context.Context, assigneeID string, start, end time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM tasks WHERE assignee_id = ? AND due_date >= ? AND due_date <= ? AND status != ?`

	var n int
	if err := s.db.GetContext(ctx, &n, q, assigneeID, start.UTC(), end.UTC(), core.StatusDone); err != nil {
		return 0, fmt.Errorf("due between count: %w", err)
	}
	return n, nil
}

func statusCounts(ctx context.Context, s *Store, query string, arg any) (map[core.Status]int, error) {
	rows, err := s.db.QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := map[core.Status]int{}
	for rows.Next() {
		var st core.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[st] = n
	}
	return counts, rows.Err()
}

func priorityCounts(ctx context.Context, s *Store, query string, arg any) (map[core.Priority]int, error) {
	rows, err := s.db.QueryxContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("priority counts: %w", err)
	}
	defer rows.Close()

	counts := map[core.Priority]int{}
	for rows.Next() {
		var p core.Priority
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		counts[p] = n
	}
	return counts, rows.Err()
}
