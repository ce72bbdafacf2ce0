package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"taskboard/internal/core"
	"taskboard/internal/outbox"
)

// enqueueEvent records a cascade event inside the transaction that carries
// the task write it belongs to.
func enqueueEvent(ctx context.Context, tx *sqlx.Tx, kind, projectID string, now time.Time) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO outbox (kind, project_id, created_at) VALUES (?, ?, ?)`, kind, projectID, now)
	if err != nil {
		return fmt.Errorf("enqueue %s event: %w", kind, err)
	}
	return nil
}

// PendingEvents returns unprocessed cascade events that still have attempts
// left, oldest first.
func (s *Store) PendingEvents(ctx context.Context, maxAttempts, limit int) ([]outbox.Event, error) {
	const q = `SELECT id, kind, project_id, attempts, last_error, created_at
        FROM outbox
        WHERE processed_at IS NULL AND attempts < ?
        ORDER BY id ASC
        LIMIT ?`

	events := []outbox.Event{}
	if err := s.db.SelectContext(ctx, &events, q, maxAttempts, limit); err != nil {
		return nil, fmt.Errorf("pending events: %w", err)
	}
	return events, nil
}

// MarkEventProcessed retires a successfully applied event.
func (s *Store) MarkEventProcessed(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE outbox SET processed_at = ? WHERE id = ?`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

// MarkEventFailed records a failed attempt so the event is retried later and
// the failure stays observable.
func (s *Store) MarkEventFailed(ctx context.Context, id int64, reason string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?`, reason, id); err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}

// TouchProject refreshes the project's updated_at timestamp. A project that
// has been deleted in the meantime is not an error.
func (s *Store) TouchProject(ctx context.Context, projectID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE projects SET updated_at = ? WHERE id = ?`, time.Now().UTC(), projectID); err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}

// CompleteProjectIfDone marks the project completed when it has at least one
// task and every one of them is done. The check and the update are a single
// statement, and the trigger is one-way: reverting a task later does not
// reopen the project.
func (s *Store) CompleteProjectIfDone(ctx context.Context, projectID string) error {
	const q = `UPDATE projects
        SET status = ?, updated_at = ?
        WHERE id = ?
          AND (SELECT COUNT(*) FROM tasks WHERE project_id = ?) > 0
          AND (SELECT COUNT(*) FROM tasks WHERE project_id = ?) =
              (SELECT COUNT(*) FROM tasks WHERE project_id = ? AND status = ?)`

	_, err := s.db.ExecContext(ctx, q,
		core.ProjectCompleted, time.Now().UTC(),
		projectID, projectID, projectID, projectID, core.StatusDone)
	if err != nil {
		return fmt.Errorf("complete project: %w", err)
	}
	return nil
}
