// Package outbox applies the cascade side effects of task saves. The
// storage layer records an event row in the same transaction as every task
// write; the dispatcher here replays those rows against the project table
// with bounded retries. A failing cascade can therefore never fail the task
// save that produced it, and is never silently lost either.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Event kinds recorded by the storage layer.
const (
	// KindTaskSaved refreshes the parent project's updated_at timestamp.
	KindTaskSaved = "task_saved"
	// KindTaskDone checks whether the save finished the project's last open
	// task and, if so, marks the project completed.
	KindTaskDone = "task_done"
)

// Event is one pending cascade recorded alongside a task write.
type Event struct {
	ID        int64     `db:"id"`
	Kind      string    `db:"kind"`
	ProjectID string    `db:"project_id"`
	Attempts  int       `db:"attempts"`
	LastError string    `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
}

// Storage is the slice of the store the dispatcher needs.
type Storage interface {
	// PendingEvents returns unprocessed events with attempts left, oldest
	// first.
	PendingEvents(ctx context.Context, maxAttempts, limit int) ([]Event, error)
	MarkEventProcessed(ctx context.Context, id int64) error
	MarkEventFailed(ctx context.Context, id int64, reason string) error

	TouchProject(ctx context.Context, projectID string) error
	// CompleteProjectIfDone flips the project to completed when all of its
	// tasks are done and it has at least one. One-way; it never reopens.
	CompleteProjectIfDone(ctx context.Context, projectID string) error
}

// Dispatcher drains pending cascade events.
type Dispatcher struct {
	store       Storage
	log         *slog.Logger
	maxAttempts int
	batchSize   int
}

// New constructs a dispatcher. maxAttempts bounds how often a failing event
// is retried before it is parked for inspection.
func New(store Storage, log *slog.Logger, maxAttempts int) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{store: store, log: log, maxAttempts: maxAttempts, batchSize: 100}
}

// Run polls for pending events until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.ProcessPending(ctx); err != nil {
				d.log.Error("outbox pass failed", slog.String("error", err.Error()))
			}
		}
	}
}

// ProcessPending applies every pending event once and returns how many were
// applied successfully. Individual failures are recorded on the event and do
// not stop the pass.
func (d *Dispatcher) ProcessPending(ctx context.Context) (int, error) {
	events, err := d.store.PendingEvents(ctx, d.maxAttempts, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch pending events: %w", err)
	}

	applied := 0
	for _, ev := range events {
		if err := d.apply(ctx, ev); err != nil {
			d.log.Warn("cascade event failed",
				slog.Int64("event", ev.ID),
				slog.String("kind", ev.Kind),
				slog.String("project", ev.ProjectID),
				slog.Int("attempts", ev.Attempts+1),
				slog.String("error", err.Error()))
			if markErr := d.store.MarkEventFailed(ctx, ev.ID, err.Error()); markErr != nil {
				return applied, fmt.Errorf("mark event %d failed: %w", ev.ID, markErr)
			}
			continue
		}
		if err := d.store.MarkEventProcessed(ctx, ev.ID); err != nil {
			return applied, fmt.Errorf("mark event %d processed: %w", ev.ID, err)
		}
		applied++
	}
	return applied, nil
}

func (d *Dispatcher) apply(ctx context.Context, ev Event) error {
	switch ev.Kind {
	case KindTaskSaved:
		return d.store.TouchProject(ctx, ev.ProjectID)
	case KindTaskDone:
		return d.store.CompleteProjectIfDone(ctx, ev.ProjectID)
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
