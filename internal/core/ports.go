package core

import (
	"context"
	"time"
)

// DB is the persistence port the service drives. Task reads and deletes are
// scoped to an assignee and project reads to an owner; implementations
// report a plain not-found for rows that exist but belong to somebody else.
type DB interface {
	// CreateTask persists a new task. When no explicit position is given the
	// implementation must assign max(position)+1 within the task's
	// (project, status) bucket atomically with the insert, and must record
	// the cascade events for the save in the same transaction.
	CreateTask(ctx context.Context, t Task) (Task, error)
	GetTask(ctx context.Context, id, assigneeID string) (Task, error)
	ListTasks(ctx context.Context, f TaskFilter) ([]Task, int, error)
	ProjectTasks(ctx context.Context, projectID string) ([]Task, error)
	// UpdateTask rewrites a task and records cascade events: a project touch
	// for every save, a completion check only when this save moved the task
	// into done.
	UpdateTask(ctx context.Context, t Task) (Task, error)
	DeleteTask(ctx context.Context, id, assigneeID string) error

	CreateProject(ctx context.Context, p Project) (Project, error)
	GetProject(ctx context.Context, id, ownerID string) (Project, error)
	ListProjects(ctx context.Context, ownerID string, limit, offset int) ([]Project, int, error)
	UpdateProject(ctx context.Context, p Project) (Project, error)
	// DeleteProject removes the project's tasks and the project itself in a
	// single transaction.
	DeleteProject(ctx context.Context, id, ownerID string) error

	ProjectStatusCounts(ctx context.Context, projectID string) (map[Status]int, error)
	ProjectPriorityCounts(ctx context.Context, projectID string) (map[Priority]int, error)
	ProjectOverdueCount(ctx context.Context, projectID string, now time.Time) (int, error)

	UserStatusCounts(ctx context.Context, assigneeID string) (map[Status]int, error)
	UserPriorityCounts(ctx context.Context, assigneeID string) (map[Priority]int, error)
	UserOverdueCount(ctx context.Context, assigneeID string, now time.Time) (int, error)
	UserDueBetweenCount(ctx context.Context, assigneeID string, start, end time.Time) (int, error)
	RecentTasks(ctx context.Context, assigneeID string, limit int) ([]Task, error)
}
