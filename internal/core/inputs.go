package core

import "time"

// TaskInput carries the fields a client may supply when creating a task.
// Zero status, priority and position fall back to their defaults.
type TaskInput struct {
	Title       string
	Description string
	Status      Status
	Priority    Priority
	ProjectID   string
	DueDate     *time.Time
	Tags        Tags
	Position    int64
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority
	DueDate     *time.Time
	Tags        *Tags
	Position    *int64
}

// ProjectInput carries the fields a client may supply when creating a
// project.
type ProjectInput struct {
	Name        string
	Description string
	Status      ProjectStatus
	Color       string
}

// ProjectPatch is a partial project update; nil fields are left untouched.
type ProjectPatch struct {
	Name        *string
	Description *string
	Status      *ProjectStatus
	Color       *string
}
