package core

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Status identifies the board column a task lives in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether the status is one of the three board columns.
func (s Status) Valid() bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// Priority describes how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the priorities from least to most urgent.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether the priority is a known level.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Color returns the display color associated with the priority.
func (p Priority) Color() string {
	switch p {
	case PriorityLow:
		return "#10B981"
	case PriorityHigh:
		return "#EF4444"
	default:
		return "#F59E0B"
	}
}

// ProjectStatus tracks the overall lifecycle of a project.
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Valid reports whether the project status is a known value.
func (s ProjectStatus) Valid() bool {
	return s == ProjectActive || s == ProjectCompleted || s == ProjectArchived
}

// DefaultProjectColor is applied when a project is created without a color.
const DefaultProjectColor = "#3B82F6"

// Tags is an ordered list of short labels, stored as a JSON column.
type Tags []string

// Value implements driver.Valuer.
func (t Tags) Value() (driver.Value, error) {
	if len(t) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported tags source %T", src)
	}
}

// Task represents a single card on the board, always bound to one project
// and one assignee.
type Task struct {
	ID          string     `db:"id" json:"id"`
	ProjectID   string     `db:"project_id" json:"project_id"`
	AssigneeID  string     `db:"assignee_id" json:"assignee_id"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Status      Status     `db:"status" json:"status"`
	Priority    Priority   `db:"priority" json:"priority"`
	DueDate     *time.Time `db:"due_date" json:"due_date,omitempty"`
	Tags        Tags       `db:"tags" json:"tags"`
	Position    int64      `db:"position" json:"position"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Overdue reports whether the task slipped past its due date without being
// finished.
func (t Task) Overdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != StatusDone
}

// MarshalJSON adds the derived display fields to the stored ones.
func (t Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		alias
		IsOverdue     bool   `json:"is_overdue"`
		PriorityColor string `json:"priority_color"`
	}{
		alias:         alias(t),
		IsOverdue:     t.Overdue(time.Now()),
		PriorityColor: t.Priority.Color(),
	})
}

// Project groups tasks under a single owner.
type Project struct {
	ID          string        `db:"id" json:"id"`
	OwnerID     string        `db:"owner_id" json:"owner_id"`
	Name        string        `db:"name" json:"name"`
	Description string        `db:"description" json:"description"`
	Status      ProjectStatus `db:"status" json:"status"`
	Color       string        `db:"color" json:"color"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// ProjectRef is the compact project shape embedded in task-centric responses.
type ProjectRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Ref returns the compact reference for embedding in responses.
func (p Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Name, Color: p.Color}
}

// Board is the kanban grouping returned for a single project.
type Board struct {
	Project    ProjectRef   `json:"project"`
	Tasks      BoardColumns `json:"tasks"`
	TotalTasks int          `json:"totalTasks"`
}

// BoardColumns holds the three board columns. Columns are always serialized,
// empty ones as [] rather than null.
type BoardColumns struct {
	Todo       []Task `json:"todo"`
	InProgress []Task `json:"in-progress"`
	Done       []Task `json:"done"`
}

// ProjectStats summarizes the tasks of one project for the dashboard.
type ProjectStats struct {
	Project         ProjectRef       `json:"project"`
	TasksByStatus   map[Status]int   `json:"tasksByStatus"`
	TasksByPriority map[Priority]int `json:"tasksByPriority"`
	OverdueTasks    int              `json:"overdueTasks"`
}

// DashboardStats summarizes everything assigned to one user.
type DashboardStats struct {
	TotalProjects   int              `json:"totalProjects"`
	TasksByStatus   map[Status]int   `json:"tasksByStatus"`
	TasksByPriority map[Priority]int `json:"tasksByPriority"`
	OverdueTasks    int              `json:"overdueTasks"`
	TasksThisWeek   int              `json:"tasksThisWeek"`
	RecentTasks     []Task           `json:"recentTasks"`
}

// ZeroStatusCounts returns a count map with every column present at zero, so
// response shapes stay stable for empty projects.
func ZeroStatusCounts() map[Status]int {
	return map[Status]int{StatusTodo: 0, StatusInProgress: 0, StatusDone: 0}
}

// ZeroPriorityCounts returns a count map with every priority present at zero.
func ZeroPriorityCounts() map[Priority]int {
	return map[Priority]int{PriorityLow: 0, PriorityMedium: 0, PriorityHigh: 0}
}
