package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements the task and project operations on top of the DB port.
// The requesting user is an explicit parameter on every call; nothing is
// read from ambient request state.
type Service struct {
	db  DB
	log *slog.Logger
	now func() time.Time
}

// NewService wires the service to its storage.
func NewService(db DB, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, log: log, now: time.Now}
}

// ownProject loads a project only when it belongs to the given user. An
// ownership mismatch surfaces as the same ErrProjectNotFound as true
// absence, so callers cannot probe for projects owned by somebody else.
func (s *Service) ownProject(ctx context.Context, userID, projectID string) (Project, error) {
	return s.db.GetProject(ctx, projectID, userID)
}

// Tasks

// CreateTask validates and persists a new task assigned to the requesting
// user. The target project must belong to that user.
func (s *Service) CreateTask(ctx context.Context, userID string, in TaskInput) (Task, error) {
	if _, err := s.ownProject(ctx, userID, in.ProjectID); err != nil {
		return Task{}, err
	}

	t := Task{
		ID:          uuid.NewString(),
		ProjectID:   in.ProjectID,
		AssigneeID:  userID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
		Tags:        in.Tags,
		Position:    in.Position,
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}

	if err := validateTask(t, s.now(), true); err != nil {
		return Task{}, err
	}
	return s.db.CreateTask(ctx, t)
}

// GetTask fetches one of the user's tasks.
func (s *Service) GetTask(ctx context.Context, userID, id string) (Task, error) {
	return s.db.GetTask(ctx, id, userID)
}

// ListTasks returns one page of the user's tasks, newest first.
func (s *Service) ListTasks(ctx context.Context, userID string, f TaskFilter) ([]Task, Pagination, error) {
	f.AssigneeID = userID
	f.normalize()

	tasks, total, err := s.db.ListTasks(ctx, f)
	if err != nil {
		return nil, Pagination{}, err
	}
	return tasks, NewPagination(f.Page, f.Limit, total), nil
}

// Board returns the project's tasks grouped into the three board columns,
// ordered by position then creation time within each column.
func (s *Service) Board(ctx context.Context, userID, projectID string) (Board, error) {
	project, err := s.ownProject(ctx, userID, projectID)
	if err != nil {
		return Board{}, err
	}

	tasks, err := s.db.ProjectTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}

	columns := BoardColumns{Todo: []Task{}, InProgress: []Task{}, Done: []Task{}}
	for _, t := range tasks {
		switch t.Status {
		case StatusInProgress:
			columns.InProgress = append(columns.InProgress, t)
		case StatusDone:
			columns.Done = append(columns.Done, t)
		default:
			columns.Todo = append(columns.Todo, t)
		}
	}

	return Board{Project: project.Ref(), Tasks: columns, TotalTasks: len(tasks)}, nil
}

// UpdateTask applies a partial update to one of the user's tasks.
func (s *Service) UpdateTask(ctx context.Context, userID, id string, patch TaskPatch) (Task, error) {
	t, err := s.db.GetTask(ctx, id, userID)
	if err != nil {
		return Task{}, err
	}

	if patch.Title != nil {
		t.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		t.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if patch.Tags != nil {
		t.Tags = *patch.Tags
	}
	if patch.Position != nil {
		t.Position = *patch.Position
	}

	if err := validateTask(t, s.now(), patch.DueDate != nil); err != nil {
		return Task{}, err
	}
	return s.db.UpdateTask(ctx, t)
}

// UpdateTaskStatus moves a task to another board column, optionally at an
// explicit position. This is the call behind drag and drop.
func (s *Service) UpdateTaskStatus(ctx context.Context, userID, id string, status Status, position *int64) (Task, error) {
	if !status.Valid() {
		return Task{}, ErrInvalidStatus
	}

	t, err := s.db.GetTask(ctx, id, userID)
	if err != nil {
		return Task{}, err
	}

	t.Status = status
	if position != nil {
		t.Position = *position
	}
	return s.db.UpdateTask(ctx, t)
}

// DeleteTask removes one of the user's tasks for good.
func (s *Service) DeleteTask(ctx context.Context, userID, id string) error {
	return s.db.DeleteTask(ctx, id, userID)
}

// Projects

// CreateProject validates and persists a new project owned by the
// requesting user.
func (s *Service) CreateProject(ctx context.Context, userID string, in ProjectInput) (Project, error) {
	p := Project{
		ID:          uuid.NewString(),
		OwnerID:     userID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Status:      in.Status,
		Color:       in.Color,
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if p.Color == "" {
		p.Color = DefaultProjectColor
	}

	if err := validateProject(p); err != nil {
		return Project{}, err
	}
	return s.db.CreateProject(ctx, p)
}

// GetProject fetches one of the user's projects.
func (s *Service) GetProject(ctx context.Context, userID, id string) (Project, error) {
	return s.ownProject(ctx, userID, id)
}

// ListProjects returns one page of the user's projects, newest first.
func (s *Service) ListProjects(ctx context.Context, userID string, page, limit int) ([]Project, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	projects, total, err := s.db.ListProjects(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, Pagination{}, err
	}
	return projects, NewPagination(page, limit, total), nil
}

// UpdateProject applies a partial update to one of the user's projects.
func (s *Service) UpdateProject(ctx context.Context, userID, id string, patch ProjectPatch) (Project, error) {
	p, err := s.ownProject(ctx, userID, id)
	if err != nil {
		return Project{}, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}

	if err := validateProject(p); err != nil {
		return Project{}, err
	}
	return s.db.UpdateProject(ctx, p)
}

// DeleteProject removes a project together with every task it owns.
func (s *Service) DeleteProject(ctx context.Context, userID, id string) error {
	return s.db.DeleteProject(ctx, id, userID)
}

// ProjectStats aggregates task counts for one project. Every status and
// priority is present in the result even at zero, so the response shape is
// stable for empty projects.
func (s *Service) ProjectStats(ctx context.Context, userID, projectID string) (ProjectStats, error) {
	project, err := s.ownProject(ctx, userID, projectID)
	if err != nil {
		return ProjectStats{}, err
	}

	byStatus, err := s.db.ProjectStatusCounts(ctx, projectID)
	if err != nil {
		return ProjectStats{}, err
	}
	byPriority, err := s.db.ProjectPriorityCounts(ctx, projectID)
	if err != nil {
		return ProjectStats{}, err
	}
	overdue, err := s.db.ProjectOverdueCount(ctx, projectID, s.now())
	if err != nil {
		return ProjectStats{}, err
	}

	return ProjectStats{
		Project:         project.Ref(),
		TasksByStatus:   mergeStatusCounts(byStatus),
		TasksByPriority: mergePriorityCounts(byPriority),
		OverdueTasks:    overdue,
	}, nil
}

// DashboardStats aggregates everything assigned to the user for the
// dashboard screen.
func (s *Service) DashboardStats(ctx context.Context, userID string) (DashboardStats, error) {
	now := s.now()

	_, totalProjects, err := s.db.ListProjects(ctx, userID, 1, 0)
	if err != nil {
		return DashboardStats{}, err
	}
	byStatus, err := s.db.UserStatusCounts(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	byPriority, err := s.db.UserPriorityCounts(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}
	overdue, err := s.db.UserOverdueCount(ctx, userID, now)
	if err != nil {
		return DashboardStats{}, err
	}

	// The week runs Sunday through Saturday, clamped to whole days.
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := midnight.AddDate(0, 0, -int(now.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 7).Add(-time.Nanosecond)
	dueThisWeek, err := s.db.UserDueBetweenCount(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return DashboardStats{}, err
	}

	recent, err := s.db.RecentTasks(ctx, userID, 5)
	if err != nil {
		return DashboardStats{}, err
	}
	if recent == nil {
		recent = []Task{}
	}

	return DashboardStats{
		TotalProjects:   totalProjects,
		TasksByStatus:   mergeStatusCounts(byStatus),
		TasksByPriority: mergePriorityCounts(byPriority),
		OverdueTasks:    overdue,
		TasksThisWeek:   dueThisWeek,
		RecentTasks:     recent,
	}, nil
}

func mergeStatusCounts(actual map[Status]int) map[Status]int {
	counts := ZeroStatusCounts()
	for st, n := range actual {
		counts[st] = n
	}
	return counts
}

func mergePriorityCounts(actual map[Priority]int) map[Priority]int {
	counts := ZeroPriorityCounts()
	for p, n := range actual {
		counts[p] = n
	}
	return counts
}
