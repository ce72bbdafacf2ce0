package core

import (
	"context"
	"sort"
	"strings"
	"time"
)

// fakeDB is an in-memory DB implementation for service tests. It mirrors
// the scoping rules of the real store: task reads filter by assignee,
// project reads by owner.
type fakeDB struct {
	tasks    map[string]Task
	projects map[string]Project
	clock    time.Time

	updateTaskCalls int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		tasks:    map[string]Task{},
		projects: map[string]Project{},
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp so creation order is
// unambiguous.
func (f *fakeDB) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeDB) CreateTask(_ context.Context, t Task) (Task, error) {
	if t.Position == 0 {
		max := int64(0)
		for _, other := range f.tasks {
			if other.ProjectID == t.ProjectID && other.Status == t.Status && other.Position > max {
				max = other.Position
			}
		}
		t.Position = max + 1
	}
	now := f.tick()
	t.CreatedAt = now
	t.UpdatedAt = now
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeDB) GetTask(_ context.Context, id, assigneeID string) (Task, error) {
	t, ok := f.tasks[id]
	if !ok || t.AssigneeID != assigneeID {
		return Task{}, ErrTaskNotFound
	}
	return t, nil
}

func (f *fakeDB) ListTasks(_ context.Context, filter TaskFilter) ([]Task, int, error) {
	matched := []Task{}
	for _, t := range f.tasks {
		if f.matches(t, filter) {
			matched = append(matched, t)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := filter.Offset()
	if start > total {
		start = total
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (f *fakeDB) matches(t Task, filter TaskFilter) bool {
	if t.AssigneeID != filter.AssigneeID {
		return false
	}
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Priority != nil && t.Priority != *filter.Priority {
		return false
	}
	if filter.ProjectID != nil && t.ProjectID != *filter.ProjectID {
		return false
	}
	if filter.StartDate != nil && (t.DueDate == nil || t.DueDate.Before(*filter.StartDate)) {
		return false
	}
	if filter.EndDate != nil && (t.DueDate == nil || t.DueDate.After(*filter.EndDate)) {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func (f *fakeDB) ProjectTasks(_ context.Context, projectID string) ([]Task, error) {
	tasks := []Task{}
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Position != tasks[j].Position {
			return tasks[i].Position < tasks[j].Position
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (f *fakeDB) UpdateTask(_ context.Context, t Task) (Task, error) {
	f.updateTaskCalls++
	current, ok := f.tasks[t.ID]
	if !ok || current.AssigneeID != t.AssigneeID {
		return Task{}, ErrTaskNotFound
	}
	t.CreatedAt = current.CreatedAt
	t.UpdatedAt = f.tick()
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeDB) DeleteTask(_ context.Context, id, assigneeID string) error {
	t, ok := f.tasks[id]
	if !ok || t.AssigneeID != assigneeID {
		return ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeDB) CreateProject(_ context.Context, p Project) (Project, error) {
	now := f.tick()
	p.CreatedAt = now
	p.UpdatedAt = now
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeDB) GetProject(_ context.Context, id, ownerID string) (Project, error) {
	p, ok := f.projects[id]
	if !ok || p.OwnerID != ownerID {
		return Project{}, ErrProjectNotFound
	}
	return p, nil
}

func (f *fakeDB) ListProjects(_ context.Context, ownerID string, limit, offset int) ([]Project, int, error) {
	matched := []Project{}
	for _, p := range f.projects {
		if p.OwnerID == ownerID {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (f *fakeDB) UpdateProject(_ context.Context, p Project) (Project, error) {
	current, ok := f.projects[p.ID]
	if !ok || current.OwnerID != p.OwnerID {
		return Project{}, ErrProjectNotFound
	}
	p.CreatedAt = current.CreatedAt
	p.UpdatedAt = f.tick()
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeDB) DeleteProject(_ context.Context, id, ownerID string) error {
	p, ok := f.projects[id]
	if !ok || p.OwnerID != ownerID {
		return ErrProjectNotFound
	}
	for taskID, t := range f.tasks {
		if t.ProjectID == id {
			delete(f.tasks, taskID)
		}
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeDB) ProjectStatusCounts(_ context.Context, projectID string) (map[Status]int, error) {
	counts := map[Status]int{}
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (f *fakeDB) ProjectPriorityCounts(_ context.Context, projectID string) (map[Priority]int, error) {
	counts := map[Priority]int{}
	for _, t := range f.tasks {
		if t.ProjectID == projectID {
			counts[t.Priority]++
		}
	}
	return counts, nil
}

func (f *fakeDB) ProjectOverdueCount(_ context.Context, projectID string, now time.Time) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if t.ProjectID == projectID && t.Overdue(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) UserStatusCounts(_ context.Context, assigneeID string) (map[Status]int, error) {
	counts := map[Status]int{}
	for _, t := range f.tasks {
		if t.AssigneeID == assigneeID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (f *fakeDB) UserPriorityCounts(_ context.Context, assigneeID string) (map[Priority]int, error) {
	counts := map[Priority]int{}
	for _, t := range f.tasks {
		if t.AssigneeID == assigneeID {
			counts[t.Priority]++
		}
	}
	return counts, nil
}

func (f *fakeDB) UserOverdueCount(_ context.Context, assigneeID string, now time.Time) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if t.AssigneeID == assigneeID && t.Overdue(now) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) UserDueBetweenCount(_ context.Context, assigneeID string, start, end time.Time) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if t.AssigneeID != assigneeID || t.Status == StatusDone || t.DueDate == nil {
			continue
		}
		if !t.DueDate.Before(start) && !t.DueDate.After(end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDB) RecentTasks(_ context.Context, assigneeID string, limit int) ([]Task, error) {
	tasks := []Task{}
	for _, t := range f.tasks {
		if t.AssigneeID == assigneeID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}
	return tasks, nil
}
