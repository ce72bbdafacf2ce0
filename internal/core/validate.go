package core

import (
	"regexp"
	"strings"
	"time"
)

// Field length limits enforced on task and project writes.
const (
	MaxTitleLen       = 200
	MaxTaskDescLen    = 1000
	MaxTagLen         = 30
	MaxProjectNameLen = 100
	MaxProjectDescLen = 500
)

var hexColorRe = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// validateTask checks a fully populated task before it is persisted.
// enforceFutureDue applies the strictly-in-the-future rule to the due date;
// it is on for creates and for updates that touch the due date, so an old
// task with a slipped due date can still be edited.
func validateTask(t Task, now time.Time, enforceFutureDue bool) error {
	var ve ValidationError

	if strings.TrimSpace(t.Title) == "" {
		ve.add("title", "task title is required")
	} else if len(t.Title) > MaxTitleLen {
		ve.add("title", "task title cannot be more than 200 characters")
	}
	if len(t.Description) > MaxTaskDescLen {
		ve.add("description", "description cannot be more than 1000 characters")
	}
	if !t.Status.Valid() {
		ve.add("status", "status must be todo, in-progress, or done")
	}
	if !t.Priority.Valid() {
		ve.add("priority", "priority must be low, medium, or high")
	}
	if enforceFutureDue && t.DueDate != nil && !t.DueDate.After(now) {
		ve.add("due_date", "due date must be in the future")
	}
	for _, tag := range t.Tags {
		if len(tag) > MaxTagLen {
			ve.add("tags", "each tag cannot be more than 30 characters")
			break
		}
	}

	return ve.orNil()
}

// validateProject checks a fully populated project before it is persisted.
func validateProject(p Project) error {
	var ve ValidationError

	if strings.TrimSpace(p.Name) == "" {
		ve.add("name", "project name is required")
	} else if len(p.Name) > MaxProjectNameLen {
		ve.add("name", "project name cannot be more than 100 characters")
	}
	if len(p.Description) > MaxProjectDescLen {
		ve.add("description", "description cannot be more than 500 characters")
	}
	if !p.Status.Valid() {
		ve.add("status", "status must be active, completed, or archived")
	}
	if !hexColorRe.MatchString(p.Color) {
		ve.add("color", "color must be a valid hex color")
	}

	return ve.orNil()
}
