package core

import (
	"math"
	"time"
)

// Pagination defaults and caps applied to list queries.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// TaskFilter narrows a task listing. Nil fields are not applied; AssigneeID
// is always set by the service to the requesting user.
type TaskFilter struct {
	AssigneeID string
	Status     *Status
	Priority   *Priority
	ProjectID  *string
	StartDate  *time.Time
	EndDate    *time.Time
	Search     string
	Page       int
	Limit      int
}

// normalize clamps paging values into their allowed ranges.
func (f *TaskFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

// Offset returns the row offset for the requested page.
func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes one page of a larger result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination derives the page metadata for a total row count.
func NewPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(limit))),
	}
}
