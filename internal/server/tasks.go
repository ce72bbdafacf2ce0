package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskboard/internal/core"
)

type taskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	ProjectID   *string    `json:"project_id"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *[]string  `json:"tags"`
	Position    *int64     `json:"position"`
}

type taskStatusRequest struct {
	Status   string `json:"status"`
	Position *int64 `json:"position"`
}

// handleListTasks returns one filtered page of the user's tasks.
func (s *Server) handleListTasks(c *gin.Context) {
	filter, err := taskFilterFromQuery(c)
	if err != nil {
		s.respondBadRequest(c, err)
		return
	}

	tasks, pagination, err := s.svc.ListTasks(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondPage(c, gin.H{"tasks": tasks}, pagination)
}

// taskFilterFromQuery parses the supported list filters. Dates accept
// RFC 3339 or a plain YYYY-MM-DD.
func taskFilterFromQuery(c *gin.Context) (core.TaskFilter, error) {
	var f core.TaskFilter

	if v := c.Query("status"); v != "" {
		st := core.Status(v)
		f.Status = &st
	}
	if v := c.Query("priority"); v != "" {
		p := core.Priority(v)
		f.Priority = &p
	}
	if v := c.Query("projectId"); v != "" {
		f.ProjectID = &v
	}
	if v := c.Query("startDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid startDate")
		}
		f.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid endDate")
		}
		f.EndDate = &t
	}
	f.Search = c.Query("search")
	f.Page = intQuery(c, "page")
	f.Limit = intQuery(c, "limit")

	return f, nil
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func intQuery(c *gin.Context, name string) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return n
}

// handleCreateTask inserts a new task assigned to the requesting user.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	if req.ProjectID == nil || *req.ProjectID == "" {
		s.respondError(c, &core.ValidationError{Fields: []core.FieldError{
			{Field: "project_id", Message: "project id is required"},
		}})
		return
	}

	in := core.TaskInput{
		Title:     getString(req.Title),
		ProjectID: *req.ProjectID,
		DueDate:   req.DueDate,
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Status != nil {
		in.Status = core.Status(*req.Status)
	}
	if req.Priority != nil {
		in.Priority = core.Priority(*req.Priority)
	}
	if req.Tags != nil {
		in.Tags = core.Tags(*req.Tags)
	}
	if req.Position != nil {
		in.Position = *req.Position
	}

	task, err := s.svc.CreateTask(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task": task})
}

// handleGetTask returns a single task.
func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.svc.GetTask(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTask applies a partial update to a task.
func (s *Server) handleUpdateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	patch := core.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Position:    req.Position,
	}
	if req.Status != nil {
		st := core.Status(*req.Status)
		patch.Status = &st
	}
	if req.Priority != nil {
		p := core.Priority(*req.Priority)
		patch.Priority = &p
	}
	if req.Tags != nil {
		tags := core.Tags(*req.Tags)
		patch.Tags = &tags
	}

	task, err := s.svc.UpdateTask(c.Request.Context(), currentUser(c), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleUpdateTaskStatus moves a task between board columns. This is the
// endpoint behind drag and drop.
func (s *Server) handleUpdateTaskStatus(c *gin.Context) {
	var req taskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	task, err := s.svc.UpdateTaskStatus(c.Request.Context(), currentUser(c), c.Param("id"), core.Status(req.Status), req.Position)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"task": task})
}

// handleDeleteTask removes a task completely.
func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.svc.DeleteTask(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, "task deleted successfully")
}

// handleBoard returns a project's tasks grouped into board columns.
func (s *Server) handleBoard(c *gin.Context) {
	board, err := s.svc.Board(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"project":    board.Project,
		"tasks":      board.Tasks,
		"totalTasks": board.TotalTasks,
	})
}

// handleDashboardStats summarizes the user's tasks and projects.
func (s *Server) handleDashboardStats(c *gin.Context) {
	stats, err := s.svc.DashboardStats(c.Request.Context(), currentUser(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"totalProjects":   stats.TotalProjects,
		"tasksByStatus":   stats.TasksByStatus,
		"tasksByPriority": stats.TasksByPriority,
		"overdueTasks":    stats.OverdueTasks,
		"tasksThisWeek":   stats.TasksThisWeek,
		"recentTasks":     stats.RecentTasks,
	})
}

func getString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
