package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/core"
)

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Color       *string `json:"color"`
}

// handleListProjects returns one page of the user's projects.
func (s *Server) handleListProjects(c *gin.Context) {
	projects, pagination, err := s.svc.ListProjects(c.Request.Context(), currentUser(c), intQuery(c, "page"), intQuery(c, "limit"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondPage(c, gin.H{"projects": projects}, pagination)
}

// handleCreateProject creates a new project owned by the requesting user.
func (s *Server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	in := core.ProjectInput{
		Name:        getString(req.Name),
		Description: getString(req.Description),
		Color:       getString(req.Color),
	}
	if req.Status != nil {
		in.Status = core.ProjectStatus(*req.Status)
	}

	project, err := s.svc.CreateProject(c.Request.Context(), currentUser(c), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": project})
}

// handleGetProject returns a single project.
func (s *Server) handleGetProject(c *gin.Context) {
	project, err := s.svc.GetProject(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleUpdateProject applies a partial update to a project.
func (s *Server) handleUpdateProject(c *gin.Context) {
	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	patch := core.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if req.Status != nil {
		st := core.ProjectStatus(*req.Status)
		patch.Status = &st
	}

	project, err := s.svc.UpdateProject(c.Request.Context(), currentUser(c), c.Param("id"), patch)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": project})
}

// handleDeleteProject removes a project and every task it owns.
func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.svc.DeleteProject(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	respondMessage(c, "project and associated tasks deleted successfully")
}

// handleProjectStats aggregates task counts for a project.
func (s *Server) handleProjectStats(c *gin.Context) {
	stats, err := s.svc.ProjectStats(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"project":         stats.Project,
		"tasksByStatus":   stats.TasksByStatus,
		"tasksByPriority": stats.TasksByPriority,
		"overdueTasks":    stats.OverdueTasks,
	})
}
