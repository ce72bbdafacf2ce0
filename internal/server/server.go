package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskboard/internal/core"
)

// identityHeader carries the requesting user's id, set by the fronting auth
// layer. The server trusts it; issuing and verifying sessions is not this
// service's job.
const identityHeader = "X-User-ID"

// Server provides the HTTP handlers for the task board backend.
type Server struct {
	engine    *gin.Engine
	svc       *core.Service
	logger    *slog.Logger
	staticDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *core.Service, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	srv := &Server{
		engine:    router,
		svc:       svc,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")
	api.GET("/healthz", s.handleHealth)

	authed := api.Group("", s.requireUser)

	authed.GET("/dashboard/stats", s.handleDashboardStats)

	tasks := authed.Group("/tasks")
	{
		tasks.GET("", s.handleListTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.GET("/:id", s.handleGetTask)
		tasks.PUT("/:id", s.handleUpdateTask)
		tasks.PATCH("/:id/status", s.handleUpdateTaskStatus)
		tasks.DELETE("/:id", s.handleDeleteTask)
	}

	projects := authed.Group("/projects")
	{
		projects.GET("", s.handleListProjects)
		projects.POST("", s.handleCreateProject)
		projects.GET("/:id", s.handleGetProject)
		projects.PUT("/:id", s.handleUpdateProject)
		projects.DELETE("/:id", s.handleDeleteProject)
		projects.GET("/:id/stats", s.handleProjectStats)
		projects.GET("/:id/tasks", s.handleBoard)
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireUser rejects requests without an identity and records the user id
// for handlers. Handlers pass it explicitly into every service call.
func (s *Server) requireUser(c *gin.Context) {
	userID := c.GetHeader(identityHeader)
	if userID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "authentication required",
		})
		return
	}
	c.Set("userID", userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString("userID")
}

// respondError translates domain errors into the response envelope.
func (s *Server) respondError(c *gin.Context, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "validation failed",
			"errors":  ve.Fields,
		})
	case errors.Is(err, core.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
	case errors.Is(err, core.ErrTaskNotFound), errors.Is(err, core.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": err.Error()})
	default:
		s.logger.Error("request failed",
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "internal error"})
	}
}

// respondBadRequest reports a malformed request body or query.
func (s *Server) respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
}

// respondSuccess wraps a payload in the JSON envelope.
func respondSuccess(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"status": "success", "data": data})
}

// respondPage wraps a payload together with its pagination metadata.
func respondPage(c *gin.Context, data gin.H, p core.Pagination) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "pagination": p, "data": data})
}

// respondMessage reports a success without a payload.
func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message})
}
