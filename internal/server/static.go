package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the built dashboard frontend when one is configured.
// Unknown non-API paths fall back to index.html so client-side routing
// works; without a static directory the server runs in API-only mode.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Warn("static directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing; API only mode", "path", s.staticDir)
		return
	}

	index := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn("index.html not found", "path", index)
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(index)
	})
	s.engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "endpoint not found"})
			return
		}
		c.File(index)
	})

	for _, sub := range []string{"assets", "_next", "static"} {
		dir := filepath.Join(s.staticDir, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			s.engine.StaticFS("/"+sub, gin.Dir(dir, false))
		}
	}

	if favicon := filepath.Join(s.staticDir, "favicon.ico"); fileExists(favicon) {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
