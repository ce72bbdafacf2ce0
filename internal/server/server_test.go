package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/core"
	"taskboard/internal/storage/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return New(core.NewService(store, slog.Default()), slog.Default(), "")
}

func doJSON(t *testing.T, srv *Server, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func createTestProject(t *testing.T, srv *Server, user string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", user, map[string]any{
		"name": "test project",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := decode(t, rec)
	data := payload["data"].(map[string]any)
	project := data["project"].(map[string]any)
	return project["id"].(string)
}

func createTestTask(t *testing.T, srv *Server, user, projectID string) string {
	t.Helper()

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", user, map[string]any{
		"title":      "test task",
		"project_id": projectID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := decode(t, rec)
	task := payload["data"].(map[string]any)["task"].(map[string]any)
	return task["id"].(string)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingIdentityIsRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}

func TestCreateProjectEnvelope(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/projects", "alice", map[string]any{
		"name": "website revamp",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	payload := decode(t, rec)
	assert.Equal(t, "success", payload["status"])
	project := payload["data"].(map[string]any)["project"].(map[string]any)
	assert.Equal(t, "website revamp", project["name"])
	assert.Equal(t, "active", project["status"])
	assert.Equal(t, core.DefaultProjectColor, project["color"])
}

func TestCreateTaskWithPastDueDate(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodPost, "/api/tasks", "alice", map[string]any{
		"title":      "too late",
		"project_id": projectID,
		"due_date":   time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	payload := decode(t, rec)
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, "validation failed", payload["message"])

	fields := payload["errors"].([]any)
	require.Len(t, fields, 1)
	first := fields[0].(map[string]any)
	assert.Equal(t, "due_date", first["field"])
	assert.Equal(t, "due date must be in the future", first["message"])
}

func TestPatchStatusRejectsUnknownValue(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	taskID := createTestTask(t, srv, "alice", projectID)

	rec := doJSON(t, srv, http.MethodPatch, "/api/tasks/"+taskID+"/status", "alice", map[string]any{
		"status": "archived",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The task is unchanged.
	rec = doJSON(t, srv, http.MethodGet, "/api/tasks/"+taskID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	task := decode(t, rec)["data"].(map[string]any)["task"].(map[string]any)
	assert.Equal(t, "todo", task["status"])
}

func TestPatchStatusMovesTask(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	taskID := createTestTask(t, srv, "alice", projectID)

	rec := doJSON(t, srv, http.MethodPatch, "/api/tasks/"+taskID+"/status", "alice", map[string]any{
		"status":   "in-progress",
		"position": 3,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	task := decode(t, rec)["data"].(map[string]any)["task"].(map[string]any)
	assert.Equal(t, "in-progress", task["status"])
	assert.Equal(t, float64(3), task["position"])
}

func TestForeignTaskMaskedAsNotFound(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	taskID := createTestTask(t, srv, "alice", projectID)

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks/"+taskID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/tasks/"+taskID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTasksPaginationEnvelope(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	for i := 0; i < 3; i++ {
		createTestTask(t, srv, "alice", projectID)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/tasks?page=1&limit=2", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decode(t, rec)
	pagination := payload["pagination"].(map[string]any)
	assert.Equal(t, float64(1), pagination["page"])
	assert.Equal(t, float64(2), pagination["limit"])
	assert.Equal(t, float64(3), pagination["total"])
	assert.Equal(t, float64(2), pagination["pages"])

	tasks := payload["data"].(map[string]any)["tasks"].([]any)
	assert.Len(t, tasks, 2)
}

func TestBoardResponseShape(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	createTestTask(t, srv, "alice", projectID)

	rec := doJSON(t, srv, http.MethodGet, fmt.Sprintf("/api/projects/%s/tasks", projectID), "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["totalTasks"])

	columns := data["tasks"].(map[string]any)
	require.Contains(t, columns, "todo")
	require.Contains(t, columns, "in-progress")
	require.Contains(t, columns, "done")
	assert.Len(t, columns["todo"].([]any), 1)
	assert.Empty(t, columns["in-progress"].([]any))

	project := data["project"].(map[string]any)
	assert.Equal(t, projectID, project["id"])
}

func TestDeleteProjectCascadesOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	first := createTestTask(t, srv, "alice", projectID)
	second := createTestTask(t, srv, "alice", projectID)

	rec := doJSON(t, srv, http.MethodDelete, "/api/projects/"+projectID, "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, id := range []string{first, second} {
		rec = doJSON(t, srv, http.MethodGet, "/api/tasks/"+id, "alice", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}
}

func TestProjectStatsZeroFilledShape(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")

	rec := doJSON(t, srv, http.MethodGet, "/api/projects/"+projectID+"/stats", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	byStatus := data["tasksByStatus"].(map[string]any)
	for _, key := range []string{"todo", "in-progress", "done"} {
		assert.Equal(t, float64(0), byStatus[key])
	}
	byPriority := data["tasksByPriority"].(map[string]any)
	for _, key := range []string{"low", "medium", "high"} {
		assert.Equal(t, float64(0), byPriority[key])
	}
}

func TestDashboardStatsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	projectID := createTestProject(t, srv, "alice")
	createTestTask(t, srv, "alice", projectID)

	rec := doJSON(t, srv, http.MethodGet, "/api/dashboard/stats", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["totalProjects"])
	assert.Equal(t, float64(1), data["tasksByStatus"].(map[string]any)["todo"])
	assert.Len(t, data["recentTasks"].([]any), 1)
}
