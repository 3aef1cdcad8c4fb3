package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
)

// newTestServer wires the full router against a fresh in-memory
// database, feature-test style.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if err := db.Initialize(":memory:"); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return NewServer()
}

func perform(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func seedProject(t *testing.T, name string) *models.Project {
	t.Helper()
	project, err := db.CreateProject(db.CreateProjectRequest{Name: name})
	if err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}
	return project
}

func seedTask(t *testing.T, projectID uint, req db.CreateTaskRequest) *models.Task {
	t.Helper()
	task, err := db.CreateTask(projectID, req)
	if err != nil {
		t.Fatalf("Failed to seed task: %v", err)
	}
	return task
}
