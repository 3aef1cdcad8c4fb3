package server

import (
	"net/http"
	"testing"

	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
)

func TestCreateProject(t *testing.T) {
	s := newTestServer(t)

	w := perform(t, s, http.MethodPost, "/projects", map[string]any{
		"name":        "Website Redesign",
		"description": "fresh look",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.Project `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.Name != "Website Redesign" {
		t.Errorf("Unexpected name %q", resp.Data.Name)
	}
	if resp.Data.Status != models.ProjectActive {
		t.Errorf("Expected active status, got %q", resp.Data.Status)
	}
}

func TestCreateProjectNameTooShort(t *testing.T) {
	s := newTestServer(t)

	w := perform(t, s, http.MethodPost, "/projects", map[string]any{"name": "ab"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for 2-char name, got %d", w.Code)
	}

	var resp struct {
		Errors map[string][]string `json:"errors"`
	}
	decode(t, w, &resp)
	if len(resp.Errors["name"]) == 0 {
		t.Errorf("Expected a field error for name, got %v", resp.Errors)
	}

	// Three characters is the minimum that passes.
	w = perform(t, s, http.MethodPost, "/projects", map[string]any{"name": "abc"})
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 for 3-char name, got %d", w.Code)
	}
}

func TestCreateProjectMissingName(t *testing.T) {
	s := newTestServer(t)

	w := perform(t, s, http.MethodPost, "/projects", map[string]any{"description": "no name"})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestServer(t)

	w := perform(t, s, http.MethodGet, "/projects/999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	w = perform(t, s, http.MethodGet, "/projects/not-a-number", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for junk id, got %d", w.Code)
	}
}

func TestListProjectsStatusFilter(t *testing.T) {
	s := newTestServer(t)

	seedProject(t, "active one")
	archived := seedProject(t, "archived one")
	perform(t, s, http.MethodPatch, "/projects/2/archive", nil)
	_ = archived

	var resp struct {
		Data []models.Project `json:"data"`
	}

	w := perform(t, s, http.MethodGet, "/projects?status=active", nil)
	decode(t, w, &resp)
	if len(resp.Data) != 1 || resp.Data[0].Name != "active one" {
		t.Errorf("Unexpected active list: %+v", resp.Data)
	}

	w = perform(t, s, http.MethodGet, "/projects?status=archived", nil)
	decode(t, w, &resp)
	if len(resp.Data) != 1 || resp.Data[0].Name != "archived one" {
		t.Errorf("Unexpected archived list: %+v", resp.Data)
	}

	w = perform(t, s, http.MethodGet, "/projects", nil)
	decode(t, w, &resp)
	if len(resp.Data) != 2 {
		t.Errorf("Expected 2 projects, got %d", len(resp.Data))
	}
}

func TestArchiveAndUnarchiveEndpoints(t *testing.T) {
	s := newTestServer(t)
	project := seedProject(t, "flip me")

	var resp struct {
		Data models.Project `json:"data"`
	}

	w := perform(t, s, http.MethodPatch, "/projects/1/archive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Archive failed with %d", w.Code)
	}
	decode(t, w, &resp)
	if resp.Data.Status != models.ProjectArchived {
		t.Errorf("Expected archived, got %q", resp.Data.Status)
	}

	w = perform(t, s, http.MethodPatch, "/projects/1/unarchive", nil)
	decode(t, w, &resp)
	if resp.Data.Status != models.ProjectActive {
		t.Errorf("Expected active, got %q", resp.Data.Status)
	}
	_ = project
}

func TestUpdateProject(t *testing.T) {
	s := newTestServer(t)
	seedProject(t, "before")

	w := perform(t, s, http.MethodPut, "/projects/1", map[string]any{"name": "after rename"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data models.Project `json:"data"`
	}
	decode(t, w, &resp)
	if resp.Data.Name != "after rename" {
		t.Errorf("Expected renamed project, got %q", resp.Data.Name)
	}

	// PATCH hits the same handler.
	w = perform(t, s, http.MethodPatch, "/projects/1", map[string]any{"name": "patched name"})
	if w.Code != http.StatusOK {
		t.Errorf("PATCH update failed with %d", w.Code)
	}
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestServer(t)
	project := seedProject(t, "doomed")
	task := seedTask(t, project.ID, db.CreateTaskRequest{Title: "inside task"})

	w := perform(t, s, http.MethodDelete, "/projects/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Delete body should be empty, got %q", w.Body.String())
	}

	w = perform(t, s, http.MethodGet, "/projects/1", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected deleted project to 404, got %d", w.Code)
	}

	// The owned task went with it.
	w = perform(t, s, http.MethodPut, "/tasks/1", map[string]any{"title": "still there?"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected cascaded task to 404, got %d", w.Code)
	}
	_ = task
}
