// Package api is the typed HTTP client for the taskdeck server. It is
// what the terminal board and the state stores talk through.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/taskdeck/internal/models"
)

// Error is a non-2xx API response. Fields carries the per-field
// validation map on 422s.
type Error struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"errors"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Meta is the pagination block of a task listing response.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

// TaskCounts is the project-wide per-status breakdown.
type TaskCounts struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Done       int64 `json:"done"`
}

// TaskList is the full task listing envelope.
type TaskList struct {
	Data   []models.Task `json:"data"`
	Meta   Meta          `json:"meta"`
	Counts TaskCounts    `json:"counts"`
}

// TaskFilters mirrors the query parameters of the task listing
// endpoint. Zero values are omitted from the request.
type TaskFilters struct {
	Status  models.TaskStatus
	Search  string
	Sort    string
	Order   string
	Page    int
	PerPage int
}

// CreateProjectPayload is the body for POST /projects.
type CreateProjectPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateProjectPayload is a partial update; nil fields are not sent.
type UpdateProjectPayload struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateTaskPayload is the body for POST /projects/{id}/tasks.
type CreateTaskPayload struct {
	Title    string              `json:"title"`
	Details  string              `json:"details,omitempty"`
	Priority models.TaskPriority `json:"priority,omitempty"`
	Status   models.TaskStatus   `json:"status,omitempty"`
	DueDate  *models.Date        `json:"due_date,omitempty"`
}

// UpdateTaskPayload is a partial update; nil fields are not sent.
// DueDate is doubly indirect so callers can distinguish "leave alone"
// (nil, omitted from the body) from "clear" (pointer to nil, sent as
// an explicit null).
type UpdateTaskPayload struct {
	Title    *string              `json:"title,omitempty"`
	Details  *string              `json:"details,omitempty"`
	Priority *models.TaskPriority `json:"priority,omitempty"`
	Status   *models.TaskStatus   `json:"status,omitempty"`
	DueDate  **models.Date        `json:"due_date,omitempty"`
}

// Client talks to a taskdeck server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &Error{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// ListProjects lists projects, optionally filtered by status.
func (c *Client) ListProjects(status models.ProjectStatus) ([]models.Project, error) {
	path := "/projects"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}

	var envelope struct {
		Data []models.Project `json:"data"`
	}
	if err := c.do(http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// GetProject fetches one project.
func (c *Client) GetProject(id uint) (*models.Project, error) {
	return c.projectRequest(http.MethodGet, fmt.Sprintf("/projects/%d", id), nil)
}

// CreateProject creates a project.
func (c *Client) CreateProject(payload CreateProjectPayload) (*models.Project, error) {
	return c.projectRequest(http.MethodPost, "/projects", payload)
}

// UpdateProject applies a partial update.
func (c *Client) UpdateProject(id uint, payload UpdateProjectPayload) (*models.Project, error) {
	return c.projectRequest(http.MethodPut, fmt.Sprintf("/projects/%d", id), payload)
}

// DeleteProject deletes a project and all of its tasks.
func (c *Client) DeleteProject(id uint) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/projects/%d", id), nil, nil)
}

// ArchiveProject sets the project status to archived.
func (c *Client) ArchiveProject(id uint) (*models.Project, error) {
	return c.projectRequest(http.MethodPatch, fmt.Sprintf("/projects/%d/archive", id), nil)
}

// UnarchiveProject sets the project status back to active.
func (c *Client) UnarchiveProject(id uint) (*models.Project, error) {
	return c.projectRequest(http.MethodPatch, fmt.Sprintf("/projects/%d/unarchive", id), nil)
}

func (c *Client) projectRequest(method, path string, body any) (*models.Project, error) {
	var envelope struct {
		Data models.Project `json:"data"`
	}
	if err := c.do(method, path, body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// ListTasks fetches one page of a project's tasks plus the
// project-wide status counts.
func (c *Client) ListTasks(projectID uint, f TaskFilters) (*TaskList, error) {
	values := url.Values{}
	if f.Status != "" {
		values.Set("status", string(f.Status))
	}
	if f.Search != "" {
		values.Set("search", f.Search)
	}
	if f.Sort != "" {
		values.Set("sort", f.Sort)
	}
	if f.Order != "" {
		values.Set("order", f.Order)
	}
	if f.Page > 0 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(f.PerPage))
	}

	path := fmt.Sprintf("/projects/%d/tasks", projectID)
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var list TaskList
	if err := c.do(http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateTask creates a task under a project.
func (c *Client) CreateTask(projectID uint, payload CreateTaskPayload) (*models.Task, error) {
	return c.taskRequest(http.MethodPost, fmt.Sprintf("/projects/%d/tasks", projectID), payload)
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(id uint, payload UpdateTaskPayload) (*models.Task, error) {
	return c.taskRequest(http.MethodPut, fmt.Sprintf("/tasks/%d", id), payload)
}

// UpdateTaskStatus changes only the status of a task.
func (c *Client) UpdateTaskStatus(id uint, status models.TaskStatus) (*models.Task, error) {
	body := map[string]models.TaskStatus{"status": status}
	return c.taskRequest(http.MethodPatch, fmt.Sprintf("/tasks/%d/status", id), body)
}

// DeleteTask soft-deletes a task.
func (c *Client) DeleteTask(id uint) error {
	return c.do(http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// BulkUpdateTaskStatus sets status on every listed task that belongs
// to the project and returns the number of rows the server changed.
func (c *Client) BulkUpdateTaskStatus(projectID uint, taskIDs []uint, status models.TaskStatus) (int64, error) {
	body := map[string]any{
		"task_ids": taskIDs,
		"status":   status,
	}

	var resp struct {
		UpdatedCount int64 `json:"updated_count"`
	}
	err := c.do(http.MethodPatch, fmt.Sprintf("/projects/%d/tasks/bulk-status", projectID), body, &resp)
	if err != nil {
		return 0, err
	}
	return resp.UpdatedCount, nil
}

func (c *Client) taskRequest(method, path string, body any) (*models.Task, error) {
	var envelope struct {
		Data models.Task `json:"data"`
	}
	if err := c.do(method, path, body, &envelope); err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}
