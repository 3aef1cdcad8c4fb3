package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
)

type createTaskRequest struct {
	Title    string  `json:"title" binding:"required,min=3,max=120"`
	Details  string  `json:"details"`
	Priority string  `json:"priority" binding:"omitempty,oneof=low medium high"`
	Status   string  `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	DueDate  *string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

type updateTaskRequest struct {
	Title    *string `json:"title" binding:"omitempty,min=3,max=120"`
	Details  *string `json:"details"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	Status   *string `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	// Absent, null and a date string are three distinct states: null
	// clears the stored date. The raw message keeps them apart; the
	// handler validates the format.
	DueDate json.RawMessage `json:"due_date"`
}

type updateTaskStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=todo in_progress done"`
}

type bulkStatusRequest struct {
	TaskIDs []uint `json:"task_ids" binding:"required,min=1"`
	Status  string `json:"status" binding:"required,oneof=todo in_progress done"`
}

// listTasks serves the filtered/sorted/paginated task page together
// with the project-wide status counts. The two reads are independent
// and run in parallel; the response is all-or-nothing.
func (s *Server) listTasks(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if _, err := db.GetProject(id); err != nil {
		respondError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	q := db.TaskQuery{
		Status:  models.TaskStatus(c.Query("status")),
		Search:  c.Query("search"),
		Sort:    c.Query("sort"),
		Order:   c.Query("order"),
		Page:    page,
		PerPage: perPage,
	}
	q.Normalize()

	taskPage, counts, err := db.ListTasksWithCounts(id, q)
	if err != nil {
		respondError(c, err)
		return
	}
	if taskPage.Tasks == nil {
		taskPage.Tasks = []models.Task{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": taskPage.Tasks,
		"meta": gin.H{
			"current_page": taskPage.CurrentPage,
			"last_page":    taskPage.LastPage,
			"per_page":     taskPage.PerPage,
			"total":        taskPage.Total,
		},
		"counts": counts,
	})
}

func (s *Server) createTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	create := db.CreateTaskRequest{
		Title:    req.Title,
		Details:  req.Details,
		Priority: models.TaskPriority(req.Priority),
		Status:   models.TaskStatus(req.Status),
	}
	if req.DueDate != nil {
		due, err := models.ParseDate(*req.DueDate)
		if err != nil {
			respondFieldError(c, "due_date", invalidDateMessage)
			return
		}
		create.DueDate = &due
	}

	task, err := db.CreateTask(id, create)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": task})
}

func (s *Server) updateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	update := db.UpdateTaskRequest{
		Title:   req.Title,
		Details: req.Details,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		update.Priority = &priority
	}
	if req.Status != nil {
		status := models.TaskStatus(*req.Status)
		update.Status = &status
	}
	if len(req.DueDate) > 0 {
		if bytes.Equal(req.DueDate, []byte("null")) {
			var cleared *models.Date
			update.DueDate = &cleared
		} else {
			var raw string
			if err := json.Unmarshal(req.DueDate, &raw); err != nil {
				respondFieldError(c, "due_date", invalidDateMessage)
				return
			}
			due, err := models.ParseDate(raw)
			if err != nil {
				respondFieldError(c, "due_date", invalidDateMessage)
				return
			}
			duePtr := &due
			update.DueDate = &duePtr
		}
	}

	task, err := db.UpdateTask(id, update)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (s *Server) updateTaskStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req updateTaskStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := db.UpdateTaskStatus(id, models.TaskStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": task})
}

func (s *Server) deleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := db.DeleteTask(id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// bulkUpdateTaskStatus updates status on the subset of the given ids
// that belong to the project. Foreign and unknown ids are skipped
// without error; the updated count tells the caller what happened.
func (s *Server) bulkUpdateTaskStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if _, err := db.GetProject(id); err != nil {
		respondError(c, err)
		return
	}

	var req bulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := db.BulkUpdateTaskStatus(id, req.TaskIDs, models.TaskStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("%d tasks updated", updated),
		"updated_count": updated,
	})
}
