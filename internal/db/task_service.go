package db

import (
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/balkashynov/taskdeck/internal/models"
)

// Sort fields accepted by the task listing. Anything else falls back
// to created_at.
const (
	SortDueDate   = "due_date"
	SortPriority  = "priority"
	SortCreatedAt = "created_at"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// TaskQuery is the filter/sort/page specification for listing tasks
// within one project. Zero values mean "not applied".
type TaskQuery struct {
	Status  models.TaskStatus
	Search  string
	Sort    string
	Order   string
	Page    int
	PerPage int
}

// Normalize applies the fallback rules: unknown sort -> created_at,
// unknown order -> desc, invalid status filter -> no filter, per_page
// clamped to [1, 100] with a default of 10, page at least 1.
func (q *TaskQuery) Normalize() {
	if q.Sort != SortDueDate && q.Sort != SortPriority {
		q.Sort = SortCreatedAt
	}
	if q.Order != OrderAsc {
		q.Order = OrderDesc
	}
	if !q.Status.Valid() {
		q.Status = ""
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
}

// TaskPage is one page of matching tasks plus pagination metadata.
type TaskPage struct {
	Tasks       []models.Task
	CurrentPage int
	LastPage    int
	PerPage     int
	Total       int64
}

// StatusCounts is the per-status breakdown of a project's live tasks.
// It always covers the whole project; list filters never apply.
type StatusCounts struct {
	Total      int64 `json:"total"`
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"in_progress"`
	Done       int64 `json:"done"`
}

// ListTasks returns the page of tasks matching q within a project.
// The caller is expected to have verified the project exists and to
// have called q.Normalize().
func ListTasks(projectID uint, q TaskQuery) (*TaskPage, error) {
	query := DB.Model(&models.Task{}).Where("project_id = ?", projectID)

	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q.Search)+"%")
	}

	// Reusable chain: Count below, then the page query.
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	dir := "ASC"
	if q.Order == OrderDesc {
		dir = "DESC"
	}

	switch q.Sort {
	case SortPriority:
		// Severity rank, never lexical order.
		query = query.Order("CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 END " + dir)
	case SortDueDate:
		// Tasks without a due date sort last ascending, first
		// descending. The IS NULL key makes that explicit instead of
		// leaning on the engine's native null ordering.
		query = query.Order("due_date IS NULL " + dir).Order("due_date " + dir)
	default:
		query = query.Order("created_at " + dir)
	}
	query = query.Order("id " + dir)

	var tasks []models.Task
	offset := (q.Page - 1) * q.PerPage
	if err := query.Offset(offset).Limit(q.PerPage).Find(&tasks).Error; err != nil {
		return nil, err
	}

	lastPage := int((total + int64(q.PerPage) - 1) / int64(q.PerPage))
	if lastPage < 1 {
		lastPage = 1
	}

	return &TaskPage{
		Tasks:       tasks,
		CurrentPage: q.Page,
		LastPage:    lastPage,
		PerPage:     q.PerPage,
		Total:       total,
	}, nil
}

// CountTasksByStatus aggregates live task counts per status across the
// whole project, independent of any list filters.
func CountTasksByStatus(projectID uint) (*StatusCounts, error) {
	var rows []struct {
		Status models.TaskStatus
		Count  int64
	}

	err := DB.Model(&models.Task{}).
		Select("status, COUNT(*) AS count").
		Where("project_id = ?", projectID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &StatusCounts{}
	for _, row := range rows {
		counts.Total += row.Count
		switch row.Status {
		case models.StatusTodo:
			counts.Todo = row.Count
		case models.StatusInProgress:
			counts.InProgress = row.Count
		case models.StatusDone:
			counts.Done = row.Count
		}
	}

	return counts, nil
}

// ListTasksWithCounts runs the page query and the count aggregate in
// parallel. Both are pure reads with no ordering dependency; the
// fan-out is a latency optimization only. Either both succeed or the
// whole call fails.
func ListTasksWithCounts(projectID uint, q TaskQuery) (*TaskPage, *StatusCounts, error) {
	var (
		page   *TaskPage
		counts *StatusCounts
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		page, err = ListTasks(projectID, q)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = CountTasksByStatus(projectID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return page, counts, nil
}

// CreateTaskRequest holds the data needed to create a new task
type CreateTaskRequest struct {
	Title    string
	Details  string
	Priority models.TaskPriority
	Status   models.TaskStatus
	DueDate  *models.Date
}

// UpdateTaskRequest holds a partial task update. Nil fields are left
// untouched; DueDate uses a double pointer so callers can clear it.
type UpdateTaskRequest struct {
	Title    *string
	Details  *string
	Priority *models.TaskPriority
	Status   *models.TaskStatus
	DueDate  **models.Date
}

// CreateTask creates a task under a project. The project must exist.
func CreateTask(projectID uint, req CreateTaskRequest) (*models.Task, error) {
	if _, err := GetProject(projectID); err != nil {
		return nil, err
	}

	task := models.Task{
		ProjectID: projectID,
		Title:     req.Title,
		Details:   req.Details,
		Priority:  models.PriorityMedium,
		Status:    models.StatusTodo,
		DueDate:   req.DueDate,
	}
	if req.Priority.Valid() {
		task.Priority = req.Priority
	}
	if req.Status.Valid() {
		task.Status = req.Status
	}

	if err := DB.Create(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// GetTask fetches one live task by id.
func GetTask(id uint) (*models.Task, error) {
	var task models.Task
	if err := DB.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask applies a partial update. The owning project cannot
// change.
func UpdateTask(id uint, req UpdateTaskRequest) (*models.Task, error) {
	task, err := GetTask(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Details != nil {
		updates["details"] = *req.Details
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}

	if len(updates) > 0 {
		if err := DB.Model(task).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return GetTask(id)
}

// UpdateTaskStatus is the status-only mutation.
func UpdateTaskStatus(id uint, status models.TaskStatus) (*models.Task, error) {
	task, err := GetTask(id)
	if err != nil {
		return nil, err
	}

	if err := DB.Model(task).Update("status", status).Error; err != nil {
		return nil, err
	}

	return GetTask(id)
}

// DeleteTask soft-deletes a task. The row stays in the table with a
// tombstone and disappears from every query path.
func DeleteTask(id uint) error {
	task, err := GetTask(id)
	if err != nil {
		return err
	}
	return DB.Delete(task).Error
}

// BulkUpdateTaskStatus sets status on every given task that belongs to
// the project. Ids outside the project, unknown ids and tombstoned
// tasks are silently skipped; that is a filter condition, not an
// error. Returns the number of rows actually changed.
func BulkUpdateTaskStatus(projectID uint, taskIDs []uint, status models.TaskStatus) (int64, error) {
	res := DB.Model(&models.Task{}).
		Where("project_id = ? AND id IN ?", projectID, taskIDs).
		Update("status", status)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
