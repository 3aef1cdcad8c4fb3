package db

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/taskdeck/internal/models"
)

// setupTestDB points the package at a fresh in-memory database and
// tears it down when the test completes.
func setupTestDB(t *testing.T) {
	t.Helper()

	if err := Initialize(":memory:"); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(func() {
		if err := Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
}

func mustCreateProject(t *testing.T, name string) *models.Project {
	t.Helper()
	project, err := CreateProject(CreateProjectRequest{Name: name})
	if err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return project
}

func mustCreateTask(t *testing.T, projectID uint, req CreateTaskRequest) *models.Task {
	t.Helper()
	task, err := CreateTask(projectID, req)
	if err != nil {
		t.Fatalf("Failed to create task %q: %v", req.Title, err)
	}
	return task
}

func datePtr(year int, month time.Month, day int) *models.Date {
	d := models.NewDate(year, month, day)
	return &d
}

func TestCreateTaskDefaults(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "defaults")

	task := mustCreateTask(t, project.ID, CreateTaskRequest{Title: "first task"})

	if task.Status != models.StatusTodo {
		t.Errorf("Expected default status todo, got %q", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Expected default priority medium, got %q", task.Priority)
	}
	if task.ProjectID != project.ID {
		t.Errorf("Expected project id %d, got %d", project.ID, task.ProjectID)
	}
}

func TestCreateTaskUnknownProject(t *testing.T) {
	setupTestDB(t)

	_, err := CreateTask(9999, CreateTaskRequest{Title: "orphan"})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestTaskQueryNormalize(t *testing.T) {
	q := TaskQuery{
		Status:  "bogus",
		Sort:    "nope",
		Order:   "sideways",
		Page:    0,
		PerPage: 500,
	}
	q.Normalize()

	if q.Sort != SortCreatedAt {
		t.Errorf("Expected sort fallback to created_at, got %q", q.Sort)
	}
	if q.Order != OrderDesc {
		t.Errorf("Expected order fallback to desc, got %q", q.Order)
	}
	if q.Status != "" {
		t.Errorf("Expected invalid status filter to be dropped, got %q", q.Status)
	}
	if q.Page != 1 {
		t.Errorf("Expected page 1, got %d", q.Page)
	}
	if q.PerPage != MaxPerPage {
		t.Errorf("Expected per_page clamped to %d, got %d", MaxPerPage, q.PerPage)
	}

	q = TaskQuery{}
	q.Normalize()
	if q.PerPage != DefaultPerPage {
		t.Errorf("Expected default per_page %d, got %d", DefaultPerPage, q.PerPage)
	}
}

func TestListTasksStatusFilterAndIndependentCounts(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "filters")

	for i := 0; i < 3; i++ {
		mustCreateTask(t, project.ID, CreateTaskRequest{Title: "todo task", Status: models.StatusTodo})
	}
	for i := 0; i < 2; i++ {
		mustCreateTask(t, project.ID, CreateTaskRequest{Title: "busy task", Status: models.StatusInProgress})
	}
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "done task", Status: models.StatusDone})

	q := TaskQuery{Status: models.StatusTodo}
	q.Normalize()
	page, counts, err := ListTasksWithCounts(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasksWithCounts failed: %v", err)
	}

	if len(page.Tasks) != 3 {
		t.Fatalf("Expected 3 todo tasks, got %d", len(page.Tasks))
	}
	for _, task := range page.Tasks {
		if task.Status != models.StatusTodo {
			t.Errorf("Status filter leaked: got task with status %q", task.Status)
		}
	}
	if page.Total != 3 {
		t.Errorf("Expected filtered total 3, got %d", page.Total)
	}

	// The aggregate ignores the list filter: it always covers the
	// whole project.
	if counts.Todo != 3 || counts.InProgress != 2 || counts.Done != 1 || counts.Total != 6 {
		t.Errorf("Unexpected counts: %+v", counts)
	}
}

func TestListTasksSearchCaseInsensitive(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "search")

	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "Fix the LOGIN bug"})
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "add dark mode"})

	q := TaskQuery{Search: "login"}
	q.Normalize()
	page, err := ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}

	if len(page.Tasks) != 1 {
		t.Fatalf("Expected 1 match, got %d", len(page.Tasks))
	}
	if page.Tasks[0].Title != "Fix the LOGIN bug" {
		t.Errorf("Unexpected match: %q", page.Tasks[0].Title)
	}
}

func TestListTasksPagination(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "pages")

	for i := 0; i < 15; i++ {
		mustCreateTask(t, project.ID, CreateTaskRequest{Title: "numbered task"})
	}

	q := TaskQuery{PerPage: 5}
	q.Normalize()
	page, err := ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}

	if len(page.Tasks) != 5 {
		t.Errorf("Expected 5 tasks on page 1, got %d", len(page.Tasks))
	}
	if page.Total != 15 {
		t.Errorf("Expected total 15, got %d", page.Total)
	}
	if page.LastPage != 3 {
		t.Errorf("Expected last_page 3, got %d", page.LastPage)
	}
	if page.CurrentPage != 1 || page.PerPage != 5 {
		t.Errorf("Unexpected meta: %+v", page)
	}

	q.Page = 3
	page, err = ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks page 3 failed: %v", err)
	}
	if len(page.Tasks) != 5 {
		t.Errorf("Expected 5 tasks on page 3, got %d", len(page.Tasks))
	}

	q.Page = 4
	page, err = ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks page 4 failed: %v", err)
	}
	if len(page.Tasks) != 0 {
		t.Errorf("Expected empty page past the end, got %d tasks", len(page.Tasks))
	}
}

func TestListTasksDueDateSorting(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "due dates")

	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "later", DueDate: datePtr(2026, time.December, 31)})
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "sooner", DueDate: datePtr(2026, time.January, 1)})
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "undated"})

	q := TaskQuery{Sort: SortDueDate, Order: OrderAsc}
	q.Normalize()
	page, err := ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks asc failed: %v", err)
	}
	titles := taskTitles(page.Tasks)
	if titles[0] != "sooner" || titles[1] != "later" || titles[2] != "undated" {
		t.Errorf("Ascending due dates should put undated last, got %v", titles)
	}

	q.Order = OrderDesc
	q.Normalize()
	page, err = ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks desc failed: %v", err)
	}
	titles = taskTitles(page.Tasks)
	if titles[0] != "undated" || titles[1] != "later" || titles[2] != "sooner" {
		t.Errorf("Descending due dates should put undated first, got %v", titles)
	}
}

func TestListTasksPrioritySorting(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "priorities")

	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "medium one", Priority: models.PriorityMedium})
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "high one", Priority: models.PriorityHigh})
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "low one", Priority: models.PriorityLow})

	q := TaskQuery{Sort: SortPriority, Order: OrderAsc}
	q.Normalize()
	page, err := ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}

	// Severity rank, not lexical: ascending is low, medium, high.
	titles := taskTitles(page.Tasks)
	if titles[0] != "low one" || titles[1] != "medium one" || titles[2] != "high one" {
		t.Errorf("Unexpected ascending priority order: %v", titles)
	}

	q.Order = OrderDesc
	q.Normalize()
	page, err = ListTasks(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasks failed: %v", err)
	}
	titles = taskTitles(page.Tasks)
	if titles[0] != "high one" || titles[2] != "low one" {
		t.Errorf("Unexpected descending priority order: %v", titles)
	}
}

func TestBulkUpdateOnlyAffectsProjectTasks(t *testing.T) {
	setupTestDB(t)
	ours := mustCreateProject(t, "ours")
	theirs := mustCreateProject(t, "theirs")

	ourTask := mustCreateTask(t, ours.ID, CreateTaskRequest{Title: "our task", Status: models.StatusTodo})
	otherTask := mustCreateTask(t, theirs.ID, CreateTaskRequest{Title: "their task", Status: models.StatusTodo})

	updated, err := BulkUpdateTaskStatus(ours.ID, []uint{ourTask.ID, otherTask.ID, 9999}, models.StatusDone)
	if err != nil {
		t.Fatalf("BulkUpdateTaskStatus failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("Expected exactly 1 row updated, got %d", updated)
	}

	got, err := GetTask(ourTask.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != models.StatusDone {
		t.Errorf("Our task should be done, got %q", got.Status)
	}

	got, err = GetTask(otherTask.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Status != models.StatusTodo {
		t.Errorf("Foreign task must not change, got %q", got.Status)
	}
}

func TestBulkUpdateAllForeignIDsIsSilentNoop(t *testing.T) {
	setupTestDB(t)
	ours := mustCreateProject(t, "ours")
	theirs := mustCreateProject(t, "theirs")

	otherTask := mustCreateTask(t, theirs.ID, CreateTaskRequest{Title: "their task"})

	updated, err := BulkUpdateTaskStatus(ours.ID, []uint{otherTask.ID}, models.StatusDone)
	if err != nil {
		t.Fatalf("Expected silent no-op, got error: %v", err)
	}
	if updated != 0 {
		t.Errorf("Expected 0 rows updated, got %d", updated)
	}
}

func TestSoftDeletedTasksAreInvisible(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "tombstones")

	task := mustCreateTask(t, project.ID, CreateTaskRequest{Title: "doomed task", Status: models.StatusTodo})
	mustCreateTask(t, project.ID, CreateTaskRequest{Title: "survivor", Status: models.StatusTodo})

	if err := DeleteTask(task.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	if _, err := GetTask(task.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected tombstoned task to be not found, got %v", err)
	}

	q := TaskQuery{}
	q.Normalize()
	page, counts, err := ListTasksWithCounts(project.ID, q)
	if err != nil {
		t.Fatalf("ListTasksWithCounts failed: %v", err)
	}
	if len(page.Tasks) != 1 || page.Total != 1 {
		t.Errorf("Tombstoned task leaked into the list: %d tasks, total %d", len(page.Tasks), page.Total)
	}
	if counts.Total != 1 || counts.Todo != 1 {
		t.Errorf("Tombstoned task leaked into counts: %+v", counts)
	}

	updated, err := BulkUpdateTaskStatus(project.ID, []uint{task.ID}, models.StatusDone)
	if err != nil {
		t.Fatalf("BulkUpdateTaskStatus failed: %v", err)
	}
	if updated != 0 {
		t.Errorf("Bulk update touched a tombstoned task")
	}

	// The row is still physically present.
	var raw int64
	if err := DB.Unscoped().Model(&models.Task{}).Where("id = ?", task.ID).Count(&raw).Error; err != nil {
		t.Fatalf("Unscoped count failed: %v", err)
	}
	if raw != 1 {
		t.Errorf("Soft delete must keep the row, found %d", raw)
	}
}

func TestUpdateTaskPartial(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "updates")
	task := mustCreateTask(t, project.ID, CreateTaskRequest{Title: "original title", Priority: models.PriorityLow})

	newTitle := "updated title"
	updated, err := UpdateTask(task.ID, UpdateTaskRequest{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}

	if updated.Title != newTitle {
		t.Errorf("Expected title %q, got %q", newTitle, updated.Title)
	}
	if updated.Priority != models.PriorityLow {
		t.Errorf("Untouched field changed: priority %q", updated.Priority)
	}
	if updated.ProjectID != project.ID {
		t.Errorf("Project reference must be immutable")
	}
}

func TestUpdateTaskClearDueDate(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "due date clear")
	task := mustCreateTask(t, project.ID, CreateTaskRequest{
		Title:   "dated task",
		DueDate: datePtr(2026, time.March, 1),
	})

	var cleared *models.Date
	updated, err := UpdateTask(task.ID, UpdateTaskRequest{DueDate: &cleared})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.DueDate != nil {
		t.Errorf("Expected due date cleared, got %v", updated.DueDate)
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	setupTestDB(t)
	project := mustCreateProject(t, "status flips")
	task := mustCreateTask(t, project.ID, CreateTaskRequest{Title: "flip me"})

	updated, err := UpdateTaskStatus(task.ID, models.StatusDone)
	if err != nil {
		t.Fatalf("UpdateTaskStatus failed: %v", err)
	}
	if updated.Status != models.StatusDone {
		t.Errorf("Expected status done, got %q", updated.Status)
	}
}

func taskTitles(tasks []models.Task) []string {
	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	return titles
}
