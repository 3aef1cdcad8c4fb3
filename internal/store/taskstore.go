// Package store holds the client-side state for the terminal board:
// a mirror of server state with optimistic status updates. All
// reconciliation happens through full refetches; the stores never
// re-filter or re-count locally.
package store

import (
	"errors"
	"sort"
	"sync"

	"github.com/balkashynov/taskdeck/internal/api"
	"github.com/balkashynov/taskdeck/internal/db"
	"github.com/balkashynov/taskdeck/internal/models"
)

// ErrNoSelection is returned by bulk operations when nothing is
// selected.
var ErrNoSelection = errors.New("no tasks selected")

// TaskAPI is the slice of the API client the task store needs.
type TaskAPI interface {
	ListTasks(projectID uint, f api.TaskFilters) (*api.TaskList, error)
	CreateTask(projectID uint, payload api.CreateTaskPayload) (*models.Task, error)
	UpdateTask(id uint, payload api.UpdateTaskPayload) (*models.Task, error)
	UpdateTaskStatus(id uint, status models.TaskStatus) (*models.Task, error)
	DeleteTask(id uint) error
	BulkUpdateTaskStatus(projectID uint, taskIDs []uint, status models.TaskStatus) (int64, error)
}

// FilterUpdate is a partial change to the filter/sort/page
// specification. Nil fields keep their current value.
type FilterUpdate struct {
	Status *models.TaskStatus
	Sort   *string
	Order  *string
	Search *string
	Page   *int
}

// TaskStore tracks one project's task list view: the current
// filter/sort/page spec, the last fetched page and counts, and the
// bulk-selection set. A mutex serializes every operation so bubbletea
// command goroutines can share one store.
type TaskStore struct {
	mu  sync.Mutex
	api TaskAPI

	projectID uint
	loading   bool
	tasks     []models.Task

	statusFilter models.TaskStatus
	sortField    string
	sortOrder    string
	search       string

	currentPage int
	totalPages  int
	perPage     int
	totalItems  int64

	counts   api.TaskCounts
	selected map[uint]struct{}
}

// NewTaskStore creates a store with default filters.
func NewTaskStore(a TaskAPI) *TaskStore {
	s := &TaskStore{api: a, selected: map[uint]struct{}{}}
	s.resetFilters()
	return s
}

func (s *TaskStore) resetFilters() {
	s.statusFilter = ""
	s.sortField = db.SortCreatedAt
	s.sortOrder = db.OrderDesc
	s.search = ""
	s.currentPage = 1
	s.totalPages = 1
	s.perPage = db.DefaultPerPage
}

// Fetch loads the task page and counts for a project with the current
// specification. The server response is the sole source of truth.
func (s *TaskStore) Fetch(projectID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = projectID
	return s.fetchLocked()
}

// fetchLocked refetches with the current spec. Callers hold s.mu.
func (s *TaskStore) fetchLocked() error {
	s.loading = true
	defer func() { s.loading = false }()

	list, err := s.api.ListTasks(s.projectID, api.TaskFilters{
		Status:  s.statusFilter,
		Search:  s.search,
		Sort:    s.sortField,
		Order:   s.sortOrder,
		Page:    s.currentPage,
		PerPage: s.perPage,
	})
	if err != nil {
		return err
	}

	s.tasks = list.Data
	s.currentPage = list.Meta.CurrentPage
	s.totalPages = list.Meta.LastPage
	s.totalItems = list.Meta.Total
	s.counts = list.Counts
	return nil
}

// SetFilters applies a partial filter/sort/page change and refetches.
func (s *TaskStore) SetFilters(u FilterUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Status != nil {
		s.statusFilter = *u.Status
	}
	if u.Sort != nil {
		s.sortField = *u.Sort
	}
	if u.Order != nil {
		s.sortOrder = *u.Order
	}
	if u.Search != nil {
		s.search = *u.Search
	}
	if u.Page != nil {
		s.currentPage = *u.Page
	}

	if s.projectID == 0 {
		return nil
	}
	return s.fetchLocked()
}

// CreateTask creates a task, then refetches so the counts stay
// correct.
func (s *TaskStore) CreateTask(payload api.CreateTaskPayload) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.api.CreateTask(s.projectID, payload)
	if err != nil {
		return nil, err
	}
	if err := s.fetchLocked(); err != nil {
		return task, err
	}
	return task, nil
}

// UpdateTask applies a field update, then refetches.
func (s *TaskStore) UpdateTask(id uint, payload api.UpdateTaskPayload) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, err := s.api.UpdateTask(id, payload)
	if err != nil {
		return nil, err
	}
	if err := s.fetchLocked(); err != nil {
		return task, err
	}
	return task, nil
}

// UpdateStatus changes one task's status optimistically: the local
// row flips immediately, the server call follows. Success triggers a
// full refetch (the optimistic update cannot recompute the global
// counts); failure restores the snapshot and returns the error.
func (s *TaskStore) UpdateStatus(id uint, status models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev models.TaskStatus
	idx := s.indexOf(id)
	if idx != -1 {
		prev = s.tasks[idx].Status
		s.tasks[idx].Status = status
	}

	if _, err := s.api.UpdateTaskStatus(id, status); err != nil {
		if idx := s.indexOf(id); idx != -1 && prev != "" {
			s.tasks[idx].Status = prev
		}
		return err
	}

	return s.fetchLocked()
}

// BulkUpdateStatus applies status to every selected task
// optimistically. Success clears the selection and refetches; failure
// rolls every task back to its recorded prior status and keeps the
// selection.
func (s *TaskStore) BulkUpdateStatus(status models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.projectID == 0 || len(s.selected) == 0 {
		return ErrNoSelection
	}

	ids := s.selectedIDsLocked()
	prev := make(map[uint]models.TaskStatus, len(ids))
	for _, id := range ids {
		if idx := s.indexOf(id); idx != -1 {
			prev[id] = s.tasks[idx].Status
			s.tasks[idx].Status = status
		}
	}

	if _, err := s.api.BulkUpdateTaskStatus(s.projectID, ids, status); err != nil {
		for id, old := range prev {
			if idx := s.indexOf(id); idx != -1 {
				s.tasks[idx].Status = old
			}
		}
		return err
	}

	s.selected = map[uint]struct{}{}
	return s.fetchLocked()
}

// DeleteTask soft-deletes a task on the server, then refetches.
func (s *TaskStore) DeleteTask(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.api.DeleteTask(id); err != nil {
		return err
	}
	delete(s.selected, id)
	return s.fetchLocked()
}

// ToggleSelect flips a task in or out of the bulk-selection set.
func (s *TaskStore) ToggleSelect(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
	} else {
		s.selected[id] = struct{}{}
	}
}

// SelectAll selects every task on the current page.
func (s *TaskStore) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		s.selected[t.ID] = struct{}{}
	}
}

// ClearSelection empties the selection set.
func (s *TaskStore) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = map[uint]struct{}{}
}

// Clear resets the store to its initial state: default filters, no
// tasks, no selection, zero counts.
func (s *TaskStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = 0
	s.tasks = nil
	s.selected = map[uint]struct{}{}
	s.counts = api.TaskCounts{}
	s.totalItems = 0
	s.resetFilters()
}

func (s *TaskStore) indexOf(id uint) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskStore) selectedIDsLocked() []uint {
	ids := make([]uint, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Tasks returns a copy of the current page.
func (s *TaskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Counts returns the last fetched status counts.
func (s *TaskStore) Counts() api.TaskCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Loading reports whether a fetch is in flight.
func (s *TaskStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Page returns the current and last page numbers.
func (s *TaskStore) Page() (current, last int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentPage, s.totalPages
}

// Total returns the number of tasks matching the current filters.
func (s *TaskStore) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems
}

// Filters returns the current filter/sort specification.
func (s *TaskStore) Filters() (status models.TaskStatus, sortField, order, search string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusFilter, s.sortField, s.sortOrder, s.search
}

// SelectedIDs returns the selection as a sorted slice.
func (s *TaskStore) SelectedIDs() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIDsLocked()
}

// IsSelected reports whether a task is in the selection set.
func (s *TaskStore) IsSelected(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[id]
	return ok
}
