package store

import (
	"sync"

	"github.com/balkashynov/taskdeck/internal/api"
	"github.com/balkashynov/taskdeck/internal/models"
)

// ProjectAPI is the slice of the API client the project store needs.
type ProjectAPI interface {
	ListProjects(status models.ProjectStatus) ([]models.Project, error)
	GetProject(id uint) (*models.Project, error)
	CreateProject(payload api.CreateProjectPayload) (*models.Project, error)
	UpdateProject(id uint, payload api.UpdateProjectPayload) (*models.Project, error)
	DeleteProject(id uint) error
	ArchiveProject(id uint) (*models.Project, error)
	UnarchiveProject(id uint) (*models.Project, error)
}

// ProjectStore mirrors the server's project list plus the currently
// opened project.
type ProjectStore struct {
	mu  sync.Mutex
	api ProjectAPI

	projects     []models.Project
	current      *models.Project
	loading      bool
	statusFilter models.ProjectStatus
}

// NewProjectStore creates an empty project store.
func NewProjectStore(a ProjectAPI) *ProjectStore {
	return &ProjectStore{api: a}
}

// Fetch loads the project list with the current status filter.
func (s *ProjectStore) Fetch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchLocked()
}

func (s *ProjectStore) fetchLocked() error {
	s.loading = true
	defer func() { s.loading = false }()

	projects, err := s.api.ListProjects(s.statusFilter)
	if err != nil {
		return err
	}
	s.projects = projects
	return nil
}

// SetStatusFilter changes the filter and refetches.
func (s *ProjectStore) SetStatusFilter(status models.ProjectStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusFilter = status
	return s.fetchLocked()
}

// FetchProject loads one project as the current one.
func (s *ProjectStore) FetchProject(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loading = true
	defer func() { s.loading = false }()

	project, err := s.api.GetProject(id)
	if err != nil {
		return err
	}
	s.current = project
	return nil
}

// Create creates a project and prepends it to the local list.
func (s *ProjectStore) Create(payload api.CreateProjectPayload) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.api.CreateProject(payload)
	if err != nil {
		return nil, err
	}
	s.projects = append([]models.Project{*project}, s.projects...)
	return project, nil
}

// Update patches a project in place.
func (s *ProjectStore) Update(id uint, payload api.UpdateProjectPayload) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := s.api.UpdateProject(id, payload)
	if err != nil {
		return nil, err
	}
	if idx := s.indexOf(id); idx != -1 {
		s.projects[idx] = *project
	}
	if s.current != nil && s.current.ID == id {
		s.current = project
	}
	return project, nil
}

// Archive archives a project. If the updated row no longer matches an
// active status filter it drops out of the list immediately.
func (s *ProjectStore) Archive(id uint) error {
	return s.setStatus(id, func(pid uint) (*models.Project, error) { return s.api.ArchiveProject(pid) })
}

// Unarchive restores a project to active, with the same
// filter-mismatch behavior as Archive.
func (s *ProjectStore) Unarchive(id uint) error {
	return s.setStatus(id, func(pid uint) (*models.Project, error) { return s.api.UnarchiveProject(pid) })
}

func (s *ProjectStore) setStatus(id uint, call func(uint) (*models.Project, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	project, err := call(id)
	if err != nil {
		return err
	}

	idx := s.indexOf(id)
	if idx == -1 {
		return nil
	}
	if s.statusFilter != "" && project.Status != s.statusFilter {
		s.projects = append(s.projects[:idx], s.projects[idx+1:]...)
	} else {
		s.projects[idx] = *project
	}
	return nil
}

// Delete removes a project on the server and locally.
func (s *ProjectStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.api.DeleteProject(id); err != nil {
		return err
	}
	if idx := s.indexOf(id); idx != -1 {
		s.projects = append(s.projects[:idx], s.projects[idx+1:]...)
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return nil
}

// ClearCurrent drops the currently opened project.
func (s *ProjectStore) ClearCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *ProjectStore) indexOf(id uint) int {
	for i := range s.projects {
		if s.projects[i].ID == id {
			return i
		}
	}
	return -1
}

// Projects returns a copy of the project list.
func (s *ProjectStore) Projects() []models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// Current returns the currently opened project, or nil.
func (s *ProjectStore) Current() *models.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loading reports whether a fetch is in flight.
func (s *ProjectStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// StatusFilter returns the active project status filter.
func (s *ProjectStore) StatusFilter() models.ProjectStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusFilter
}
