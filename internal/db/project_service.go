package db

import (
	"gorm.io/gorm"

	"github.com/balkashynov/taskdeck/internal/models"
)

// tasksCountSelect annotates project rows with the number of live
// (non-tombstoned) tasks they own.
const tasksCountSelect = "projects.*, " +
	"(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id AND tasks.deleted_at IS NULL) AS tasks_count"

// CreateProjectRequest holds the data needed to create a new project
type CreateProjectRequest struct {
	Name        string
	Description string
}

// UpdateProjectRequest holds a partial project update. Nil fields are
// left untouched.
type UpdateProjectRequest struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
}

// CreateProject creates a project. Status always starts out active;
// archiving is a separate action.
func CreateProject(req CreateProjectRequest) (*models.Project, error) {
	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.ProjectActive,
	}

	if err := DB.Create(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// GetProject fetches one project with its live task count.
// Returns gorm.ErrRecordNotFound if the id does not exist.
func GetProject(id uint) (*models.Project, error) {
	var project models.Project
	err := DB.Model(&models.Project{}).
		Select(tasksCountSelect).
		Where("projects.id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns all projects, newest first. An invalid or empty
// status filter returns everything.
func ListProjects(status models.ProjectStatus) ([]models.Project, error) {
	query := DB.Model(&models.Project{}).Select(tasksCountSelect)

	if status.Valid() {
		query = query.Where("projects.status = ?", status)
	}

	var projects []models.Project
	if err := query.Order("projects.created_at DESC").Order("projects.id DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	return projects, nil
}

// UpdateProject applies a partial update and returns the fresh row.
func UpdateProject(id uint, req UpdateProjectRequest) (*models.Project, error) {
	project, err := GetProject(id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) > 0 {
		if err := DB.Model(project).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	return GetProject(id)
}

// SetProjectStatus performs the archive/unarchive transition. It never
// touches the project's tasks.
func SetProjectStatus(id uint, status models.ProjectStatus) (*models.Project, error) {
	project, err := GetProject(id)
	if err != nil {
		return nil, err
	}

	if err := DB.Model(project).Update("status", status).Error; err != nil {
		return nil, err
	}

	return GetProject(id)
}

// DeleteProject hard-deletes a project and every task it owns,
// tombstoned tasks included.
func DeleteProject(id uint) error {
	if _, err := GetProject(id); err != nil {
		return err
	}

	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}
