package models

import (
	"time"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// Valid reports whether s is one of the known project statuses.
func (s ProjectStatus) Valid() bool {
	return s == ProjectActive || s == ProjectArchived
}

// Project is a container for tasks. Deleting a project hard-deletes
// every task it owns, tombstoned ones included.
type Project struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string        `gorm:"size:120;not null" json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `gorm:"size:20;default:active;index" json:"status"`

	// TasksCount is filled by list/get queries, never stored.
	TasksCount int64 `gorm:"->;-:migration" json:"tasks_count"`

	Tasks []Task `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
