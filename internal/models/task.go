package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// TaskPriority is the urgency of a task. Ordering is by severity
// rank (low < medium < high), not lexical.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is one of the known priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank returns the severity rank used for sorting.
func (p TaskPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Task is a unit of work inside a project. Deletion is a soft delete:
// the tombstone hides the row from every query path but keeps it in
// the table.
type Task struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProjectID uint         `gorm:"not null;index" json:"project_id"`
	Title     string       `gorm:"size:120;not null" json:"title"`
	Details   string       `json:"details"`
	Priority  TaskPriority `gorm:"size:10;default:medium;index" json:"priority"`
	Status    TaskStatus   `gorm:"size:20;default:todo;index" json:"status"`
	DueDate   *Date        `gorm:"index" json:"due_date"`
}
