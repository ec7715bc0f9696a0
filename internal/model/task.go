package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview,
		TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

// TaskPriority orders tasks for triage.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// Task belongs to a project. Subtasks reference a parent task in the same
// project; the parent must already exist, so the tree cannot contain cycles.
// CompletedAt is set exactly while Status is COMPLETED.
type Task struct {
	ID             uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	ProjectID      uuid.UUID        `json:"project_id" gorm:"type:char(36);not null;index"`
	Title          string           `json:"title" gorm:"size:255;not null"`
	Description    string           `json:"description,omitempty" gorm:"type:text"`
	Status         TaskStatus       `json:"status" gorm:"type:varchar(20);not null;default:'TODO';index"`
	Priority       TaskPriority     `json:"priority" gorm:"type:varchar(20);not null;default:'MEDIUM';index"`
	AssignedTo     *uuid.UUID       `json:"assigned_to,omitempty" gorm:"type:char(36);index"`
	ParentTaskID   *uuid.UUID       `json:"parent_task_id,omitempty" gorm:"type:char(36);index"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours,omitempty" gorm:"type:decimal(10,2)"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	CreatedBy      uuid.UUID        `json:"created_by" gorm:"type:char(36);not null"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Relations
	Project     Project     `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Assignee    *User       `json:"assignee,omitempty" gorm:"foreignKey:AssignedTo"`
	ParentTask  *Task       `json:"parent_task,omitempty" gorm:"foreignKey:ParentTaskID"`
	Subtasks    []Task      `json:"subtasks,omitempty" gorm:"foreignKey:ParentTaskID"`
	TimeEntries []TimeEntry `json:"time_entries,omitempty" gorm:"foreignKey:TaskID"`
	Comments    []Comment   `json:"comments,omitempty" gorm:"foreignKey:TaskID"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Comment is an append-only note on a task.
type Comment struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:char(36);not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task Task `json:"-" gorm:"foreignKey:TaskID"`
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
