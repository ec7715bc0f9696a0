package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TimeEntry is a block of logged work. A nil EndTime marks a running timer;
// at most one entry per user may be open at any moment. HourlyRate is a
// snapshot captured from the task's project at creation and never recomputed.
type TimeEntry struct {
	ID              uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	TaskID          uuid.UUID        `json:"task_id" gorm:"type:char(36);not null;index"`
	UserID          uuid.UUID        `json:"user_id" gorm:"type:char(36);not null;index"`
	Description     string           `json:"description,omitempty" gorm:"type:text"`
	StartTime       time.Time        `json:"start_time" gorm:"not null;index"`
	EndTime         *time.Time       `json:"end_time,omitempty"`
	DurationMinutes int              `json:"duration_minutes" gorm:"not null;default:0"`
	IsBillable      bool             `json:"is_billable" gorm:"default:true;index"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty" gorm:"type:decimal(20,2)"`
	IsApproved      bool             `json:"is_approved" gorm:"default:false;index"`
	ApprovedBy      *uuid.UUID       `json:"approved_by,omitempty" gorm:"type:char(36)"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`

	// Relations
	Task     Task  `json:"task,omitempty" gorm:"foreignKey:TaskID"`
	User     User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Approver *User `json:"approver,omitempty" gorm:"foreignKey:ApprovedBy"`
}

// BeforeCreate sets UUID before creating the record.
func (e *TimeEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Running reports whether the entry is an open timer.
func (e *TimeEntry) Running() bool {
	return e.EndTime == nil
}
