package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProjectStatus represents the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "PLANNING"
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusOnHold    ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusCancelled ProjectStatus = "CANCELLED"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Project belongs to a company and owns tasks, and optionally contracts and
// invoices reference it.
type Project struct {
	ID          uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID   uuid.UUID        `json:"company_id" gorm:"type:char(36);not null;index"`
	Name        string           `json:"name" gorm:"size:255;not null;index"`
	Description string           `json:"description,omitempty" gorm:"type:text"`
	Status      ProjectStatus    `json:"status" gorm:"type:varchar(20);not null;default:'PLANNING';index"`
	StartDate   *time.Time       `json:"start_date,omitempty"`
	EndDate     *time.Time       `json:"end_date,omitempty"`
	Budget      *decimal.Decimal `json:"budget,omitempty" gorm:"type:decimal(20,2)"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate,omitempty" gorm:"type:decimal(20,2)"`
	CreatedBy   uuid.UUID        `json:"created_by" gorm:"type:char(36);not null"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// Relations
	Company Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Tasks   []Task  `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
