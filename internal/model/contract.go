package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractStatus represents the lifecycle stage of a contract.
type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "DRAFT"
	ContractStatusSent      ContractStatus = "SENT"
	ContractStatusSigned    ContractStatus = "SIGNED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

// Valid reports whether s is a known contract status.
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusDraft, ContractStatusSent, ContractStatusSigned, ContractStatusCancelled:
		return true
	}
	return false
}

// Contract belongs to a company and optionally references one of its
// projects. SignedAt is set exactly on the transition into SIGNED.
type Contract struct {
	ID             uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID      uuid.UUID        `json:"company_id" gorm:"type:char(36);not null;index"`
	ProjectID      *uuid.UUID       `json:"project_id,omitempty" gorm:"type:char(36);index"`
	Title          string           `json:"title" gorm:"size:255;not null"`
	Description    string           `json:"description,omitempty" gorm:"type:text"`
	Status         ContractStatus   `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	TotalValue     *decimal.Decimal `json:"total_value,omitempty" gorm:"type:decimal(20,2)"`
	StartDate      *time.Time       `json:"start_date,omitempty"`
	EndDate        *time.Time       `json:"end_date,omitempty"`
	SignedByClient string           `json:"signed_by_client,omitempty" gorm:"size:255"`
	SignedAt       *time.Time       `json:"signed_at,omitempty"`
	CreatedBy      uuid.UUID        `json:"created_by" gorm:"type:char(36);not null"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	// Relations
	Company Company  `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Project *Project `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
