package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle stage of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice belongs to a company and optionally references one of its
// projects. The monetary identity TotalAmount = Subtotal + TaxAmount is
// re-established on every write that touches items or the tax rate.
// PaidAt is set exactly on the transition into PAID.
type Invoice struct {
	ID            uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID     uuid.UUID       `json:"company_id" gorm:"type:char(36);not null;index"`
	ProjectID     *uuid.UUID      `json:"project_id,omitempty" gorm:"type:char(36);index"`
	InvoiceNumber string          `json:"invoice_number" gorm:"uniqueIndex;size:100;not null"`
	Description   string          `json:"description,omitempty" gorm:"type:text"`
	Status        InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:decimal(20,2);not null;default:0"`
	TaxRate       decimal.Decimal `json:"tax_rate" gorm:"type:decimal(10,2);not null;default:0"`
	TaxAmount     decimal.Decimal `json:"tax_amount" gorm:"type:decimal(20,2);not null;default:0"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(20,2);not null;default:0"`
	DueDate       time.Time       `json:"due_date" gorm:"not null;index"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	CreatedBy     uuid.UUID       `json:"created_by" gorm:"type:char(36);not null"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	// Relations
	Company Company       `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Project *Project      `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
	Items   []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID"`
}

// BeforeCreate sets UUID before creating the record.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// InvoiceItem is one line on an invoice. TotalPrice = Quantity * UnitPrice.
type InvoiceItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	InvoiceID   uuid.UUID       `json:"invoice_id" gorm:"type:char(36);not null;index"`
	Description string          `json:"description" gorm:"size:512;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(20,2);not null"`
	TotalPrice  decimal.Decimal `json:"total_price" gorm:"type:decimal(20,2);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (i *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
