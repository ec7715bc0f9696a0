package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is the tenant boundary: every project, contract and invoice is
// owned by exactly one company.
type Company struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Phone     string    `json:"phone,omitempty" gorm:"size:50"`
	Website   string    `json:"website,omitempty" gorm:"size:255"`
	Address   string    `json:"address,omitempty" gorm:"size:512"`
	LogoURL   string    `json:"logo_url,omitempty" gorm:"size:512"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Members   []Membership `json:"members,omitempty" gorm:"foreignKey:CompanyID"`
	Projects  []Project    `json:"projects,omitempty" gorm:"foreignKey:CompanyID"`
	Contracts []Contract   `json:"contracts,omitempty" gorm:"foreignKey:CompanyID"`
	Invoices  []Invoice    `json:"invoices,omitempty" gorm:"foreignKey:CompanyID"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Company) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Membership links a user to a company. Absence of a row means no access
// unless the user is a global admin. The (company, user) pair is unique at
// the storage boundary.
type Membership struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:char(36);not null;uniqueIndex:idx_company_user"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);not null;uniqueIndex:idx_company_user;index"`
	Role      string    `json:"role" gorm:"size:50;default:'member'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Company Company `json:"-" gorm:"foreignKey:CompanyID"`
	User    User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName keeps the join table name from the relational schema.
func (Membership) TableName() string { return "company_users" }

// BeforeCreate sets UUID before creating the record.
func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
