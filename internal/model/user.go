package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRole is the global role of a user.
type UserRole string

const (
	RoleAdmin      UserRole = "ADMIN"
	RoleEmployee   UserRole = "EMPLOYEE"
	RoleFreelancer UserRole = "FREELANCER"
	RoleClient     UserRole = "CLIENT"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleFreelancer, RoleClient:
		return true
	}
	return false
}

// User represents an authenticated user in the system.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	FirstName    string    `json:"first_name" gorm:"size:100;not null"`
	LastName     string    `json:"last_name" gorm:"size:100;not null"`
	Role         UserRole  `json:"role" gorm:"type:varchar(20);not null;default:'EMPLOYEE';index"`
	AvatarURL    string    `json:"avatar_url,omitempty" gorm:"size:512"`
	Phone        string    `json:"phone,omitempty" gorm:"size:50"`
	IsActive     bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	Memberships []Membership `json:"memberships,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// FullName returns the display name used in notification messages.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
