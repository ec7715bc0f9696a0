package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification types used by the dispatcher.
const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeTask    = "task"
	NotificationTypeComment = "comment"
	NotificationTypeInvoice = "invoice"
)

// Notification is created exclusively as a side effect of other entities'
// transitions, never directly by an end user.
type Notification struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	UserID      uuid.UUID  `json:"user_id" gorm:"type:char(36);not null;index"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Message     string     `json:"message" gorm:"type:text;not null"`
	Type        string     `json:"type" gorm:"size:50;not null;default:'info'"`
	RelatedID   *uuid.UUID `json:"related_id,omitempty" gorm:"type:char(36)"`
	RelatedType string     `json:"related_type,omitempty" gorm:"size:50"`
	IsRead      bool       `json:"is_read" gorm:"default:false;index"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
