package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// NotificationService exposes a user's own notification feed. Every
// operation is implicitly scoped to the acting user; there is no way to
// read or mutate someone else's notifications.
type NotificationService interface {
	List(ctx context.Context, actor authz.Actor, q repository.NotificationQuery) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, actor authz.Actor) (int64, error)
	MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Notification, error)
	// MarkAllRead returns how many notifications were flipped.
	MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) List(ctx context.Context, actor authz.Actor, q repository.NotificationQuery) ([]model.Notification, int64, error) {
	q.UserID = actor.ID
	return s.notificationRepo.List(ctx, q)
}

func (s *notificationService) UnreadCount(ctx context.Context, actor authz.Actor) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, actor.ID)
}

func (s *notificationService) MarkRead(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Notification, error) {
	notification, err := s.notificationRepo.FindForUser(ctx, id, actor.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("notification not found")
		}
		return nil, fmt.Errorf("find notification: %w", err)
	}
	if notification.IsRead {
		return notification, nil
	}

	now := time.Now()
	if err := s.notificationRepo.MarkRead(ctx, id, now); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	notification.IsRead = true
	notification.ReadAt = &now
	return notification, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor authz.Actor) (int64, error) {
	count, err := s.notificationRepo.MarkAllRead(ctx, actor.ID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := s.notificationRepo.FindForUser(ctx, id, actor.ID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("notification not found")
		}
		return fmt.Errorf("find notification: %w", err)
	}
	if err := s.notificationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
