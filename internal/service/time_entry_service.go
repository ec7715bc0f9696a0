package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// TimeEntryUpdate carries the mutable time entry fields; nil means
// unchanged.
type TimeEntryUpdate struct {
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	IsBillable  *bool
}

// TimeEntryService manages logged work: manual entries, the single live
// timer per user, and the approval workflow.
type TimeEntryService interface {
	List(ctx context.Context, actor authz.Actor, q repository.TimeEntryQuery) ([]model.TimeEntry, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.TimeEntry, error)
	Create(ctx context.Context, actor authz.Actor, entry *model.TimeEntry) error
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update TimeEntryUpdate) (*model.TimeEntry, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	SetApproved(ctx context.Context, actor authz.Actor, id uuid.UUID, approved bool) (*model.TimeEntry, error)
	StartTimer(ctx context.Context, actor authz.Actor, taskID uuid.UUID, description string) (*model.TimeEntry, error)
	StopTimer(ctx context.Context, actor authz.Actor) (*model.TimeEntry, error)
	ActiveTimer(ctx context.Context, actor authz.Actor) (*model.TimeEntry, error)
}

type timeEntryService struct {
	entryRepo repository.TimeEntryRepository
	taskRepo  repository.TaskRepository
	engine    *authz.Engine

	// timerLocks serializes StartTimer per user so two concurrent starts
	// cannot both observe no running timer. The row lock inside the
	// transaction closes the cross-process race; this closes the
	// in-process one without touching the database.
	timerLocks sync.Map
}

// NewTimeEntryService creates a new time entry service.
func NewTimeEntryService(
	entryRepo repository.TimeEntryRepository,
	taskRepo repository.TaskRepository,
	engine *authz.Engine,
) TimeEntryService {
	return &timeEntryService{
		entryRepo: entryRepo,
		taskRepo:  taskRepo,
		engine:    engine,
	}
}

func (s *timeEntryService) userLock(userID uuid.UUID) *sync.Mutex {
	lock, _ := s.timerLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// durationMinutes is the interval length rounded to the nearest minute.
func durationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

func (s *timeEntryService) List(ctx context.Context, actor authz.Actor, q repository.TimeEntryQuery) ([]model.TimeEntry, int64, error) {
	scope, err := s.engine.ScopeCompanies(ctx, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve scope: %w", err)
	}
	q.Unrestricted = scope.Unrestricted
	q.CompanyIDs = scope.CompanyIDs
	return s.entryRepo.List(ctx, q)
}

func (s *timeEntryService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.TimeEntry, error) {
	entry, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("time entry not found")
		}
		return nil, fmt.Errorf("find time entry: %w", err)
	}
	decision, err := s.engine.CanManageTimeEntry(ctx, actor, entry.UserID, entry.Task.Project.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryService) Create(ctx context.Context, actor authz.Actor, entry *model.TimeEntry) error {
	task, err := s.taskRepo.FindByID(ctx, entry.TaskID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("task not found")
		}
		return fmt.Errorf("find task: %w", err)
	}
	if entry.UserID == uuid.Nil {
		entry.UserID = actor.ID
	}
	decision, err := s.engine.CanManageTimeEntry(ctx, actor, entry.UserID, task.Project.CompanyID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return err
	}

	if entry.EndTime == nil {
		return errors.ValidationField("end_time", "end time is required for a manual entry")
	}
	if !entry.EndTime.After(entry.StartTime) {
		return errors.ValidationField("end_time", "end time must be after start time")
	}
	entry.DurationMinutes = durationMinutes(entry.StartTime, *entry.EndTime)
	if entry.DurationMinutes <= 0 {
		return errors.ValidationField("end_time", "entry duration must be positive")
	}
	entry.HourlyRate = task.Project.HourlyRate

	// Check and insert as one unit so concurrent writes cannot both pass
	// the overlap guard.
	return s.entryRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.TimeEntryRepository) error {
		overlapping, err := repo.FindOverlapping(ctx, entry.UserID, entry.StartTime, *entry.EndTime, nil)
		if err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check overlap: %w", err)
		}
		if overlapping != nil {
			return errors.Conflict("time entry overlaps an existing entry")
		}
		if err := repo.Create(ctx, entry); err != nil {
			return fmt.Errorf("create time entry: %w", err)
		}
		return nil
	})
}

func (s *timeEntryService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update TimeEntryUpdate) (*model.TimeEntry, error) {
	entry, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if entry.IsApproved && !actor.IsAdmin() {
		return nil, errors.Forbidden("approved time entries cannot be modified")
	}

	if update.Description != nil {
		entry.Description = *update.Description
	}
	if update.IsBillable != nil {
		entry.IsBillable = *update.IsBillable
	}
	if update.StartTime != nil {
		entry.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		entry.EndTime = update.EndTime
	}

	if entry.EndTime != nil {
		if !entry.EndTime.After(entry.StartTime) {
			return nil, errors.ValidationField("end_time", "end time must be after start time")
		}
		entry.DurationMinutes = durationMinutes(entry.StartTime, *entry.EndTime)
		if entry.DurationMinutes <= 0 {
			return nil, errors.ValidationField("end_time", "entry duration must be positive")
		}
	}

	err = s.entryRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.TimeEntryRepository) error {
		if entry.EndTime != nil {
			overlapping, err := repo.FindOverlapping(ctx, entry.UserID, entry.StartTime, *entry.EndTime, &entry.ID)
			if err != nil && err != gorm.ErrRecordNotFound {
				return fmt.Errorf("check overlap: %w", err)
			}
			if overlapping != nil {
				return errors.Conflict("time entry overlaps an existing entry")
			}
		}
		if err := repo.Update(ctx, entry); err != nil {
			return fmt.Errorf("update time entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	entry, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if entry.IsApproved && !actor.IsAdmin() {
		return errors.Forbidden("approved time entries cannot be modified")
	}
	if err := s.entryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	return nil
}

func (s *timeEntryService) SetApproved(ctx context.Context, actor authz.Actor, id uuid.UUID, approved bool) (*model.TimeEntry, error) {
	entry, err := s.entryRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("time entry not found")
		}
		return nil, fmt.Errorf("find time entry: %w", err)
	}
	decision, err := s.engine.CanApproveTimeEntry(ctx, actor, entry.Task.Project.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	if entry.Running() {
		return nil, errors.Conflict("cannot approve a running timer")
	}

	if approved {
		now := time.Now()
		approver := actor.ID
		entry.IsApproved = true
		entry.ApprovedBy = &approver
		entry.ApprovedAt = &now
	} else {
		entry.IsApproved = false
		entry.ApprovedBy = nil
		entry.ApprovedAt = nil
	}
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update time entry: %w", err)
	}
	return entry, nil
}

func (s *timeEntryService) StartTimer(ctx context.Context, actor authz.Actor, taskID uuid.UUID, description string) (*model.TimeEntry, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("task not found")
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	decision, err := s.engine.CanManageTimeEntry(ctx, actor, actor.ID, task.Project.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}

	lock := s.userLock(actor.ID)
	lock.Lock()
	defer lock.Unlock()

	entry := &model.TimeEntry{
		TaskID:      taskID,
		UserID:      actor.ID,
		Description: description,
		StartTime:   time.Now(),
		IsBillable:  true,
		HourlyRate:  task.Project.HourlyRate,
	}
	err = s.entryRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.TimeEntryRepository) error {
		running, err := repo.FindRunningForUpdate(ctx, actor.ID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return fmt.Errorf("check running timer: %w", err)
		}
		if running != nil {
			return errors.Conflict("timer already running")
		}
		if err := repo.Create(ctx, entry); err != nil {
			return fmt.Errorf("create time entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *timeEntryService) StopTimer(ctx context.Context, actor authz.Actor) (*model.TimeEntry, error) {
	lock := s.userLock(actor.ID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := s.entryRepo.FindRunning(ctx, actor.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("no running timer")
		}
		return nil, fmt.Errorf("find running timer: %w", err)
	}

	now := time.Now()
	entry.EndTime = &now
	entry.DurationMinutes = durationMinutes(entry.StartTime, now)
	if err := s.entryRepo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update time entry: %w", err)
	}
	return entry, nil
}

func (s *timeEntryService) ActiveTimer(ctx context.Context, actor authz.Actor) (*model.TimeEntry, error) {
	entry, err := s.entryRepo.FindRunning(ctx, actor.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("no running timer")
		}
		return nil, fmt.Errorf("find running timer: %w", err)
	}
	return entry, nil
}
