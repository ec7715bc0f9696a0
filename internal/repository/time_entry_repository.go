package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// TimeEntryQuery is the typed filter set for listing time entries.
type TimeEntryQuery struct {
	UserID       *uuid.UUID
	TaskID       *uuid.UUID
	ProjectID    *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
	IsBillable   *bool
	IsApproved   *bool
	Unrestricted bool
	CompanyIDs   []uuid.UUID
	Pagination
}

var timeEntrySortColumns = map[string]string{
	"startTime": "time_entries.start_time",
	"endTime":   "time_entries.end_time",
	"duration":  "time_entries.duration_minutes",
	"createdAt": "time_entries.created_at",
}

// TimeEntryRepository defines time entry persistence operations. The
// overlap and open-timer checks run inside transactions with row locks so
// two concurrent requests cannot both pass the same guard.
type TimeEntryRepository interface {
	Create(ctx context.Context, entry *model.TimeEntry) error
	Update(ctx context.Context, entry *model.TimeEntry) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByID loads the entry with its task and the task's project so the
	// ownership chain is available to the policy engine.
	FindByID(ctx context.Context, id uuid.UUID) (*model.TimeEntry, error)
	List(ctx context.Context, q TimeEntryQuery) ([]model.TimeEntry, int64, error)
	// FindOverlapping returns an entry of the user whose closed interval
	// overlaps [start, end]: the new interval contains the existing start,
	// contains the existing end, or the existing interval contains the new
	// one. exclude skips the entry being updated.
	FindOverlapping(ctx context.Context, userID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*model.TimeEntry, error)
	// FindRunning returns the user's open timer, if any.
	FindRunning(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error)
	// WithTransaction runs fn against a transactional repository so
	// check-and-insert sequences commit or fail as one unit.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TimeEntryRepository) error) error
	// FindRunningForUpdate is FindRunning with a row lock; only meaningful
	// inside WithTransaction.
	FindRunningForUpdate(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error)
}

type timeEntryRepository struct {
	db *gorm.DB
}

// NewTimeEntryRepository creates a new time entry repository.
func NewTimeEntryRepository(db *gorm.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

func (r *timeEntryRepository) Create(ctx context.Context, entry *model.TimeEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *timeEntryRepository) Update(ctx context.Context, entry *model.TimeEntry) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *timeEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TimeEntry{}, "id = ?", id).Error
}

func (r *timeEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	if err := r.db.WithContext(ctx).
		Preload("Task").Preload("Task.Project").Preload("User").
		Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timeEntryRepository) List(ctx context.Context, q TimeEntryQuery) ([]model.TimeEntry, int64, error) {
	q.Pagination = q.Pagination.Normalize()

	db := r.db.WithContext(ctx).Model(&model.TimeEntry{})
	needsJoin := !q.Unrestricted || q.ProjectID != nil
	if needsJoin {
		db = db.Joins("JOIN tasks ON tasks.id = time_entries.task_id").
			Joins("JOIN projects ON projects.id = tasks.project_id")
	}
	if !q.Unrestricted {
		db = db.Where("projects.company_id IN ?", uuidsOrNone(q.CompanyIDs))
	}
	if q.ProjectID != nil {
		db = db.Where("tasks.project_id = ?", *q.ProjectID)
	}
	if q.UserID != nil {
		db = db.Where("time_entries.user_id = ?", *q.UserID)
	}
	if q.TaskID != nil {
		db = db.Where("time_entries.task_id = ?", *q.TaskID)
	}
	if q.StartDate != nil {
		db = db.Where("time_entries.start_time >= ?", *q.StartDate)
	}
	if q.EndDate != nil {
		db = db.Where("time_entries.start_time <= ?", *q.EndDate)
	}
	if q.IsBillable != nil {
		db = db.Where("time_entries.is_billable = ?", *q.IsBillable)
	}
	if q.IsApproved != nil {
		db = db.Where("time_entries.is_approved = ?", *q.IsApproved)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []model.TimeEntry
	db = applySort(db, q.Pagination, timeEntrySortColumns, "time_entries.start_time")
	if err := db.Preload("Task").Preload("Task.Project").Preload("User").
		Offset(q.Offset()).Limit(q.Limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (r *timeEntryRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*model.TimeEntry, error) {
	db := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if exclude != nil {
		db = db.Where("id <> ?", *exclude)
	}
	db = db.Where(
		"(start_time <= ? AND end_time >= ?) OR (start_time <= ? AND end_time >= ?) OR (start_time >= ? AND end_time <= ?)",
		start, start, end, end, start, end,
	)

	var entry model.TimeEntry
	if err := db.First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timeEntryRepository) FindRunning(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	if err := r.db.WithContext(ctx).
		Preload("Task").Preload("Task.Project").
		Where("user_id = ? AND end_time IS NULL", userID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *timeEntryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo TimeEntryRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &timeEntryRepository{db: tx})
	})
}

func (r *timeEntryRepository) FindRunningForUpdate(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error) {
	var entry model.TimeEntry
	if err := r.db.WithContext(ctx).Set("gorm:query_option", "FOR UPDATE").
		Where("user_id = ? AND end_time IS NULL", userID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
