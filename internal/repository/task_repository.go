package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// TaskQuery is the typed filter set for listing tasks.
type TaskQuery struct {
	ProjectID    *uuid.UUID
	Status       *model.TaskStatus
	Priority     *model.TaskPriority
	AssignedTo   *uuid.UUID
	Search       string
	Unrestricted bool
	CompanyIDs   []uuid.UUID
	Pagination
}

var taskSortColumns = map[string]string{
	"title":     "tasks.title",
	"status":    "tasks.status",
	"priority":  "tasks.priority",
	"dueDate":   "tasks.due_date",
	"createdAt": "tasks.created_at",
}

// TaskChildCounts reports child rows blocking deletion.
type TaskChildCounts struct {
	Subtasks    int64
	TimeEntries int64
	Comments    int64
}

// Empty reports whether the task owns nothing.
func (c TaskChildCounts) Empty() bool {
	return c.Subtasks == 0 && c.TimeEntries == 0 && c.Comments == 0
}

// TaskRepository defines task and comment persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	// FindByID loads the task with its project so callers can walk the
	// Task -> Project -> Company ownership chain in one read.
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, q TaskQuery) ([]model.Task, int64, error)
	ChildCounts(ctx context.Context, id uuid.UUID) (TaskChildCounts, error)

	CreateComment(ctx context.Context, comment *model.Comment) error
	ListComments(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error)
	// DistinctCommenters returns the ids of users who commented on the task,
	// excluding the given user.
	DistinctCommenters(ctx context.Context, taskID, exclude uuid.UUID) ([]uuid.UUID, error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Preload("Project").Preload("Assignee").
		Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, q TaskQuery) ([]model.Task, int64, error) {
	q.Pagination = q.Pagination.Normalize()

	db := r.db.WithContext(ctx).Model(&model.Task{})
	if !q.Unrestricted {
		db = db.Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("projects.company_id IN ?", uuidsOrNone(q.CompanyIDs))
	}
	if q.ProjectID != nil {
		db = db.Where("tasks.project_id = ?", *q.ProjectID)
	}
	if q.Status != nil {
		db = db.Where("tasks.status = ?", *q.Status)
	}
	if q.Priority != nil {
		db = db.Where("tasks.priority = ?", *q.Priority)
	}
	if q.AssignedTo != nil {
		db = db.Where("tasks.assigned_to = ?", *q.AssignedTo)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("tasks.title LIKE ? OR tasks.description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.Task
	db = applySort(db, q.Pagination, taskSortColumns, "tasks.created_at")
	if err := db.Preload("Project").Preload("Assignee").
		Offset(q.Offset()).Limit(q.Limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) ChildCounts(ctx context.Context, id uuid.UUID) (TaskChildCounts, error) {
	var counts TaskChildCounts
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("parent_task_id = ?", id).Count(&counts.Subtasks).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&model.TimeEntry{}).
		Where("task_id = ?", id).Count(&counts.TimeEntries).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("task_id = ?", id).Count(&counts.Comments).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

func (r *taskRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *taskRepository) ListComments(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error) {
	var comments []model.Comment
	if err := r.db.WithContext(ctx).Preload("User").
		Where("task_id = ?", taskID).
		Order("created_at asc").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *taskRepository) DistinctCommenters(ctx context.Context, taskID, exclude uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("task_id = ? AND user_id <> ?", taskID, exclude).
		Distinct().
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
