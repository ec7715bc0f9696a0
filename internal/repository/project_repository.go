package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// ProjectQuery is the typed filter set for listing projects.
type ProjectQuery struct {
	CompanyID    *uuid.UUID
	Status       *model.ProjectStatus
	Search       string
	Unrestricted bool
	CompanyIDs   []uuid.UUID
	Pagination
}

var projectSortColumns = map[string]string{
	"name":      "name",
	"status":    "status",
	"startDate": "start_date",
	"endDate":   "end_date",
	"createdAt": "created_at",
}

// ProjectChildCounts reports child rows blocking deletion.
type ProjectChildCounts struct {
	Tasks     int64
	Contracts int64
	Invoices  int64
}

// Empty reports whether the project owns nothing.
func (c ProjectChildCounts) Empty() bool {
	return c.Tasks == 0 && c.Contracts == 0 && c.Invoices == 0
}

// ProjectRepository defines project persistence operations.
type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	Update(ctx context.Context, project *model.Project) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context, q ProjectQuery) ([]model.Project, int64, error)
	ChildCounts(ctx context.Context, id uuid.UUID) (ProjectChildCounts, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Save(project).Error
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Project{}, "id = ?", id).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).Preload("Company").
		Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, q ProjectQuery) ([]model.Project, int64, error) {
	q.Pagination = q.Pagination.Normalize()

	db := r.db.WithContext(ctx).Model(&model.Project{})
	if !q.Unrestricted {
		db = db.Where("company_id IN ?", uuidsOrNone(q.CompanyIDs))
	}
	if q.CompanyID != nil {
		db = db.Where("company_id = ?", *q.CompanyID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []model.Project
	db = applySort(db, q.Pagination, projectSortColumns, "created_at")
	if err := db.Preload("Company").
		Offset(q.Offset()).Limit(q.Limit).Find(&projects).Error; err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (r *projectRepository) ChildCounts(ctx context.Context, id uuid.UUID) (ProjectChildCounts, error) {
	var counts ProjectChildCounts
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ?", id).Count(&counts.Tasks).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("project_id = ?", id).Count(&counts.Contracts).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("project_id = ?", id).Count(&counts.Invoices).Error; err != nil {
		return counts, err
	}
	return counts, nil
}
