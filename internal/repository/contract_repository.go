package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// ContractQuery is the typed filter set for listing contracts.
type ContractQuery struct {
	CompanyID    *uuid.UUID
	ProjectID    *uuid.UUID
	Status       *model.ContractStatus
	Search       string
	Unrestricted bool
	CompanyIDs   []uuid.UUID
	Pagination
}

var contractSortColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"signedAt":  "signed_at",
	"createdAt": "created_at",
}

// ContractRepository defines contract persistence operations.
type ContractRepository interface {
	Create(ctx context.Context, contract *model.Contract) error
	Update(ctx context.Context, contract *model.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	List(ctx context.Context, q ContractQuery) ([]model.Contract, int64, error)
}

type contractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

func (r *contractRepository) Update(ctx context.Context, contract *model.Contract) error {
	return r.db.WithContext(ctx).Save(contract).Error
}

func (r *contractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Contract{}, "id = ?", id).Error
}

func (r *contractRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := r.db.WithContext(ctx).
		Preload("Company").Preload("Project").
		Where("id = ?", id).First(&contract).Error; err != nil {
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) List(ctx context.Context, q ContractQuery) ([]model.Contract, int64, error) {
	q.Pagination = q.Pagination.Normalize()

	db := r.db.WithContext(ctx).Model(&model.Contract{})
	if !q.Unrestricted {
		db = db.Where("company_id IN ?", uuidsOrNone(q.CompanyIDs))
	}
	if q.CompanyID != nil {
		db = db.Where("company_id = ?", *q.CompanyID)
	}
	if q.ProjectID != nil {
		db = db.Where("project_id = ?", *q.ProjectID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contracts []model.Contract
	db = applySort(db, q.Pagination, contractSortColumns, "created_at")
	if err := db.Preload("Company").Preload("Project").
		Offset(q.Offset()).Limit(q.Limit).Find(&contracts).Error; err != nil {
		return nil, 0, err
	}
	return contracts, total, nil
}
