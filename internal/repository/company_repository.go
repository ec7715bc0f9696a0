package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// CompanyQuery is the typed filter set for listing companies. Scoped is set
// by the policy engine, never from client input: a nil slice with
// Unrestricted false yields an empty result.
type CompanyQuery struct {
	Search       string
	IsActive     *bool
	Unrestricted bool
	CompanyIDs   []uuid.UUID
	Pagination
}

var companySortColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"createdAt": "created_at",
}

// OwnedCounts reports how many child rows a company still owns. All three
// must be zero before the company may be deleted.
type OwnedCounts struct {
	Projects  int64
	Contracts int64
	Invoices  int64
}

// Empty reports whether the company owns nothing.
func (c OwnedCounts) Empty() bool {
	return c.Projects == 0 && c.Contracts == 0 && c.Invoices == 0
}

// CompanyRepository defines company persistence operations.
type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	Update(ctx context.Context, company *model.Company) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error)
	FindByName(ctx context.Context, name string) (*model.Company, error)
	FindByEmail(ctx context.Context, email string) (*model.Company, error)
	List(ctx context.Context, q CompanyQuery) ([]model.Company, int64, error)
	OwnedCounts(ctx context.Context, id uuid.UUID) (OwnedCounts, error)
}

type companyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &companyRepository{db: db}
}

func (r *companyRepository) Create(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Create(company).Error
}

func (r *companyRepository) Update(ctx context.Context, company *model.Company) error {
	return r.db.WithContext(ctx).Save(company).Error
}

func (r *companyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Company{}, "id = ?", id).Error
}

func (r *companyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByName(ctx context.Context, name string) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) FindByEmail(ctx context.Context, email string) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&company).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *companyRepository) List(ctx context.Context, q CompanyQuery) ([]model.Company, int64, error) {
	q.Pagination = q.Pagination.Normalize()

	db := r.db.WithContext(ctx).Model(&model.Company{})
	if !q.Unrestricted {
		db = db.Where("id IN ?", uuidsOrNone(q.CompanyIDs))
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("name LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if q.IsActive != nil {
		db = db.Where("is_active = ?", *q.IsActive)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var companies []model.Company
	db = applySort(db, q.Pagination, companySortColumns, "created_at")
	if err := db.Offset(q.Offset()).Limit(q.Limit).Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

func (r *companyRepository) OwnedCounts(ctx context.Context, id uuid.UUID) (OwnedCounts, error) {
	var counts OwnedCounts
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("company_id = ?", id).Count(&counts.Projects).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("company_id = ?", id).Count(&counts.Contracts).Error; err != nil {
		return counts, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("company_id = ?", id).Count(&counts.Invoices).Error; err != nil {
		return counts, err
	}
	return counts, nil
}

// uuidsOrNone substitutes an impossible id for an empty scope so that an
// "IN" clause never degenerates into matching everything.
func uuidsOrNone(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return []uuid.UUID{uuid.Nil}
	}
	return ids
}
