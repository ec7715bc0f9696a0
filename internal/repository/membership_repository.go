package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// MembershipRepository is the tenant membership registry. It also backs the
// policy engine's MembershipSource.
type MembershipRepository interface {
	Create(ctx context.Context, membership *model.Membership) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByPair(ctx context.Context, companyID, userID uuid.UUID) (*model.Membership, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error)
	// ListStaffByCompany returns memberships whose users hold the ADMIN or
	// EMPLOYEE global role.
	ListStaffByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error)
	// ListClientsByCompany returns memberships whose users hold the CLIENT
	// global role.
	ListClientsByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error)

	// MembershipSource for the policy engine.
	IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error)
	CompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Create(ctx context.Context, membership *model.Membership) error {
	return r.db.WithContext(ctx).Create(membership).Error
}

func (r *membershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Membership{}, "id = ?", id).Error
}

func (r *membershipRepository) FindByPair(ctx context.Context, companyID, userID uuid.UUID) (*model.Membership, error) {
	var membership model.Membership
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&membership).Error; err != nil {
		return nil, err
	}
	return &membership, nil
}

func (r *membershipRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	var memberships []model.Membership
	if err := r.db.WithContext(ctx).Preload("User").
		Where("company_id = ?", companyID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *membershipRepository) ListStaffByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	return r.listByCompanyAndRoles(ctx, companyID, []model.UserRole{model.RoleAdmin, model.RoleEmployee})
}

func (r *membershipRepository) ListClientsByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	return r.listByCompanyAndRoles(ctx, companyID, []model.UserRole{model.RoleClient})
}

func (r *membershipRepository) listByCompanyAndRoles(ctx context.Context, companyID uuid.UUID, roles []model.UserRole) ([]model.Membership, error) {
	var memberships []model.Membership
	if err := r.db.WithContext(ctx).Preload("User").
		Joins("JOIN users ON users.id = company_users.user_id").
		Where("company_users.company_id = ? AND users.role IN ?", companyID, roles).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *membershipRepository) IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *membershipRepository) CompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("user_id = ?", userID).
		Pluck("company_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
