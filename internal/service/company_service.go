package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// CompanyUpdate carries the mutable company fields; nil means unchanged.
type CompanyUpdate struct {
	Name     *string
	Email    *string
	Phone    *string
	Website  *string
	Address  *string
	LogoURL  *string
	IsActive *bool
}

// CompanyStats is the derived snapshot for one company.
type CompanyStats struct {
	TotalProjects         int64 `json:"total_projects"`
	CompletedProjects     int64 `json:"completed_projects"`
	TotalTasks            int64 `json:"total_tasks"`
	CompletedTasks        int64 `json:"completed_tasks"`
	ProjectCompletionRate int   `json:"project_completion_rate"`
	TaskCompletionRate    int   `json:"task_completion_rate"`
}

// CompanyService manages companies and their memberships.
type CompanyService interface {
	List(ctx context.Context, actor authz.Actor, q repository.CompanyQuery) ([]model.Company, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Company, error)
	Create(ctx context.Context, actor authz.Actor, company *model.Company) error
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update CompanyUpdate) (*model.Company, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	AddMember(ctx context.Context, actor authz.Actor, companyID, userID uuid.UUID, role string) (*model.Membership, error)
	RemoveMember(ctx context.Context, actor authz.Actor, companyID, userID uuid.UUID) error
	ListMembers(ctx context.Context, actor authz.Actor, companyID uuid.UUID) ([]model.Membership, error)
	Stats(ctx context.Context, actor authz.Actor, id uuid.UUID) (*CompanyStats, error)
}

type companyService struct {
	companyRepo    repository.CompanyRepository
	membershipRepo repository.MembershipRepository
	userRepo       repository.UserRepository
	reportRepo     repository.ReportRepository
	engine         *authz.Engine
}

// NewCompanyService creates a new company service.
func NewCompanyService(
	companyRepo repository.CompanyRepository,
	membershipRepo repository.MembershipRepository,
	userRepo repository.UserRepository,
	reportRepo repository.ReportRepository,
	engine *authz.Engine,
) CompanyService {
	return &companyService{
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		userRepo:       userRepo,
		reportRepo:     reportRepo,
		engine:         engine,
	}
}

func (s *companyService) List(ctx context.Context, actor authz.Actor, q repository.CompanyQuery) ([]model.Company, int64, error) {
	scope, err := s.engine.ScopeCompanies(ctx, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve scope: %w", err)
	}
	q.Unrestricted = scope.Unrestricted
	q.CompanyIDs = scope.CompanyIDs
	return s.companyRepo.List(ctx, q)
}

func (s *companyService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Company, error) {
	company, err := s.companyRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("company not found")
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, id)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *companyService) Create(ctx context.Context, actor authz.Actor, company *model.Company) error {
	if err := denied(s.engine.RequireAdmin(actor)); err != nil {
		return err
	}
	if existing, err := s.companyRepo.FindByName(ctx, company.Name); err == nil && existing != nil {
		return errors.ValidationField("name", "company name already in use")
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check company name: %w", err)
	}
	if existing, err := s.companyRepo.FindByEmail(ctx, company.Email); err == nil && existing != nil {
		return errors.ValidationField("email", "company email already in use")
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("check company email: %w", err)
	}
	company.IsActive = true
	if err := s.companyRepo.Create(ctx, company); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

func (s *companyService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update CompanyUpdate) (*model.Company, error) {
	company, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil && *update.Name != company.Name {
		if existing, err := s.companyRepo.FindByName(ctx, *update.Name); err == nil && existing != nil {
			return nil, errors.ValidationField("name", "company name already in use")
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check company name: %w", err)
		}
		company.Name = *update.Name
	}
	if update.Email != nil && *update.Email != company.Email {
		if existing, err := s.companyRepo.FindByEmail(ctx, *update.Email); err == nil && existing != nil {
			return nil, errors.ValidationField("email", "company email already in use")
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("check company email: %w", err)
		}
		company.Email = *update.Email
	}
	if update.Phone != nil {
		company.Phone = *update.Phone
	}
	if update.Website != nil {
		company.Website = *update.Website
	}
	if update.Address != nil {
		company.Address = *update.Address
	}
	if update.LogoURL != nil {
		company.LogoURL = *update.LogoURL
	}
	if update.IsActive != nil {
		company.IsActive = *update.IsActive
	}

	if err := s.companyRepo.Update(ctx, company); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	return company, nil
}

func (s *companyService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := denied(s.engine.RequireAdmin(actor)); err != nil {
		return err
	}
	if _, err := s.companyRepo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("company not found")
		}
		return fmt.Errorf("find company: %w", err)
	}
	counts, err := s.companyRepo.OwnedCounts(ctx, id)
	if err != nil {
		return fmt.Errorf("count owned rows: %w", err)
	}
	if !counts.Empty() {
		return errors.Conflict("cannot delete company with projects, contracts or invoices")
	}
	if err := s.companyRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete company: %w", err)
	}
	return nil
}

func (s *companyService) AddMember(ctx context.Context, actor authz.Actor, companyID, userID uuid.UUID, role string) (*model.Membership, error) {
	if _, err := s.Get(ctx, actor, companyID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if existing, err := s.membershipRepo.FindByPair(ctx, companyID, userID); err == nil && existing != nil {
		return nil, errors.Conflict("user is already a member of this company")
	} else if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	if role == "" {
		role = "member"
	}
	membership := &model.Membership{CompanyID: companyID, UserID: userID, Role: role}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, fmt.Errorf("create membership: %w", err)
	}
	return membership, nil
}

func (s *companyService) RemoveMember(ctx context.Context, actor authz.Actor, companyID, userID uuid.UUID) error {
	if _, err := s.Get(ctx, actor, companyID); err != nil {
		return err
	}
	membership, err := s.membershipRepo.FindByPair(ctx, companyID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("membership not found")
		}
		return fmt.Errorf("find membership: %w", err)
	}
	if err := s.membershipRepo.Delete(ctx, membership.ID); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

func (s *companyService) ListMembers(ctx context.Context, actor authz.Actor, companyID uuid.UUID) ([]model.Membership, error) {
	if _, err := s.Get(ctx, actor, companyID); err != nil {
		return nil, err
	}
	return s.membershipRepo.ListByCompany(ctx, companyID)
}

func (s *companyService) Stats(ctx context.Context, actor authz.Actor, id uuid.UUID) (*CompanyStats, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	projects, err := s.reportRepo.CompanyProjectCounts(ctx, id, model.ProjectStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("project counts: %w", err)
	}
	tasks, err := s.reportRepo.CompanyTaskCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task counts: %w", err)
	}

	return &CompanyStats{
		TotalProjects:         projects.Total,
		CompletedProjects:     projects.Marked,
		TotalTasks:            tasks.Total,
		CompletedTasks:        tasks.Marked,
		ProjectCompletionRate: completionRate(projects.Marked, projects.Total),
		TaskCompletionRate:    completionRate(tasks.Marked, tasks.Total),
	}, nil
}
