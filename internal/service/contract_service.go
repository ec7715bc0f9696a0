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

// ContractUpdate carries the mutable contract fields; nil means unchanged.
type ContractUpdate struct {
	Title       *string
	Description *string
	Status      *model.ContractStatus
	TotalValue  *DecimalPatch
	StartDate   *TimePatch
	EndDate     *TimePatch
	ProjectID   *UUIDPatch
}

// ContractService manages contracts and the signing transition.
type ContractService interface {
	List(ctx context.Context, actor authz.Actor, q repository.ContractQuery) ([]model.Contract, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Contract, error)
	Create(ctx context.Context, actor authz.Actor, contract *model.Contract) error
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update ContractUpdate) (*model.Contract, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	Sign(ctx context.Context, actor authz.Actor, id uuid.UUID, signedBy string) (*model.Contract, error)
}

type contractService struct {
	contractRepo repository.ContractRepository
	companyRepo  repository.CompanyRepository
	projectRepo  repository.ProjectRepository
	engine       *authz.Engine
	notifier     Notifier
}

// NewContractService creates a new contract service.
func NewContractService(
	contractRepo repository.ContractRepository,
	companyRepo repository.CompanyRepository,
	projectRepo repository.ProjectRepository,
	engine *authz.Engine,
	notifier Notifier,
) ContractService {
	return &contractService{
		contractRepo: contractRepo,
		companyRepo:  companyRepo,
		projectRepo:  projectRepo,
		engine:       engine,
		notifier:     notifier,
	}
}

func (s *contractService) List(ctx context.Context, actor authz.Actor, q repository.ContractQuery) ([]model.Contract, int64, error) {
	scope, err := s.engine.ScopeCompanies(ctx, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve scope: %w", err)
	}
	q.Unrestricted = scope.Unrestricted
	q.CompanyIDs = scope.CompanyIDs
	return s.contractRepo.List(ctx, q)
}

func (s *contractService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.contractRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("contract not found")
		}
		return nil, fmt.Errorf("find contract: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, contract.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	return contract, nil
}

// checkProject ensures the referenced project exists and belongs to the
// contract's company.
func (s *contractService) checkProject(ctx context.Context, projectID, companyID uuid.UUID) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("project not found")
		}
		return fmt.Errorf("find project: %w", err)
	}
	if project.CompanyID != companyID {
		return errors.ValidationField("project_id", "project must belong to the same company")
	}
	return nil
}

func (s *contractService) Create(ctx context.Context, actor authz.Actor, contract *model.Contract) error {
	if _, err := s.companyRepo.FindByID(ctx, contract.CompanyID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("company not found")
		}
		return fmt.Errorf("find company: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, contract.CompanyID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return err
	}

	if contract.Status == "" {
		contract.Status = model.ContractStatusDraft
	}
	if !contract.Status.Valid() {
		return errors.ValidationField("status", "unknown contract status")
	}
	if contract.ProjectID != nil {
		if err := s.checkProject(ctx, *contract.ProjectID, contract.CompanyID); err != nil {
			return err
		}
	}
	if contract.TotalValue != nil && contract.TotalValue.IsNegative() {
		return errors.ValidationField("total_value", "total value must not be negative")
	}

	contract.CreatedBy = actor.ID
	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}

func (s *contractService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update ContractUpdate) (*model.Contract, error) {
	contract, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if contract.Status == model.ContractStatusSigned && !actor.IsAdmin() {
		return nil, errors.Forbidden("signed contracts cannot be modified")
	}

	if update.Title != nil {
		contract.Title = *update.Title
	}
	if update.Description != nil {
		contract.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errors.ValidationField("status", "unknown contract status")
		}
		// The SIGNED transition goes through Sign so SignedAt and the
		// notification fire exactly once.
		if *update.Status == model.ContractStatusSigned && contract.Status != model.ContractStatusSigned {
			return nil, errors.ValidationField("status", "use the sign operation to sign a contract")
		}
		contract.Status = *update.Status
	}
	if update.TotalValue != nil {
		if update.TotalValue.Value != nil && update.TotalValue.Value.IsNegative() {
			return nil, errors.ValidationField("total_value", "total value must not be negative")
		}
		contract.TotalValue = update.TotalValue.Value
	}
	if update.StartDate != nil {
		contract.StartDate = update.StartDate.Value
	}
	if update.EndDate != nil {
		contract.EndDate = update.EndDate.Value
	}
	if update.ProjectID != nil {
		if update.ProjectID.Value != nil {
			if err := s.checkProject(ctx, *update.ProjectID.Value, contract.CompanyID); err != nil {
				return nil, err
			}
		}
		contract.ProjectID = update.ProjectID.Value
	}

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("update contract: %w", err)
	}
	return contract, nil
}

func (s *contractService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	contract, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if contract.Status == model.ContractStatusSigned && !actor.IsAdmin() {
		return errors.Forbidden("signed contracts cannot be deleted")
	}
	if err := s.contractRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contract: %w", err)
	}
	return nil
}

func (s *contractService) Sign(ctx context.Context, actor authz.Actor, id uuid.UUID, signedBy string) (*model.Contract, error) {
	contract, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if contract.Status == model.ContractStatusSigned {
		return nil, errors.Conflict("contract already signed")
	}
	if contract.Status == model.ContractStatusCancelled {
		return nil, errors.Conflict("cancelled contracts cannot be signed")
	}

	now := time.Now()
	contract.Status = model.ContractStatusSigned
	contract.SignedAt = &now
	contract.SignedByClient = signedBy
	if err := s.contractRepo.Update(ctx, contract); err != nil {
		return nil, fmt.Errorf("update contract: %w", err)
	}

	s.notifier.ContractSigned(contract.ID, contract.CompanyID)
	return contract, nil
}
