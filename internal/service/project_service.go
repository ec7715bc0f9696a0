package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// ProjectUpdate carries the mutable project fields; nil means unchanged.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *model.ProjectStatus
	StartDate   *TimePatch
	EndDate     *TimePatch
	Budget      *DecimalPatch
	HourlyRate  *DecimalPatch
}

// ProjectStats is the derived snapshot for one project.
type ProjectStats struct {
	TotalTasks      int64           `json:"total_tasks"`
	CompletedTasks  int64           `json:"completed_tasks"`
	CompletionRate  int             `json:"completion_rate"`
	TotalHours      float64         `json:"total_hours"`
	BillableHours   float64         `json:"billable_hours"`
	ApprovedHours   float64         `json:"approved_hours"`
	TotalContracts  int64           `json:"total_contracts"`
	SignedContracts int64           `json:"signed_contracts"`
	TotalInvoices   int64           `json:"total_invoices"`
	PaidInvoices    int64           `json:"paid_invoices"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	BudgetUsed      int             `json:"budget_used"`
	TeamMembers     []model.User    `json:"team_members"`
}

// ProjectService manages projects and their derived statistics.
type ProjectService interface {
	List(ctx context.Context, actor authz.Actor, q repository.ProjectQuery) ([]model.Project, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Project, error)
	Create(ctx context.Context, actor authz.Actor, project *model.Project) error
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update ProjectUpdate) (*model.Project, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	Stats(ctx context.Context, actor authz.Actor, id uuid.UUID) (*ProjectStats, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
	companyRepo repository.CompanyRepository
	reportRepo  repository.ReportRepository
	engine      *authz.Engine
}

// NewProjectService creates a new project service.
func NewProjectService(
	projectRepo repository.ProjectRepository,
	companyRepo repository.CompanyRepository,
	reportRepo repository.ReportRepository,
	engine *authz.Engine,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		companyRepo: companyRepo,
		reportRepo:  reportRepo,
		engine:      engine,
	}
}

func (s *projectService) List(ctx context.Context, actor authz.Actor, q repository.ProjectQuery) ([]model.Project, int64, error) {
	scope, err := s.engine.ScopeCompanies(ctx, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve scope: %w", err)
	}
	q.Unrestricted = scope.Unrestricted
	q.CompanyIDs = scope.CompanyIDs
	return s.projectRepo.List(ctx, q)
}

func (s *projectService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("project not found")
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, project.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Create(ctx context.Context, actor authz.Actor, project *model.Project) error {
	if _, err := s.companyRepo.FindByID(ctx, project.CompanyID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("company not found")
		}
		return fmt.Errorf("find company: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, project.CompanyID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return err
	}

	if project.Status == "" {
		project.Status = model.ProjectStatusPlanning
	}
	if !project.Status.Valid() {
		return errors.ValidationField("status", "unknown project status")
	}
	if err := validateProjectFields(project.StartDate != nil, project.EndDate != nil, project); err != nil {
		return err
	}

	project.CreatedBy = actor.ID
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *projectService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update ProjectUpdate) (*model.Project, error) {
	project, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		project.Name = *update.Name
	}
	if update.Description != nil {
		project.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errors.ValidationField("status", "unknown project status")
		}
		project.Status = *update.Status
	}
	if update.StartDate != nil {
		project.StartDate = update.StartDate.Value
	}
	if update.EndDate != nil {
		project.EndDate = update.EndDate.Value
	}
	if update.Budget != nil {
		project.Budget = update.Budget.Value
	}
	if update.HourlyRate != nil {
		project.HourlyRate = update.HourlyRate.Value
	}
	if err := validateProjectFields(true, true, project); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return project, nil
}

// validateProjectFields checks the date ordering and monetary sign rules.
// checkStart/checkEnd let Create skip fields the caller never supplied.
func validateProjectFields(checkStart, checkEnd bool, project *model.Project) error {
	if checkStart && checkEnd &&
		project.StartDate != nil && project.EndDate != nil &&
		project.EndDate.Before(*project.StartDate) {
		return errors.ValidationField("end_date", "end date must not be before start date")
	}
	if project.Budget != nil && project.Budget.IsNegative() {
		return errors.ValidationField("budget", "budget must not be negative")
	}
	if project.HourlyRate != nil && project.HourlyRate.IsNegative() {
		return errors.ValidationField("hourly_rate", "hourly rate must not be negative")
	}
	return nil
}

func (s *projectService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	counts, err := s.projectRepo.ChildCounts(ctx, id)
	if err != nil {
		return fmt.Errorf("count child rows: %w", err)
	}
	if !counts.Empty() {
		return errors.Conflict("cannot delete project with tasks, contracts or invoices")
	}
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *projectService) Stats(ctx context.Context, actor authz.Actor, id uuid.UUID) (*ProjectStats, error) {
	project, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	tasks, err := s.reportRepo.ProjectTaskCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task counts: %w", err)
	}
	minutes, err := s.reportRepo.ProjectMinuteSums(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("minute sums: %w", err)
	}
	contracts, err := s.reportRepo.ProjectContractCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("contract counts: %w", err)
	}
	invoices, err := s.reportRepo.ProjectInvoiceCounts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice counts: %w", err)
	}
	revenue, err := s.reportRepo.ProjectPaidTotal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("paid total: %w", err)
	}
	team, err := s.reportRepo.ProjectTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("team: %w", err)
	}
	if team == nil {
		team = []model.User{}
	}

	return &ProjectStats{
		TotalTasks:      tasks.Total,
		CompletedTasks:  tasks.Marked,
		CompletionRate:  completionRate(tasks.Marked, tasks.Total),
		TotalHours:      hoursFromMinutes(minutes.Total),
		BillableHours:   hoursFromMinutes(minutes.Billable),
		ApprovedHours:   hoursFromMinutes(minutes.Approved),
		TotalContracts:  contracts.Total,
		SignedContracts: contracts.Marked,
		TotalInvoices:   invoices.Total,
		PaidInvoices:    invoices.Marked,
		TotalRevenue:    revenue,
		BudgetUsed:      budgetUsedPercent(revenue, project.Budget),
		TeamMembers:     team,
	}, nil
}
