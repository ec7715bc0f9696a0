package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// PortalCompanyCard is the per-company block on the client dashboard.
type PortalCompanyCard struct {
	Company         model.Company   `json:"company"`
	TotalProjects   int64           `json:"total_projects"`
	ActiveProjects  int64           `json:"active_projects"`
	TotalTasks      int64           `json:"total_tasks"`
	CompletedTasks  int64           `json:"completed_tasks"`
	TotalContracts  int64           `json:"total_contracts"`
	SignedContracts int64           `json:"signed_contracts"`
	TotalInvoices   int64           `json:"total_invoices"`
	PaidInvoices    int64           `json:"paid_invoices"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
}

// PortalDashboard aggregates the client's companies into one view.
type PortalDashboard struct {
	Companies []PortalCompanyCard `json:"companies"`
	Summary   PortalSummary       `json:"summary"`
}

// PortalSummary is the cross-company rollup at the top of the dashboard.
type PortalSummary struct {
	TotalProjects         int64           `json:"total_projects"`
	ActiveProjects        int64           `json:"active_projects"`
	ProjectCompletionRate int             `json:"project_completion_rate"`
	TotalTasks            int64           `json:"total_tasks"`
	CompletedTasks        int64           `json:"completed_tasks"`
	TaskCompletionRate    int             `json:"task_completion_rate"`
	PendingAmount         decimal.Decimal `json:"pending_amount"`
}

// ActivityReport summarizes the actor's logged time over a period.
type ActivityReport struct {
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
	TotalHours    float64    `json:"total_hours"`
	BillableHours float64    `json:"billable_hours"`
	ApprovedHours float64    `json:"approved_hours"`
}

// PortalService is the read-only surface for CLIENT accounts: dashboards
// and listings restricted to the companies the client belongs to.
type PortalService interface {
	Dashboard(ctx context.Context, actor authz.Actor) (*PortalDashboard, error)
	Projects(ctx context.Context, actor authz.Actor, q repository.ProjectQuery) ([]model.Project, int64, error)
	Contracts(ctx context.Context, actor authz.Actor, q repository.ContractQuery) ([]model.Contract, int64, error)
	Invoices(ctx context.Context, actor authz.Actor, q repository.InvoiceQuery) ([]model.Invoice, int64, error)
	ActivityReport(ctx context.Context, actor authz.Actor, from, to *time.Time) (*ActivityReport, error)
}

type portalService struct {
	companyRepo    repository.CompanyRepository
	membershipRepo repository.MembershipRepository
	projectRepo    repository.ProjectRepository
	contractRepo   repository.ContractRepository
	invoiceRepo    repository.InvoiceRepository
	reportRepo     repository.ReportRepository
}

// NewPortalService creates a new portal service.
func NewPortalService(
	companyRepo repository.CompanyRepository,
	membershipRepo repository.MembershipRepository,
	projectRepo repository.ProjectRepository,
	contractRepo repository.ContractRepository,
	invoiceRepo repository.InvoiceRepository,
	reportRepo repository.ReportRepository,
) PortalService {
	return &portalService{
		companyRepo:    companyRepo,
		membershipRepo: membershipRepo,
		projectRepo:    projectRepo,
		contractRepo:   contractRepo,
		invoiceRepo:    invoiceRepo,
		reportRepo:     reportRepo,
	}
}

// clientScope resolves the client's companies, rejecting non-client roles.
func (s *portalService) clientScope(ctx context.Context, actor authz.Actor) ([]uuid.UUID, error) {
	if actor.Role != model.RoleClient {
		return nil, errors.Forbidden("client portal is available to client accounts only")
	}
	ids, err := s.membershipRepo.CompanyIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve companies: %w", err)
	}
	return ids, nil
}

func (s *portalService) Dashboard(ctx context.Context, actor authz.Actor) (*PortalDashboard, error) {
	companyIDs, err := s.clientScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	dashboard := &PortalDashboard{
		Companies: []PortalCompanyCard{},
		Summary:   PortalSummary{PendingAmount: decimal.Zero},
	}
	for _, id := range companyIDs {
		company, err := s.companyRepo.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("find company: %w", err)
		}
		projects, err := s.reportRepo.CompanyProjectCounts(ctx, id, model.ProjectStatusActive)
		if err != nil {
			return nil, fmt.Errorf("project counts: %w", err)
		}
		tasks, err := s.reportRepo.CompanyTaskCounts(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("task counts: %w", err)
		}
		contracts, err := s.reportRepo.CompanyContractCounts(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("contract counts: %w", err)
		}
		invoices, err := s.reportRepo.CompanyInvoiceCounts(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("invoice counts: %w", err)
		}
		pending, err := s.reportRepo.CompanyPendingAmount(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("pending amount: %w", err)
		}

		dashboard.Companies = append(dashboard.Companies, PortalCompanyCard{
			Company:         *company,
			TotalProjects:   projects.Total,
			ActiveProjects:  projects.Marked,
			TotalTasks:      tasks.Total,
			CompletedTasks:  tasks.Marked,
			TotalContracts:  contracts.Total,
			SignedContracts: contracts.Marked,
			TotalInvoices:   invoices.Total,
			PaidInvoices:    invoices.Marked,
			PendingAmount:   pending,
		})

		dashboard.Summary.TotalProjects += projects.Total
		dashboard.Summary.ActiveProjects += projects.Marked
		dashboard.Summary.TotalTasks += tasks.Total
		dashboard.Summary.CompletedTasks += tasks.Marked
		dashboard.Summary.PendingAmount = dashboard.Summary.PendingAmount.Add(pending)
	}
	dashboard.Summary.ProjectCompletionRate = completionRate(dashboard.Summary.ActiveProjects, dashboard.Summary.TotalProjects)
	dashboard.Summary.TaskCompletionRate = completionRate(dashboard.Summary.CompletedTasks, dashboard.Summary.TotalTasks)
	return dashboard, nil
}

func (s *portalService) Projects(ctx context.Context, actor authz.Actor, q repository.ProjectQuery) ([]model.Project, int64, error) {
	companyIDs, err := s.clientScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	q.Unrestricted = false
	q.CompanyIDs = companyIDs
	return s.projectRepo.List(ctx, q)
}

func (s *portalService) Contracts(ctx context.Context, actor authz.Actor, q repository.ContractQuery) ([]model.Contract, int64, error) {
	companyIDs, err := s.clientScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	q.Unrestricted = false
	q.CompanyIDs = companyIDs
	return s.contractRepo.List(ctx, q)
}

func (s *portalService) Invoices(ctx context.Context, actor authz.Actor, q repository.InvoiceQuery) ([]model.Invoice, int64, error) {
	companyIDs, err := s.clientScope(ctx, actor)
	if err != nil {
		return nil, 0, err
	}
	q.Unrestricted = false
	q.CompanyIDs = companyIDs
	return s.invoiceRepo.List(ctx, q)
}

func (s *portalService) ActivityReport(ctx context.Context, actor authz.Actor, from, to *time.Time) (*ActivityReport, error) {
	companyIDs, err := s.membershipRepo.CompanyIDs(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve companies: %w", err)
	}

	var fromT, toT time.Time
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}
	sums, err := s.reportRepo.UserMinuteSums(ctx, actor.ID, companyIDs, fromT, toT)
	if err != nil {
		return nil, fmt.Errorf("minute sums: %w", err)
	}

	return &ActivityReport{
		From:          from,
		To:            to,
		TotalHours:    hoursFromMinutes(sums.Total),
		BillableHours: hoursFromMinutes(sums.Billable),
		ApprovedHours: hoursFromMinutes(sums.Approved),
	}, nil
}
