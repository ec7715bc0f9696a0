package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

func newTestProjectService(
	projects *MockProjectRepository,
	companies *MockCompanyRepository,
	reports *MockReportRepository,
	memberships *MockMembershipRepository,
) ProjectService {
	return NewProjectService(projects, companies, reports, authz.NewEngine(memberships))
}

func TestProjectService_Create(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("defaults status to planning and stamps creator", func(t *testing.T) {
		projects := new(MockProjectRepository)
		companies := new(MockCompanyRepository)
		companies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		projects.On("Create", mock.Anything, mock.AnythingOfType("*model.Project")).Return(nil)
		svc := newTestProjectService(projects, companies, new(MockReportRepository), new(MockMembershipRepository))

		project := &model.Project{CompanyID: companyID, Name: "Website Redesign"}
		err := svc.Create(context.Background(), admin, project)

		assert.NoError(t, err)
		assert.Equal(t, model.ProjectStatusPlanning, project.Status)
		assert.Equal(t, admin.ID, project.CreatedBy)
		projects.AssertExpectations(t)
	})

	t.Run("unknown company", func(t *testing.T) {
		projects := new(MockProjectRepository)
		companies := new(MockCompanyRepository)
		companies.On("FindByID", mock.Anything, companyID).Return(nil, gorm.ErrRecordNotFound)
		svc := newTestProjectService(projects, companies, new(MockReportRepository), new(MockMembershipRepository))

		err := svc.Create(context.Background(), admin, &model.Project{CompanyID: companyID, Name: "Ghost"})

		assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
		projects.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		outsider := authz.Actor{ID: uuid.New(), Role: model.RoleFreelancer}
		projects := new(MockProjectRepository)
		companies := new(MockCompanyRepository)
		memberships := new(MockMembershipRepository)
		companies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		memberships.On("IsMember", mock.Anything, outsider.ID, companyID).Return(false, nil)
		svc := newTestProjectService(projects, companies, new(MockReportRepository), memberships)

		err := svc.Create(context.Background(), outsider, &model.Project{CompanyID: companyID, Name: "Nope"})

		assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
	})

	t.Run("end date before start date", func(t *testing.T) {
		projects := new(MockProjectRepository)
		companies := new(MockCompanyRepository)
		companies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		svc := newTestProjectService(projects, companies, new(MockReportRepository), new(MockMembershipRepository))

		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, -1)
		err := svc.Create(context.Background(), admin, &model.Project{
			CompanyID: companyID,
			Name:      "Backwards",
			StartDate: &start,
			EndDate:   &end,
		})

		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	})

	t.Run("negative budget", func(t *testing.T) {
		projects := new(MockProjectRepository)
		companies := new(MockCompanyRepository)
		companies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		svc := newTestProjectService(projects, companies, new(MockReportRepository), new(MockMembershipRepository))

		budget := decimal.NewFromInt(-1)
		err := svc.Create(context.Background(), admin, &model.Project{
			CompanyID: companyID,
			Name:      "Underwater",
			Budget:    &budget,
		})

		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	})
}

func TestProjectService_Update(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("unknown status", func(t *testing.T) {
		projects := new(MockProjectRepository)
		projectID := uuid.New()
		projects.On("FindByID", mock.Anything, projectID).
			Return(&model.Project{ID: projectID, CompanyID: companyID, Status: model.ProjectStatusActive}, nil)
		svc := newTestProjectService(projects, new(MockCompanyRepository), new(MockReportRepository), new(MockMembershipRepository))

		bogus := model.ProjectStatus("SHIPPED")
		_, err := svc.Update(context.Background(), admin, projectID, ProjectUpdate{Status: &bogus})

		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
		projects.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("clears end date via patch", func(t *testing.T) {
		projects := new(MockProjectRepository)
		projectID := uuid.New()
		end := time.Now()
		projects.On("FindByID", mock.Anything, projectID).
			Return(&model.Project{ID: projectID, CompanyID: companyID, Status: model.ProjectStatusActive, EndDate: &end}, nil)
		projects.On("Update", mock.Anything, mock.AnythingOfType("*model.Project")).Return(nil)
		svc := newTestProjectService(projects, new(MockCompanyRepository), new(MockReportRepository), new(MockMembershipRepository))

		project, err := svc.Update(context.Background(), admin, projectID, ProjectUpdate{EndDate: &TimePatch{}})

		assert.NoError(t, err)
		assert.Nil(t, project.EndDate)
	})
}

func TestProjectService_Delete(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("blocked while child rows exist", func(t *testing.T) {
		projects := new(MockProjectRepository)
		projectID := uuid.New()
		projects.On("FindByID", mock.Anything, projectID).
			Return(&model.Project{ID: projectID, CompanyID: companyID}, nil)
		projects.On("ChildCounts", mock.Anything, projectID).
			Return(repository.ProjectChildCounts{Tasks: 4}, nil)
		svc := newTestProjectService(projects, new(MockCompanyRepository), new(MockReportRepository), new(MockMembershipRepository))

		err := svc.Delete(context.Background(), admin, projectID)

		assert.Equal(t, errors.KindConflict, errors.KindOf(err))
		projects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deletes an empty project", func(t *testing.T) {
		projects := new(MockProjectRepository)
		projectID := uuid.New()
		projects.On("FindByID", mock.Anything, projectID).
			Return(&model.Project{ID: projectID, CompanyID: companyID}, nil)
		projects.On("ChildCounts", mock.Anything, projectID).
			Return(repository.ProjectChildCounts{}, nil)
		projects.On("Delete", mock.Anything, projectID).Return(nil)
		svc := newTestProjectService(projects, new(MockCompanyRepository), new(MockReportRepository), new(MockMembershipRepository))

		err := svc.Delete(context.Background(), admin, projectID)

		assert.NoError(t, err)
		projects.AssertExpectations(t)
	})
}

func TestProjectService_Stats(t *testing.T) {
	companyID := uuid.New()
	projectID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	budget := decimal.NewFromInt(10000)

	projects := new(MockProjectRepository)
	reports := new(MockReportRepository)
	projects.On("FindByID", mock.Anything, projectID).
		Return(&model.Project{ID: projectID, CompanyID: companyID, Budget: &budget}, nil)
	reports.On("ProjectTaskCounts", mock.Anything, projectID).
		Return(repository.StatusCount{Total: 8, Marked: 6}, nil)
	reports.On("ProjectMinuteSums", mock.Anything, projectID).
		Return(repository.MinuteSums{Total: 600, Billable: 480, Approved: 300}, nil)
	reports.On("ProjectContractCounts", mock.Anything, projectID).
		Return(repository.StatusCount{Total: 2, Marked: 1}, nil)
	reports.On("ProjectInvoiceCounts", mock.Anything, projectID).
		Return(repository.StatusCount{Total: 3, Marked: 2}, nil)
	reports.On("ProjectPaidTotal", mock.Anything, projectID).
		Return(decimal.NewFromInt(2500), nil)
	reports.On("ProjectTeam", mock.Anything, projectID).Return(nil, nil)
	svc := newTestProjectService(projects, new(MockCompanyRepository), reports, new(MockMembershipRepository))

	stats, err := svc.Stats(context.Background(), admin, projectID)

	assert.NoError(t, err)
	assert.Equal(t, int64(8), stats.TotalTasks)
	assert.Equal(t, int64(6), stats.CompletedTasks)
	assert.Equal(t, 75, stats.CompletionRate)
	assert.Equal(t, float64(10), stats.TotalHours)
	assert.Equal(t, float64(8), stats.BillableHours)
	assert.Equal(t, float64(5), stats.ApprovedHours)
	assert.Equal(t, int64(2), stats.TotalContracts)
	assert.Equal(t, int64(1), stats.SignedContracts)
	assert.Equal(t, int64(3), stats.TotalInvoices)
	assert.Equal(t, int64(2), stats.PaidInvoices)
	assert.True(t, stats.TotalRevenue.Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, 25, stats.BudgetUsed)
	assert.NotNil(t, stats.TeamMembers)
	assert.Len(t, stats.TeamMembers, 0)
}
