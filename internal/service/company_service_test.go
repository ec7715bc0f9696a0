package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

func newTestCompanyService(companies *MockCompanyRepository, memberships *MockMembershipRepository, users *MockUserRepository, reports *MockReportRepository) CompanyService {
	return NewCompanyService(companies, memberships, users, reports, authz.NewEngine(memberships))
}

func TestCompanyService_Create(t *testing.T) {
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("only admins create companies", func(t *testing.T) {
		service := newTestCompanyService(new(MockCompanyRepository), new(MockMembershipRepository), new(MockUserRepository), new(MockReportRepository))
		err := service.Create(context.Background(), authz.Actor{ID: uuid.New(), Role: model.RoleEmployee}, &model.Company{Name: "Acme"})

		assert.Error(t, err)
		assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockCompanies.On("FindByName", mock.Anything, "Acme").Return(&model.Company{Name: "Acme"}, nil)

		service := newTestCompanyService(mockCompanies, new(MockMembershipRepository), new(MockUserRepository), new(MockReportRepository))
		err := service.Create(context.Background(), admin, &model.Company{Name: "Acme", Email: "hello@acme.test"})

		assert.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
		mockCompanies.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("new company starts active", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockCompanies.On("FindByName", mock.Anything, "Acme").Return(nil, gorm.ErrRecordNotFound)
		mockCompanies.On("FindByEmail", mock.Anything, "hello@acme.test").Return(nil, gorm.ErrRecordNotFound)
		mockCompanies.On("Create", mock.Anything, mock.AnythingOfType("*model.Company")).Return(nil)

		service := newTestCompanyService(mockCompanies, new(MockMembershipRepository), new(MockUserRepository), new(MockReportRepository))
		company := &model.Company{Name: "Acme", Email: "hello@acme.test"}
		err := service.Create(context.Background(), admin, company)

		assert.NoError(t, err)
		assert.True(t, company.IsActive)
	})
}

func TestCompanyService_Delete(t *testing.T) {
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	companyID := uuid.New()

	t.Run("company with projects cannot be deleted", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		mockCompanies.On("OwnedCounts", mock.Anything, companyID).Return(repository.OwnedCounts{Projects: 2}, nil)

		service := newTestCompanyService(mockCompanies, new(MockMembershipRepository), new(MockUserRepository), new(MockReportRepository))
		err := service.Delete(context.Background(), admin, companyID)

		assert.Error(t, err)
		assert.Equal(t, errors.KindConflict, errors.KindOf(err))
		mockCompanies.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("empty company is deleted", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		mockCompanies.On("OwnedCounts", mock.Anything, companyID).Return(repository.OwnedCounts{}, nil)
		mockCompanies.On("Delete", mock.Anything, companyID).Return(nil)

		service := newTestCompanyService(mockCompanies, new(MockMembershipRepository), new(MockUserRepository), new(MockReportRepository))
		err := service.Delete(context.Background(), admin, companyID)

		assert.NoError(t, err)
		mockCompanies.AssertExpectations(t)
	})

	t.Run("non-admin cannot delete", func(t *testing.T) {
		service := newTestCompanyService(new(MockCompanyRepository), new(MockMembershipRepository), new(MockUserRepository), new(MockReportRepository))
		err := service.Delete(context.Background(), authz.Actor{ID: uuid.New(), Role: model.RoleEmployee}, companyID)

		assert.Error(t, err)
		assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
	})
}

func TestCompanyService_AddMember(t *testing.T) {
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	companyID := uuid.New()
	userID := uuid.New()

	t.Run("duplicate membership is a conflict", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockMemberships := new(MockMembershipRepository)
		mockUsers := new(MockUserRepository)

		mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		mockUsers.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID}, nil)
		mockMemberships.On("FindByPair", mock.Anything, companyID, userID).Return(&model.Membership{CompanyID: companyID, UserID: userID}, nil)

		service := newTestCompanyService(mockCompanies, mockMemberships, mockUsers, new(MockReportRepository))
		_, err := service.AddMember(context.Background(), admin, companyID, userID, "member")

		assert.Error(t, err)
		assert.Equal(t, errors.KindConflict, errors.KindOf(err))
		mockMemberships.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("default role is member", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockMemberships := new(MockMembershipRepository)
		mockUsers := new(MockUserRepository)

		mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		mockUsers.On("FindByID", mock.Anything, userID).Return(&model.User{ID: userID}, nil)
		mockMemberships.On("FindByPair", mock.Anything, companyID, userID).Return(nil, gorm.ErrRecordNotFound)
		mockMemberships.On("Create", mock.Anything, mock.AnythingOfType("*model.Membership")).Return(nil)

		service := newTestCompanyService(mockCompanies, mockMemberships, mockUsers, new(MockReportRepository))
		membership, err := service.AddMember(context.Background(), admin, companyID, userID, "")

		assert.NoError(t, err)
		assert.Equal(t, "member", membership.Role)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		mockCompanies := new(MockCompanyRepository)
		mockUsers := new(MockUserRepository)

		mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
		mockUsers.On("FindByID", mock.Anything, userID).Return(nil, gorm.ErrRecordNotFound)

		service := newTestCompanyService(mockCompanies, new(MockMembershipRepository), mockUsers, new(MockReportRepository))
		_, err := service.AddMember(context.Background(), admin, companyID, userID, "member")

		assert.Error(t, err)
		assert.Equal(t, errors.KindNotFound, errors.KindOf(err))
	})
}

func TestCompanyService_Stats(t *testing.T) {
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	companyID := uuid.New()

	mockCompanies := new(MockCompanyRepository)
	mockReports := new(MockReportRepository)
	mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
	mockReports.On("CompanyProjectCounts", mock.Anything, companyID, model.ProjectStatusCompleted).Return(repository.StatusCount{Total: 4, Marked: 1}, nil)
	mockReports.On("CompanyTaskCounts", mock.Anything, companyID).Return(repository.StatusCount{Total: 10, Marked: 9}, nil)

	service := newTestCompanyService(mockCompanies, new(MockMembershipRepository), new(MockUserRepository), mockReports)
	stats, err := service.Stats(context.Background(), admin, companyID)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), stats.TotalProjects)
	assert.Equal(t, int64(1), stats.CompletedProjects)
	assert.Equal(t, 25, stats.ProjectCompletionRate)
	assert.Equal(t, 90, stats.TaskCompletionRate)
}
