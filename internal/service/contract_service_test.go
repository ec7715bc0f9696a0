package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
)

func newTestContractService(contracts *MockContractRepository, companies *MockCompanyRepository, projects *MockProjectRepository, memberships *MockMembershipRepository, notifier *MockNotifier) ContractService {
	return NewContractService(contracts, companies, projects, authz.NewEngine(memberships), notifier)
}

func TestContractService_Sign(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	t.Run("sign stamps signature and notifies", func(t *testing.T) {
		contract := &model.Contract{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    model.ContractStatusSent,
		}
		mockContracts := new(MockContractRepository)
		mockNotifier := new(MockNotifier)

		mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		mockContracts.On("Update", mock.Anything, contract).Return(nil)
		mockNotifier.On("ContractSigned", contract.ID, companyID).Return()

		service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), new(MockMembershipRepository), mockNotifier)
		signed, err := service.Sign(context.Background(), admin, contract.ID, "Carla Client")

		assert.NoError(t, err)
		assert.Equal(t, model.ContractStatusSigned, signed.Status)
		assert.Equal(t, "Carla Client", signed.SignedByClient)
		assert.NotNil(t, signed.SignedAt)
		mockNotifier.AssertExpectations(t)
	})

	t.Run("second sign is a conflict", func(t *testing.T) {
		signedAt := time.Now()
		contract := &model.Contract{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    model.ContractStatusSigned,
			SignedAt:  &signedAt,
		}
		mockContracts := new(MockContractRepository)
		mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)

		service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), new(MockMembershipRepository), new(MockNotifier))
		_, err := service.Sign(context.Background(), admin, contract.ID, "Anyone")

		assert.Error(t, err)
		assert.Equal(t, errors.KindConflict, errors.KindOf(err))
		mockContracts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("cancelled contracts cannot be signed", func(t *testing.T) {
		contract := &model.Contract{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    model.ContractStatusCancelled,
		}
		mockContracts := new(MockContractRepository)
		mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)

		service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), new(MockMembershipRepository), new(MockNotifier))
		_, err := service.Sign(context.Background(), admin, contract.ID, "Anyone")

		assert.Error(t, err)
		assert.Equal(t, errors.KindConflict, errors.KindOf(err))
	})
}

func TestContractService_Update(t *testing.T) {
	companyID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}
	staff := authz.Actor{ID: uuid.New(), Role: model.RoleEmployee}

	t.Run("signed contracts are immutable for non-admins", func(t *testing.T) {
		signedAt := time.Now()
		contract := &model.Contract{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    model.ContractStatusSigned,
			SignedAt:  &signedAt,
		}
		mockContracts := new(MockContractRepository)
		mockMemberships := new(MockMembershipRepository)
		mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
		mockMemberships.On("IsMember", mock.Anything, staff.ID, companyID).Return(true, nil)

		service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), mockMemberships, new(MockNotifier))
		title := "revised"
		_, err := service.Update(context.Background(), staff, contract.ID, ContractUpdate{Title: &title})

		assert.Error(t, err)
		assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
	})

	t.Run("status cannot be set to signed through update", func(t *testing.T) {
		contract := &model.Contract{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    model.ContractStatusDraft,
		}
		mockContracts := new(MockContractRepository)
		mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)

		service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), new(MockMembershipRepository), new(MockNotifier))
		status := model.ContractStatusSigned
		_, err := service.Update(context.Background(), admin, contract.ID, ContractUpdate{Status: &status})

		assert.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
		mockContracts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("negative total value is rejected", func(t *testing.T) {
		contract := &model.Contract{
			ID:        uuid.New(),
			CompanyID: companyID,
			Status:    model.ContractStatusDraft,
		}
		mockContracts := new(MockContractRepository)
		mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)

		service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), new(MockMembershipRepository), new(MockNotifier))
		negative := decimal.NewFromInt(-1)
		_, err := service.Update(context.Background(), admin, contract.ID, ContractUpdate{TotalValue: &DecimalPatch{Value: &negative}})

		assert.Error(t, err)
		assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	})
}

func TestContractService_Create_ProjectMustMatchCompany(t *testing.T) {
	companyID := uuid.New()
	projectID := uuid.New()
	admin := authz.Actor{ID: uuid.New(), Role: model.RoleAdmin}

	mockContracts := new(MockContractRepository)
	mockCompanies := new(MockCompanyRepository)
	mockProjects := new(MockProjectRepository)

	mockCompanies.On("FindByID", mock.Anything, companyID).Return(&model.Company{ID: companyID}, nil)
	mockProjects.On("FindByID", mock.Anything, projectID).Return(&model.Project{ID: projectID, CompanyID: uuid.New()}, nil)

	service := newTestContractService(mockContracts, mockCompanies, mockProjects, new(MockMembershipRepository), new(MockNotifier))
	contract := &model.Contract{CompanyID: companyID, ProjectID: &projectID, Title: "Agreement"}
	err := service.Create(context.Background(), admin, contract)

	assert.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	mockContracts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestContractService_Delete_SignedIsProtected(t *testing.T) {
	companyID := uuid.New()
	staff := authz.Actor{ID: uuid.New(), Role: model.RoleEmployee}
	signedAt := time.Now()
	contract := &model.Contract{
		ID:        uuid.New(),
		CompanyID: companyID,
		Status:    model.ContractStatusSigned,
		SignedAt:  &signedAt,
	}

	mockContracts := new(MockContractRepository)
	mockMemberships := new(MockMembershipRepository)
	mockContracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	mockMemberships.On("IsMember", mock.Anything, staff.ID, companyID).Return(true, nil)

	service := newTestContractService(mockContracts, new(MockCompanyRepository), new(MockProjectRepository), mockMemberships, new(MockNotifier))
	err := service.Delete(context.Background(), staff, contract.ID)

	assert.Error(t, err)
	assert.Equal(t, errors.KindForbidden, errors.KindOf(err))
	mockContracts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
