package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"projecthub/internal/auth"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, q repository.UserQuery) ([]model.User, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

// MockCompanyRepository is a mock implementation of CompanyRepository.
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *model.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) Update(ctx context.Context, company *model.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByName(ctx context.Context, name string) (*model.Company, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByEmail(ctx context.Context, email string) (*model.Company, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyRepository) List(ctx context.Context, q repository.CompanyQuery) ([]model.Company, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Company), args.Get(1).(int64), args.Error(2)
}

func (m *MockCompanyRepository) OwnedCounts(ctx context.Context, id uuid.UUID) (repository.OwnedCounts, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.OwnedCounts), args.Error(1)
}

// MockMembershipRepository is a mock implementation of MembershipRepository.
type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *model.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMembershipRepository) FindByPair(ctx context.Context, companyID, userID uuid.UUID) (*model.Membership, error) {
	args := m.Called(ctx, companyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListStaffByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListClientsByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Membership), args.Error(1)
}

func (m *MockMembershipRepository) IsMember(ctx context.Context, userID, companyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, companyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockMembershipRepository) CompanyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockProjectRepository is a mock implementation of ProjectRepository.
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) Create(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Update(ctx context.Context, project *model.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Project), args.Error(1)
}

func (m *MockProjectRepository) List(ctx context.Context, q repository.ProjectQuery) ([]model.Project, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Project), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectRepository) ChildCounts(ctx context.Context, id uuid.UUID) (repository.ProjectChildCounts, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.ProjectChildCounts), args.Error(1)
}

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, q repository.TaskQuery) ([]model.Task, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Task), args.Get(1).(int64), args.Error(2)
}

func (m *MockTaskRepository) ChildCounts(ctx context.Context, id uuid.UUID) (repository.TaskChildCounts, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.TaskChildCounts), args.Error(1)
}

func (m *MockTaskRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockTaskRepository) ListComments(ctx context.Context, taskID uuid.UUID) ([]model.Comment, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Comment), args.Error(1)
}

func (m *MockTaskRepository) DistinctCommenters(ctx context.Context, taskID, exclude uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, taskID, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockTimeEntryRepository is a mock implementation of TimeEntryRepository.
// WithTransaction runs the callback against the mock itself so the guarded
// check-and-insert sequences can be exercised.
type MockTimeEntryRepository struct {
	mock.Mock
}

func (m *MockTimeEntryRepository) Create(ctx context.Context, entry *model.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) Update(ctx context.Context, entry *model.TimeEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTimeEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TimeEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) List(ctx context.Context, q repository.TimeEntryQuery) ([]model.TimeEntry, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.TimeEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockTimeEntryRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (*model.TimeEntry, error) {
	args := m.Called(ctx, userID, start, end, exclude)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) FindRunning(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) FindRunningForUpdate(ctx context.Context, userID uuid.UUID) (*model.TimeEntry, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.TimeEntry), args.Error(1)
}

func (m *MockTimeEntryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.TimeEntryRepository) error) error {
	m.Called(ctx, fn)
	return fn(ctx, m)
}

// MockContractRepository is a mock implementation of ContractRepository.
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) Create(ctx context.Context, contract *model.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) Update(ctx context.Context, contract *model.Contract) error {
	args := m.Called(ctx, contract)
	return args.Error(0)
}

func (m *MockContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *MockContractRepository) List(ctx context.Context, q repository.ContractQuery) ([]model.Contract, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Contract), args.Get(1).(int64), args.Error(2)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository.
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) List(ctx context.Context, q repository.InvoiceQuery) ([]model.Invoice, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	args := m.Called(ctx, invoiceID, items)
	return args.Error(0)
}

// MockNotificationRepository is a mock implementation of NotificationRepository.
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) CreateBatch(ctx context.Context, notifications []model.Notification) error {
	args := m.Called(ctx, notifications)
	return args.Error(0)
}

func (m *MockNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockNotificationRepository) FindForUser(ctx context.Context, id, userID uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockNotificationRepository) List(ctx context.Context, q repository.NotificationQuery) ([]model.Notification, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

// MockReportRepository is a mock implementation of ReportRepository.
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) ProjectTaskCounts(ctx context.Context, projectID uuid.UUID) (repository.StatusCount, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) ProjectMinuteSums(ctx context.Context, projectID uuid.UUID) (repository.MinuteSums, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(repository.MinuteSums), args.Error(1)
}

func (m *MockReportRepository) ProjectContractCounts(ctx context.Context, projectID uuid.UUID) (repository.StatusCount, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) ProjectInvoiceCounts(ctx context.Context, projectID uuid.UUID) (repository.StatusCount, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) ProjectPaidTotal(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, projectID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReportRepository) ProjectTeam(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockReportRepository) CompanyProjectCounts(ctx context.Context, companyID uuid.UUID, marked model.ProjectStatus) (repository.StatusCount, error) {
	args := m.Called(ctx, companyID, marked)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) CompanyTaskCounts(ctx context.Context, companyID uuid.UUID) (repository.StatusCount, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) CompanyContractCounts(ctx context.Context, companyID uuid.UUID) (repository.StatusCount, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) CompanyInvoiceCounts(ctx context.Context, companyID uuid.UUID) (repository.StatusCount, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(repository.StatusCount), args.Error(1)
}

func (m *MockReportRepository) CompanyPendingAmount(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockReportRepository) UserMinuteSums(ctx context.Context, userID uuid.UUID, companyIDs []uuid.UUID, from, to time.Time) (repository.MinuteSums, error) {
	args := m.Called(ctx, userID, companyIDs, from, to)
	return args.Get(0).(repository.MinuteSums), args.Error(1)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, data auth.RefreshTokenData, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, data, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (*auth.RefreshTokenData, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.RefreshTokenData), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// MockNotifier records dispatch calls without any background delivery.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) TaskAssigned(taskID, assigneeID, actorID uuid.UUID) {
	m.Called(taskID, assigneeID, actorID)
}

func (m *MockNotifier) TaskCompleted(taskID, actorID uuid.UUID) {
	m.Called(taskID, actorID)
}

func (m *MockNotifier) CommentAdded(taskID, authorID uuid.UUID) {
	m.Called(taskID, authorID)
}

func (m *MockNotifier) InvoiceCreated(invoiceID, companyID uuid.UUID) {
	m.Called(invoiceID, companyID)
}

func (m *MockNotifier) ContractSigned(contractID, companyID uuid.UUID) {
	m.Called(contractID, companyID)
}

func (m *MockNotifier) Close() {}
