package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// StatusCount pairs a total against the subset in a terminal status.
type StatusCount struct {
	Total  int64
	Marked int64
}

// MinuteSums holds duration aggregates for a set of time entries.
type MinuteSums struct {
	Total    int64
	Billable int64
	Approved int64
}

// ReportRepository runs the read-only aggregate queries behind project,
// company and portal statistics. Nothing here mutates state and nothing is
// cached or materialized.
type ReportRepository interface {
	ProjectTaskCounts(ctx context.Context, projectID uuid.UUID) (StatusCount, error)
	ProjectMinuteSums(ctx context.Context, projectID uuid.UUID) (MinuteSums, error)
	ProjectContractCounts(ctx context.Context, projectID uuid.UUID) (StatusCount, error)
	ProjectInvoiceCounts(ctx context.Context, projectID uuid.UUID) (StatusCount, error)
	// ProjectPaidTotal sums totalAmount over the project's PAID invoices.
	ProjectPaidTotal(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)
	// ProjectTeam returns the distinct assignees of the project's tasks.
	ProjectTeam(ctx context.Context, projectID uuid.UUID) ([]model.User, error)

	CompanyProjectCounts(ctx context.Context, companyID uuid.UUID, marked model.ProjectStatus) (StatusCount, error)
	CompanyTaskCounts(ctx context.Context, companyID uuid.UUID) (StatusCount, error)
	CompanyContractCounts(ctx context.Context, companyID uuid.UUID) (StatusCount, error)
	CompanyInvoiceCounts(ctx context.Context, companyID uuid.UUID) (StatusCount, error)
	// CompanyPendingAmount sums totalAmount over the company's non-PAID
	// invoices.
	CompanyPendingAmount(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error)

	// UserMinuteSums aggregates the user's entries across the given
	// companies within [from, to]; zero times mean unbounded.
	UserMinuteSums(ctx context.Context, userID uuid.UUID, companyIDs []uuid.UUID, from, to time.Time) (MinuteSums, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) ProjectTaskCounts(ctx context.Context, projectID uuid.UUID) (StatusCount, error) {
	var c StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ?", projectID).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("project_id = ? AND status = ?", projectID, model.TaskStatusCompleted).
		Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) ProjectMinuteSums(ctx context.Context, projectID uuid.UUID) (MinuteSums, error) {
	var sums MinuteSums
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.TimeEntry{}).
			Joins("JOIN tasks ON tasks.id = time_entries.task_id").
			Where("tasks.project_id = ?", projectID)
	}
	if err := base().Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sums.Total).Error; err != nil {
		return sums, err
	}
	if err := base().Where("time_entries.is_billable = ?", true).
		Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sums.Billable).Error; err != nil {
		return sums, err
	}
	err := base().Where("time_entries.is_approved = ?", true).
		Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sums.Approved).Error
	return sums, err
}

func (r *reportRepository) ProjectContractCounts(ctx context.Context, projectID uuid.UUID) (StatusCount, error) {
	var c StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("project_id = ?", projectID).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("project_id = ? AND status = ?", projectID, model.ContractStatusSigned).
		Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) ProjectInvoiceCounts(ctx context.Context, projectID uuid.UUID) (StatusCount, error) {
	var c StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("project_id = ?", projectID).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("project_id = ? AND status = ?", projectID, model.InvoiceStatusPaid).
		Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) ProjectPaidTotal(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	var raw decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("project_id = ? AND status = ?", projectID, model.InvoiceStatusPaid).
		Select("SUM(total_amount)").Scan(&raw).Error
	if err != nil || !raw.Valid {
		return decimal.Zero, err
	}
	return raw.Decimal, nil
}

func (r *reportRepository) ProjectTeam(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN tasks ON tasks.assigned_to = users.id").
		Where("tasks.project_id = ?", projectID).
		Distinct().
		Find(&users).Error
	return users, err
}

func (r *reportRepository) CompanyProjectCounts(ctx context.Context, companyID uuid.UUID, marked model.ProjectStatus) (StatusCount, error) {
	var c StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("company_id = ?", companyID).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("company_id = ? AND status = ?", companyID, marked).
		Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) CompanyTaskCounts(ctx context.Context, companyID uuid.UUID) (StatusCount, error) {
	var c StatusCount
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&model.Task{}).
			Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("projects.company_id = ?", companyID)
	}
	if err := base().Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := base().Where("tasks.status = ?", model.TaskStatusCompleted).Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) CompanyContractCounts(ctx context.Context, companyID uuid.UUID) (StatusCount, error) {
	var c StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("company_id = ?", companyID).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("company_id = ? AND status = ?", companyID, model.ContractStatusSigned).
		Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) CompanyInvoiceCounts(ctx context.Context, companyID uuid.UUID) (StatusCount, error) {
	var c StatusCount
	if err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("company_id = ?", companyID).Count(&c.Total).Error; err != nil {
		return c, err
	}
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("company_id = ? AND status = ?", companyID, model.InvoiceStatusPaid).
		Count(&c.Marked).Error
	return c, err
}

func (r *reportRepository) CompanyPendingAmount(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	var raw decimal.NullDecimal
	err := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("company_id = ? AND status <> ?", companyID, model.InvoiceStatusPaid).
		Select("SUM(total_amount)").Scan(&raw).Error
	if err != nil || !raw.Valid {
		return decimal.Zero, err
	}
	return raw.Decimal, nil
}

func (r *reportRepository) UserMinuteSums(ctx context.Context, userID uuid.UUID, companyIDs []uuid.UUID, from, to time.Time) (MinuteSums, error) {
	var sums MinuteSums
	base := func() *gorm.DB {
		db := r.db.WithContext(ctx).Model(&model.TimeEntry{}).
			Joins("JOIN tasks ON tasks.id = time_entries.task_id").
			Joins("JOIN projects ON projects.id = tasks.project_id").
			Where("time_entries.user_id = ?", userID).
			Where("projects.company_id IN ?", uuidsOrNone(companyIDs))
		if !from.IsZero() {
			db = db.Where("time_entries.start_time >= ?", from)
		}
		if !to.IsZero() {
			db = db.Where("time_entries.start_time <= ?", to)
		}
		return db
	}
	if err := base().Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sums.Total).Error; err != nil {
		return sums, err
	}
	if err := base().Where("time_entries.is_billable = ?", true).
		Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sums.Billable).Error; err != nil {
		return sums, err
	}
	err := base().Where("time_entries.is_approved = ?", true).
		Select("COALESCE(SUM(duration_minutes), 0)").Scan(&sums.Approved).Error
	return sums, err
}
