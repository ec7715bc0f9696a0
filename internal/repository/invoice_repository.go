package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"projecthub/internal/model"
)

// InvoiceQuery is the typed filter set for listing invoices.
type InvoiceQuery struct {
	CompanyID    *uuid.UUID
	ProjectID    *uuid.UUID
	Status       *model.InvoiceStatus
	Search       string
	Unrestricted bool
	CompanyIDs   []uuid.UUID
	Pagination
}

var invoiceSortColumns = map[string]string{
	"invoiceNumber": "invoice_number",
	"status":        "status",
	"dueDate":       "due_date",
	"totalAmount":   "total_amount",
	"createdAt":     "created_at",
}

// InvoiceRepository defines invoice persistence operations.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	Update(ctx context.Context, invoice *model.Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByNumber(ctx context.Context, number string) (*model.Invoice, error)
	List(ctx context.Context, q InvoiceQuery) ([]model.Invoice, int64, error)
	// ReplaceItems swaps the invoice's line items for the given list in one
	// transaction. Old items are removed, never merged.
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error
}

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice) error {
	return r.db.WithContext(ctx).Omit("Items").Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.InvoiceItem{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Invoice{}, "id = ?", id).Error
	})
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Company").Preload("Project").Preload("Items").
		Where("id = ?", id).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := r.db.WithContext(ctx).
		Where("invoice_number = ?", number).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, q InvoiceQuery) ([]model.Invoice, int64, error) {
	q.Pagination = q.Pagination.Normalize()

	db := r.db.WithContext(ctx).Model(&model.Invoice{})
	if !q.Unrestricted {
		db = db.Where("company_id IN ?", uuidsOrNone(q.CompanyIDs))
	}
	if q.CompanyID != nil {
		db = db.Where("company_id = ?", *q.CompanyID)
	}
	if q.ProjectID != nil {
		db = db.Where("project_id = ?", *q.ProjectID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		db = db.Where("invoice_number LIKE ? OR description LIKE ?", pattern, pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []model.Invoice
	db = applySort(db, q.Pagination, invoiceSortColumns, "created_at")
	if err := db.Preload("Company").Preload("Project").Preload("Items").
		Offset(q.Offset()).Limit(q.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *invoiceRepository) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []model.InvoiceItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.InvoiceItem{}, "invoice_id = ?", invoiceID).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].InvoiceID = invoiceID
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}
