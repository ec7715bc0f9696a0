package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// InvoiceUpdate carries the mutable invoice fields; nil means unchanged.
// A non-nil Items replaces the whole line item list.
type InvoiceUpdate struct {
	InvoiceNumber *string
	Description   *string
	Status        *model.InvoiceStatus
	TaxRate       *decimal.Decimal
	DueDate       *time.Time
	ProjectID     *UUIDPatch
	Items         []model.InvoiceItem
}

// InvoiceService manages invoices, their monetary totals and the payment
// transition.
type InvoiceService interface {
	List(ctx context.Context, actor authz.Actor, q repository.InvoiceQuery) ([]model.Invoice, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Invoice, error)
	Create(ctx context.Context, actor authz.Actor, invoice *model.Invoice) error
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update InvoiceUpdate) (*model.Invoice, error)
	Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	MarkAsPaid(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Invoice, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	projectRepo repository.ProjectRepository
	engine      *authz.Engine
	notifier    Notifier
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	projectRepo repository.ProjectRepository,
	engine *authz.Engine,
	notifier Notifier,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		projectRepo: projectRepo,
		engine:      engine,
		notifier:    notifier,
	}
}

// recomputeTotals re-establishes TotalPrice on every item and the invoice
// identity TotalAmount = Subtotal + TaxAmount, all at two decimals.
func recomputeTotals(invoice *model.Invoice) error {
	subtotal := decimal.Zero
	for i := range invoice.Items {
		item := &invoice.Items[i]
		if item.Quantity.IsNegative() {
			return errors.ValidationField("items", "item quantity must not be negative")
		}
		if item.UnitPrice.IsNegative() {
			return errors.ValidationField("items", "item unit price must not be negative")
		}
		item.TotalPrice = item.Quantity.Mul(item.UnitPrice).Round(2)
		subtotal = subtotal.Add(item.TotalPrice)
	}
	if invoice.TaxRate.IsNegative() {
		return errors.ValidationField("tax_rate", "tax rate must not be negative")
	}
	invoice.Subtotal = subtotal.Round(2)
	invoice.TaxAmount = invoice.Subtotal.Mul(invoice.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	invoice.TotalAmount = invoice.Subtotal.Add(invoice.TaxAmount)
	return nil
}

func (s *invoiceService) List(ctx context.Context, actor authz.Actor, q repository.InvoiceQuery) ([]model.Invoice, int64, error) {
	scope, err := s.engine.ScopeCompanies(ctx, actor)
	if err != nil {
		return nil, 0, fmt.Errorf("resolve scope: %w", err)
	}
	q.Unrestricted = scope.Unrestricted
	q.CompanyIDs = scope.CompanyIDs
	return s.invoiceRepo.List(ctx, q)
}

func (s *invoiceService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("invoice not found")
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, invoice.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return nil, err
	}
	return invoice, nil
}

// checkNumberFree rejects an invoice number already used by another
// invoice. The unique index closes the remaining race at commit time.
func (s *invoiceService) checkNumberFree(ctx context.Context, number string, exclude uuid.UUID) error {
	existing, err := s.invoiceRepo.FindByNumber(ctx, number)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("check invoice number: %w", err)
	}
	if existing.ID != exclude {
		return errors.Conflict("invoice number already in use")
	}
	return nil
}

func (s *invoiceService) Create(ctx context.Context, actor authz.Actor, invoice *model.Invoice) error {
	if _, err := s.companyRepo.FindByID(ctx, invoice.CompanyID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("company not found")
		}
		return fmt.Errorf("find company: %w", err)
	}
	decision, err := s.engine.CanAccessCompany(ctx, actor, invoice.CompanyID)
	if err != nil {
		return fmt.Errorf("authorize: %w", err)
	}
	if err := denied(decision); err != nil {
		return err
	}

	if invoice.ProjectID != nil {
		project, err := s.projectRepo.FindByID(ctx, *invoice.ProjectID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFound("project not found")
			}
			return fmt.Errorf("find project: %w", err)
		}
		if project.CompanyID != invoice.CompanyID {
			return errors.ValidationField("project_id", "project must belong to the same company")
		}
	}

	if invoice.InvoiceNumber == "" {
		invoice.InvoiceNumber = fmt.Sprintf("INV-%d", time.Now().UnixMilli())
	}
	if err := s.checkNumberFree(ctx, invoice.InvoiceNumber, uuid.Nil); err != nil {
		return err
	}

	if invoice.Status == "" {
		invoice.Status = model.InvoiceStatusDraft
	}
	if !invoice.Status.Valid() {
		return errors.ValidationField("status", "unknown invoice status")
	}
	if invoice.Status == model.InvoiceStatusPaid {
		now := time.Now()
		invoice.PaidAt = &now
	}
	if err := recomputeTotals(invoice); err != nil {
		return err
	}

	invoice.CreatedBy = actor.ID
	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}

	s.notifier.InvoiceCreated(invoice.ID, invoice.CompanyID)
	return nil
}

func (s *invoiceService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update InvoiceUpdate) (*model.Invoice, error) {
	invoice, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == model.InvoiceStatusPaid && !actor.IsAdmin() {
		return nil, errors.Forbidden("paid invoices cannot be modified")
	}

	if update.InvoiceNumber != nil && *update.InvoiceNumber != invoice.InvoiceNumber {
		if err := s.checkNumberFree(ctx, *update.InvoiceNumber, invoice.ID); err != nil {
			return nil, err
		}
		invoice.InvoiceNumber = *update.InvoiceNumber
	}
	if update.Description != nil {
		invoice.Description = *update.Description
	}
	if update.DueDate != nil {
		invoice.DueDate = *update.DueDate
	}
	if update.ProjectID != nil {
		if update.ProjectID.Value != nil {
			project, err := s.projectRepo.FindByID(ctx, *update.ProjectID.Value)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return nil, errors.NotFound("project not found")
				}
				return nil, fmt.Errorf("find project: %w", err)
			}
			if project.CompanyID != invoice.CompanyID {
				return nil, errors.ValidationField("project_id", "project must belong to the same company")
			}
		}
		invoice.ProjectID = update.ProjectID.Value
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errors.ValidationField("status", "unknown invoice status")
		}
		if *update.Status == model.InvoiceStatusPaid && invoice.Status != model.InvoiceStatusPaid {
			now := time.Now()
			invoice.PaidAt = &now
		}
		if *update.Status != model.InvoiceStatusPaid {
			invoice.PaidAt = nil
		}
		invoice.Status = *update.Status
	}
	if update.TaxRate != nil {
		invoice.TaxRate = *update.TaxRate
	}
	if update.Items != nil {
		invoice.Items = update.Items
	}
	if err := recomputeTotals(invoice); err != nil {
		return nil, err
	}

	if update.Items != nil {
		if err := s.invoiceRepo.ReplaceItems(ctx, invoice.ID, invoice.Items); err != nil {
			return nil, fmt.Errorf("replace items: %w", err)
		}
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return invoice, nil
}

func (s *invoiceService) Delete(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	invoice, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	if invoice.Status == model.InvoiceStatusPaid && !actor.IsAdmin() {
		return errors.Forbidden("paid invoices cannot be deleted")
	}
	if err := s.invoiceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	return nil
}

func (s *invoiceService) MarkAsPaid(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Invoice, error) {
	invoice, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == model.InvoiceStatusPaid {
		return nil, errors.Conflict("invoice already paid")
	}

	now := time.Now()
	invoice.Status = model.InvoiceStatusPaid
	invoice.PaidAt = &now
	if err := recomputeTotals(invoice); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}
	return invoice, nil
}
