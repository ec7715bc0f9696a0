package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/service"
)

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// InvoiceItemRequest represents one line item in a create or update
// request. Line totals are always computed server-side.
type InvoiceItemRequest struct {
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"required"`
}

// CreateInvoiceRequest represents an invoice creation request.
type CreateInvoiceRequest struct {
	CompanyID     uuid.UUID            `json:"company_id" validate:"required"`
	ProjectID     *uuid.UUID           `json:"project_id"`
	InvoiceNumber string               `json:"invoice_number"`
	Description   string               `json:"description"`
	Status        string               `json:"status" validate:"omitempty,oneof=DRAFT SENT PAID OVERDUE CANCELLED"`
	TaxRate       decimal.Decimal      `json:"tax_rate"`
	DueDate       time.Time            `json:"due_date" validate:"required"`
	Items         []InvoiceItemRequest `json:"items" validate:"dive"`
}

// UpdateInvoiceRequest represents an invoice update request. A non-nil
// items list replaces all line items.
type UpdateInvoiceRequest struct {
	InvoiceNumber *string              `json:"invoice_number"`
	Description   *string              `json:"description"`
	Status        *string              `json:"status" validate:"omitempty,oneof=DRAFT SENT PAID OVERDUE CANCELLED"`
	TaxRate       *decimal.Decimal     `json:"tax_rate"`
	DueDate       *time.Time           `json:"due_date"`
	ProjectID     *uuid.UUID           `json:"project_id"`
	Items         []InvoiceItemRequest `json:"items" validate:"omitempty,dive"`
}

func itemsFromRequests(reqs []InvoiceItemRequest) []model.InvoiceItem {
	items := make([]model.InvoiceItem, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, model.InvoiceItem{
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
		})
	}
	return items
}

// List godoc
// @Summary List invoices visible to the caller
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param companyId query string false "Filter by company"
// @Param projectId query string false "Filter by project"
// @Param status query string false "Filter by status"
// @Param search query string false "Search in number and description"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.InvoiceQuery{
		CompanyID:  queryUUID(c, "companyId"),
		ProjectID:  queryUUID(c, "projectId"),
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.InvoiceStatus(status)
		q.Status = &s
	}

	invoices, total, err := h.invoiceService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(invoices, total, q.Pagination))
}

// Get godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} model.Invoice
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// Create godoc
// @Summary Create an invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInvoiceRequest true "Invoice data"
// @Success 201 {object} model.Invoice
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	invoice := &model.Invoice{
		CompanyID:     req.CompanyID,
		ProjectID:     req.ProjectID,
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
		Status:        model.InvoiceStatus(req.Status),
		TaxRate:       req.TaxRate,
		DueDate:       req.DueDate,
		Items:         itemsFromRequests(req.Items),
	}
	if err := h.invoiceService.Create(c.Request().Context(), actor, invoice); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// Update godoc
// @Summary Update an invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Param request body UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} model.Invoice
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	update := service.InvoiceUpdate{
		InvoiceNumber: req.InvoiceNumber,
		Description:   req.Description,
		TaxRate:       req.TaxRate,
		DueDate:       req.DueDate,
	}
	if req.Status != nil {
		status := model.InvoiceStatus(*req.Status)
		update.Status = &status
	}
	if req.ProjectID != nil {
		update.ProjectID = &service.UUIDPatch{Value: req.ProjectID}
	}
	if req.Items != nil {
		update.Items = itemsFromRequests(req.Items)
	}

	invoice, err := h.invoiceService.Update(c.Request().Context(), actor, id, update)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// Delete godoc
// @Summary Delete an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.invoiceService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "invoice deleted"})
}

// MarkAsPaid godoc
// @Summary Mark an invoice as paid
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID"
// @Success 200 {object} model.Invoice
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkAsPaid(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.MarkAsPaid(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, invoice)
}
