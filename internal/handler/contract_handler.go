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

// ContractHandler handles contract endpoints.
type ContractHandler struct {
	contractService service.ContractService
}

// NewContractHandler creates a new contract handler.
func NewContractHandler(contractService service.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

// CreateContractRequest represents a contract creation request.
type CreateContractRequest struct {
	CompanyID   uuid.UUID        `json:"company_id" validate:"required"`
	ProjectID   *uuid.UUID       `json:"project_id"`
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description"`
	Status      string           `json:"status" validate:"omitempty,oneof=DRAFT SENT SIGNED CANCELLED"`
	TotalValue  *decimal.Decimal `json:"total_value"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
}

// UpdateContractRequest represents a contract update request.
type UpdateContractRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *string          `json:"status" validate:"omitempty,oneof=DRAFT SENT SIGNED CANCELLED"`
	TotalValue  *decimal.Decimal `json:"total_value"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	ProjectID   *uuid.UUID       `json:"project_id"`
}

// SignContractRequest represents a contract signing request.
type SignContractRequest struct {
	SignedBy string `json:"signed_by" validate:"required"`
}

// List godoc
// @Summary List contracts visible to the caller
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param companyId query string false "Filter by company"
// @Param projectId query string false "Filter by project"
// @Param status query string false "Filter by status"
// @Param search query string false "Search in title and description"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /contracts [get]
func (h *ContractHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.ContractQuery{
		CompanyID:  queryUUID(c, "companyId"),
		ProjectID:  queryUUID(c, "projectId"),
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.ContractStatus(status)
		q.Status = &s
	}

	contracts, total, err := h.contractService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(contracts, total, q.Pagination))
}

// Get godoc
// @Summary Get a contract
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 200 {object} model.Contract
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contracts/{id} [get]
func (h *ContractHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	contract, err := h.contractService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, contract)
}

// Create godoc
// @Summary Create a contract
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateContractRequest true "Contract data"
// @Success 201 {object} model.Contract
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contracts [post]
func (h *ContractHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req CreateContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contract := &model.Contract{
		CompanyID:   req.CompanyID,
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      model.ContractStatus(req.Status),
		TotalValue:  req.TotalValue,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := h.contractService.Create(c.Request().Context(), actor, contract); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, contract)
}

// Update godoc
// @Summary Update a contract
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Param request body UpdateContractRequest true "Fields to update"
// @Success 200 {object} model.Contract
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contracts/{id} [put]
func (h *ContractHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	update := service.ContractUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := model.ContractStatus(*req.Status)
		update.Status = &status
	}
	if req.TotalValue != nil {
		update.TotalValue = &service.DecimalPatch{Value: req.TotalValue}
	}
	if req.StartDate != nil {
		update.StartDate = &service.TimePatch{Value: req.StartDate}
	}
	if req.EndDate != nil {
		update.EndDate = &service.TimePatch{Value: req.EndDate}
	}
	if req.ProjectID != nil {
		update.ProjectID = &service.UUIDPatch{Value: req.ProjectID}
	}

	contract, err := h.contractService.Update(c.Request().Context(), actor, id, update)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, contract)
}

// Delete godoc
// @Summary Delete a contract
// @Tags contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /contracts/{id} [delete]
func (h *ContractHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.contractService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "contract deleted"})
}

// Sign godoc
// @Summary Sign a contract
// @Tags contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Param request body SignContractRequest true "Signer data"
// @Success 200 {object} model.Contract
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /contracts/{id}/sign [post]
func (h *ContractHandler) Sign(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req SignContractRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	contract, err := h.contractService.Sign(c.Request().Context(), actor, id, req.SignedBy)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, contract)
}
