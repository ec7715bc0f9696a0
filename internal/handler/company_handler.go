package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/service"
)

// CompanyHandler handles company and membership endpoints.
type CompanyHandler struct {
	companyService service.CompanyService
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// CreateCompanyRequest represents a company creation request.
type CreateCompanyRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Website string `json:"website" validate:"omitempty,url"`
	Address string `json:"address"`
	LogoURL string `json:"logo_url" validate:"omitempty,url"`
}

// UpdateCompanyRequest represents a company update request.
type UpdateCompanyRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Website  *string `json:"website" validate:"omitempty,url"`
	Address  *string `json:"address"`
	LogoURL  *string `json:"logo_url" validate:"omitempty,url"`
	IsActive *bool   `json:"is_active"`
}

// AddMemberRequest represents a membership creation request.
type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role"`
}

// List godoc
// @Summary List companies visible to the caller
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param search query string false "Search in name"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /companies [get]
func (h *CompanyHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.CompanyQuery{
		Search:     c.QueryParam("search"),
		IsActive:   queryBool(c, "isActive"),
		Pagination: bindPagination(c),
	}
	companies, total, err := h.companyService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(companies, total, q.Pagination))
}

// Get godoc
// @Summary Get a company
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {object} model.Company
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	company, err := h.companyService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, company)
}

// Create godoc
// @Summary Create a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCompanyRequest true "Company data"
// @Success 201 {object} model.Company
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req CreateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	company := &model.Company{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Website: req.Website,
		Address: req.Address,
		LogoURL: req.LogoURL,
	}
	if err := h.companyService.Create(c.Request().Context(), actor, company); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, company)
}

// Update godoc
// @Summary Update a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param request body UpdateCompanyRequest true "Fields to update"
// @Success 200 {object} model.Company
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id} [put]
func (h *CompanyHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateCompanyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	company, err := h.companyService.Update(c.Request().Context(), actor, id, service.CompanyUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Website:  req.Website,
		Address:  req.Address,
		LogoURL:  req.LogoURL,
		IsActive: req.IsActive,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, company)
}

// Delete godoc
// @Summary Delete an empty company
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.companyService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "company deleted"})
}

// ListMembers godoc
// @Summary List company members
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {array} model.Membership
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id}/members [get]
func (h *CompanyHandler) ListMembers(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	members, err := h.companyService.ListMembers(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, members)
}

// AddMember godoc
// @Summary Add a user to a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param request body AddMemberRequest true "Membership data"
// @Success 201 {object} model.Membership
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /companies/{id}/members [post]
func (h *CompanyHandler) AddMember(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	membership, err := h.companyService.AddMember(c.Request().Context(), actor, id, req.UserID, req.Role)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, membership)
}

// RemoveMember godoc
// @Summary Remove a user from a company
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param userId path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id}/members/{userId} [delete]
func (h *CompanyHandler) RemoveMember(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	if err := h.companyService.RemoveMember(c.Request().Context(), actor, id, userID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "member removed"})
}

// Stats godoc
// @Summary Get company statistics
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {object} service.CompanyStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id}/stats [get]
func (h *CompanyHandler) Stats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.companyService.Stats(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, stats)
}
