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

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	projectService service.ProjectService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projectService service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// CreateProjectRequest represents a project creation request.
type CreateProjectRequest struct {
	CompanyID   uuid.UUID        `json:"company_id" validate:"required"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Status      string           `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	Budget      *decimal.Decimal `json:"budget"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

// UpdateProjectRequest represents a project update request. Absent fields
// are left unchanged; explicit nulls are not distinguished here, so fields
// that can be cleared use the dedicated clear flags.
type UpdateProjectRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Status      *string          `json:"status" validate:"omitempty,oneof=PLANNING ACTIVE ON_HOLD COMPLETED CANCELLED"`
	StartDate   *time.Time       `json:"start_date"`
	EndDate     *time.Time       `json:"end_date"`
	Budget      *decimal.Decimal `json:"budget"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

// List godoc
// @Summary List projects visible to the caller
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param companyId query string false "Filter by company"
// @Param status query string false "Filter by status"
// @Param search query string false "Search in name and description"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.ProjectQuery{
		CompanyID:  queryUUID(c, "companyId"),
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.ProjectStatus(status)
		q.Status = &s
	}

	projects, total, err := h.projectService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(projects, total, q.Pagination))
}

// Get godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} model.Project
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	project, err := h.projectService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, project)
}

// Create godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateProjectRequest true "Project data"
// @Success 201 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project := &model.Project{
		CompanyID:   req.CompanyID,
		Name:        req.Name,
		Description: req.Description,
		Status:      model.ProjectStatus(req.Status),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Budget:      req.Budget,
		HourlyRate:  req.HourlyRate,
	}
	if err := h.projectService.Create(c.Request().Context(), actor, project); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, project)
}

// Update godoc
// @Summary Update a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body UpdateProjectRequest true "Fields to update"
// @Success 200 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	update := service.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := model.ProjectStatus(*req.Status)
		update.Status = &status
	}
	if req.StartDate != nil {
		update.StartDate = &service.TimePatch{Value: req.StartDate}
	}
	if req.EndDate != nil {
		update.EndDate = &service.TimePatch{Value: req.EndDate}
	}
	if req.Budget != nil {
		update.Budget = &service.DecimalPatch{Value: req.Budget}
	}
	if req.HourlyRate != nil {
		update.HourlyRate = &service.DecimalPatch{Value: req.HourlyRate}
	}

	project, err := h.projectService.Update(c.Request().Context(), actor, id, update)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, project)
}

// Delete godoc
// @Summary Delete an empty project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.projectService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "project deleted"})
}

// Stats godoc
// @Summary Get project statistics
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} service.ProjectStats
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id}/stats [get]
func (h *ProjectHandler) Stats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	stats, err := h.projectService.Stats(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, stats)
}
