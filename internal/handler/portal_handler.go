package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/service"
)

// PortalHandler handles the client portal endpoints.
type PortalHandler struct {
	portalService service.PortalService
}

// NewPortalHandler creates a new portal handler.
func NewPortalHandler(portalService service.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

// Dashboard godoc
// @Summary Get the client dashboard
// @Tags portal
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.PortalDashboard
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /portal/dashboard [get]
func (h *PortalHandler) Dashboard(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	dashboard, err := h.portalService.Dashboard(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, dashboard)
}

// Projects godoc
// @Summary List the client's projects
// @Tags portal
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Filter by status"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /portal/projects [get]
func (h *PortalHandler) Projects(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.ProjectQuery{
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.ProjectStatus(status)
		q.Status = &s
	}

	projects, total, err := h.portalService.Projects(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(projects, total, q.Pagination))
}

// Contracts godoc
// @Summary List the client's contracts
// @Tags portal
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Filter by status"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /portal/contracts [get]
func (h *PortalHandler) Contracts(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.ContractQuery{
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.ContractStatus(status)
		q.Status = &s
	}

	contracts, total, err := h.portalService.Contracts(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(contracts, total, q.Pagination))
}

// Invoices godoc
// @Summary List the client's invoices
// @Tags portal
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "Filter by status"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /portal/invoices [get]
func (h *PortalHandler) Invoices(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.InvoiceQuery{
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.InvoiceStatus(status)
		q.Status = &s
	}

	invoices, total, err := h.portalService.Invoices(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(invoices, total, q.Pagination))
}

// ActivityReport godoc
// @Summary Summarize the caller's logged time
// @Tags portal
// @Produce json
// @Security BearerAuth
// @Param from query string false "Period start (RFC 3339 or date)"
// @Param to query string false "Period end (RFC 3339 or date)"
// @Success 200 {object} service.ActivityReport
// @Failure 401 {object} errors.ErrorResponse
// @Router /reports/activity [get]
func (h *PortalHandler) ActivityReport(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	report, err := h.portalService.ActivityReport(c.Request().Context(), actor,
		queryTime(c, "from"), queryTime(c, "to"))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, report)
}
