package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/service"
)

// TimeEntryHandler handles time tracking endpoints.
type TimeEntryHandler struct {
	timeEntryService service.TimeEntryService
}

// NewTimeEntryHandler creates a new time entry handler.
func NewTimeEntryHandler(timeEntryService service.TimeEntryService) *TimeEntryHandler {
	return &TimeEntryHandler{timeEntryService: timeEntryService}
}

// CreateTimeEntryRequest represents a manual time entry creation request.
type CreateTimeEntryRequest struct {
	TaskID      uuid.UUID  `json:"task_id" validate:"required"`
	UserID      *uuid.UUID `json:"user_id"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time" validate:"required"`
	IsBillable  *bool      `json:"is_billable"`
}

// UpdateTimeEntryRequest represents a time entry update request.
type UpdateTimeEntryRequest struct {
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	IsBillable  *bool      `json:"is_billable"`
}

// StartTimerRequest represents a timer start request.
type StartTimerRequest struct {
	TaskID      uuid.UUID `json:"task_id" validate:"required"`
	Description string    `json:"description"`
}

// List godoc
// @Summary List time entries visible to the caller
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param userId query string false "Filter by user"
// @Param taskId query string false "Filter by task"
// @Param projectId query string false "Filter by project"
// @Param startDate query string false "Entries starting on or after"
// @Param endDate query string false "Entries starting on or before"
// @Param isBillable query bool false "Filter billable"
// @Param isApproved query bool false "Filter approved"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /time-entries [get]
func (h *TimeEntryHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.TimeEntryQuery{
		UserID:     queryUUID(c, "userId"),
		TaskID:     queryUUID(c, "taskId"),
		ProjectID:  queryUUID(c, "projectId"),
		StartDate:  queryTime(c, "startDate"),
		EndDate:    queryTime(c, "endDate"),
		IsBillable: queryBool(c, "isBillable"),
		IsApproved: queryBool(c, "isApproved"),
		Pagination: bindPagination(c),
	}

	entries, total, err := h.timeEntryService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(entries, total, q.Pagination))
}

// Get godoc
// @Summary Get a time entry
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time entry ID"
// @Success 200 {object} model.TimeEntry
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /time-entries/{id} [get]
func (h *TimeEntryHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	entry, err := h.timeEntryService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// Create godoc
// @Summary Log a manual time entry
// @Tags time-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTimeEntryRequest true "Entry data"
// @Success 201 {object} model.TimeEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /time-entries [post]
func (h *TimeEntryHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req CreateTimeEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry := &model.TimeEntry{
		TaskID:      req.TaskID,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     &req.EndTime,
		IsBillable:  true,
	}
	if req.UserID != nil {
		entry.UserID = *req.UserID
	}
	if req.IsBillable != nil {
		entry.IsBillable = *req.IsBillable
	}

	if err := h.timeEntryService.Create(c.Request().Context(), actor, entry); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// Update godoc
// @Summary Update a time entry
// @Tags time-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time entry ID"
// @Param request body UpdateTimeEntryRequest true "Fields to update"
// @Success 200 {object} model.TimeEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /time-entries/{id} [put]
func (h *TimeEntryHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateTimeEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.timeEntryService.Update(c.Request().Context(), actor, id, service.TimeEntryUpdate{
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsBillable:  req.IsBillable,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// Delete godoc
// @Summary Delete a time entry
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time entry ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /time-entries/{id} [delete]
func (h *TimeEntryHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.timeEntryService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "time entry deleted"})
}

// Approve godoc
// @Summary Approve a time entry
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time entry ID"
// @Success 200 {object} model.TimeEntry
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /time-entries/{id}/approve [post]
func (h *TimeEntryHandler) Approve(c echo.Context) error {
	return h.setApproved(c, true)
}

// Unapprove godoc
// @Summary Revoke a time entry approval
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time entry ID"
// @Success 200 {object} model.TimeEntry
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /time-entries/{id}/unapprove [post]
func (h *TimeEntryHandler) Unapprove(c echo.Context) error {
	return h.setApproved(c, false)
}

func (h *TimeEntryHandler) setApproved(c echo.Context, approved bool) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	entry, err := h.timeEntryService.SetApproved(c.Request().Context(), actor, id, approved)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// StartTimer godoc
// @Summary Start the caller's timer
// @Tags time-entries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body StartTimerRequest true "Timer data"
// @Success 201 {object} model.TimeEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /time-entries/timer/start [post]
func (h *TimeEntryHandler) StartTimer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req StartTimerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.timeEntryService.StartTimer(c.Request().Context(), actor, req.TaskID, req.Description)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// StopTimer godoc
// @Summary Stop the caller's running timer
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TimeEntry
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /time-entries/timer/stop [post]
func (h *TimeEntryHandler) StopTimer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	entry, err := h.timeEntryService.StopTimer(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// ActiveTimer godoc
// @Summary Get the caller's running timer
// @Tags time-entries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TimeEntry
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /time-entries/timer/active [get]
func (h *TimeEntryHandler) ActiveTimer(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	entry, err := h.timeEntryService.ActiveTimer(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, entry)
}
