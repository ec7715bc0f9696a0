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

// TaskHandler handles task and comment endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	ProjectID      uuid.UUID        `json:"project_id" validate:"required"`
	Title          string           `json:"title" validate:"required"`
	Description    string           `json:"description"`
	Status         string           `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW COMPLETED CANCELLED"`
	Priority       string           `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedTo     *uuid.UUID       `json:"assigned_to"`
	ParentTaskID   *uuid.UUID       `json:"parent_task_id"`
	DueDate        *time.Time       `json:"due_date"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours"`
}

// UpdateTaskRequest represents a task update request.
type UpdateTaskRequest struct {
	Title          *string          `json:"title"`
	Description    *string          `json:"description"`
	Status         *string          `json:"status" validate:"omitempty,oneof=TODO IN_PROGRESS REVIEW COMPLETED CANCELLED"`
	Priority       *string          `json:"priority" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	AssignedTo     *uuid.UUID       `json:"assigned_to"`
	Unassign       bool             `json:"unassign"`
	DueDate        *time.Time       `json:"due_date"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours"`
}

// CreateCommentRequest represents a comment creation request.
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// List godoc
// @Summary List tasks visible to the caller
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param projectId query string false "Filter by project"
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param assignedTo query string false "Filter by assignee"
// @Param search query string false "Search in title and description"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.TaskQuery{
		ProjectID:  queryUUID(c, "projectId"),
		AssignedTo: queryUUID(c, "assignedTo"),
		Search:     c.QueryParam("search"),
		Pagination: bindPagination(c),
	}
	if status := c.QueryParam("status"); status != "" {
		s := model.TaskStatus(status)
		q.Status = &s
	}
	if priority := c.QueryParam("priority"); priority != "" {
		p := model.TaskPriority(priority)
		q.Priority = &p
	}

	tasks, total, err := h.taskService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(tasks, total, q.Pagination))
}

// Get godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.Get(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Create godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task := &model.Task{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         model.TaskStatus(req.Status),
		Priority:       model.TaskPriority(req.Priority),
		AssignedTo:     req.AssignedTo,
		ParentTaskID:   req.ParentTaskID,
		DueDate:        req.DueDate,
		EstimatedHours: req.EstimatedHours,
	}
	if err := h.taskService.Create(c.Request().Context(), actor, task); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, task)
}

// Update godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} model.Task
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		update.Priority = &priority
	}
	if req.Unassign {
		update.AssignedTo = &service.UUIDPatch{}
	} else if req.AssignedTo != nil {
		update.AssignedTo = &service.UUIDPatch{Value: req.AssignedTo}
	}
	if req.DueDate != nil {
		update.DueDate = &service.TimePatch{Value: req.DueDate}
	}
	if req.EstimatedHours != nil {
		update.EstimatedHours = &service.DecimalPatch{Value: req.EstimatedHours}
	}

	task, err := h.taskService.Update(c.Request().Context(), actor, id, update)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, task)
}

// Delete godoc
// @Summary Delete an empty task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "task deleted"})
}

// ListComments godoc
// @Summary List task comments
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {array} model.Comment
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/comments [get]
func (h *TaskHandler) ListComments(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.taskService.ListComments(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, comments)
}

// AddComment godoc
// @Summary Comment on a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body CreateCommentRequest true "Comment data"
// @Success 201 {object} model.Comment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.taskService.AddComment(c.Request().Context(), actor, id, req.Content)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, comment)
}
