package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"projecthub/internal/repository"
	"projecthub/internal/service"
)

// NotificationHandler handles the caller's notification feed.
type NotificationHandler struct {
	notificationService service.NotificationService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// UnreadCountResponse represents the unread counter.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// MarkAllReadResponse reports how many notifications were marked.
type MarkAllReadResponse struct {
	Marked int64 `json:"marked"`
}

// List godoc
// @Summary List the caller's notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param unreadOnly query bool false "Only unread"
// @Success 200 {object} ListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	q := repository.NotificationQuery{
		Pagination: bindPagination(c),
	}
	if unread := queryBool(c, "unreadOnly"); unread != nil {
		q.UnreadOnly = *unread
	}

	notifications, total, err := h.notificationService.List(c.Request().Context(), actor, q)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, listResponse(notifications, total, q.Pagination))
}

// UnreadCount godoc
// @Summary Count the caller's unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UnreadCountResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	count, err := h.notificationService.UnreadCount(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UnreadCountResponse{Count: count})
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} model.Notification
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	notification, err := h.notificationService.MarkRead(c.Request().Context(), actor, id)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, notification)
}

// MarkAllRead godoc
// @Summary Mark all the caller's notifications as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MarkAllReadResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	marked, err := h.notificationService.MarkAllRead(c.Request().Context(), actor)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MarkAllReadResponse{Marked: marked})
}

// Delete godoc
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) Delete(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationService.Delete(c.Request().Context(), actor, id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "notification deleted"})
}
