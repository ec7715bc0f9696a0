package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/repository"
)

// actorKey is the context key the router's actor middleware stores the
// resolved actor under.
const actorKey = "actor"

// actorFrom returns the authenticated actor placed on the context by the
// router middleware.
func actorFrom(c echo.Context) (authz.Actor, error) {
	actor, ok := c.Get(actorKey).(authz.Actor)
	if !ok {
		return authz.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
			Error: "missing or invalid token",
			Code:  "UNAUTHORIZED",
		})
	}
	return actor, nil
}

// SetActor stores the resolved actor on the context. Called by the router
// middleware only.
func SetActor(c echo.Context, actor authz.Actor) {
	c.Set(actorKey, actor)
}

// fail converts a service error into the transport error shape.
func fail(err error) error {
	httpErr := errors.MapToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// parseID parses the named path parameter as a UUID.
func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid " + name,
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

// bindPagination reads the shared pagination and sorting query parameters.
func bindPagination(c echo.Context) repository.Pagination {
	var p repository.Pagination
	echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		String("sortBy", &p.SortBy).
		String("sortOrder", &p.SortOrder)
	return p.Normalize()
}

// queryUUID reads an optional UUID query parameter.
func queryUUID(c echo.Context, name string) *uuid.UUID {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

// queryBool reads an optional boolean query parameter.
func queryBool(c echo.Context, name string) *bool {
	switch strings.ToLower(c.QueryParam(name)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// queryTime reads an optional RFC 3339 or date-only query parameter.
func queryTime(c echo.Context, name string) *time.Time {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

// ListResponse is the shared pagination envelope for list endpoints.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// listResponse builds the envelope from normalized pagination.
func listResponse(data interface{}, total int64, p repository.Pagination) ListResponse {
	return ListResponse{Data: data, Total: total, Page: p.Page, Limit: p.Limit}
}

// MessageResponse is the shared ack body for operations with no entity to
// return.
type MessageResponse struct {
	Message string `json:"message"`
}
