package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"projecthub/internal/auth"
	"projecthub/internal/config"
	"projecthub/internal/errors"
	"projecthub/internal/handler"
	"projecthub/internal/service"
)

// Handlers bundles the handler set the router wires up.
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Company      *handler.CompanyHandler
	Project      *handler.ProjectHandler
	Task         *handler.TaskHandler
	TimeEntry    *handler.TimeEntryHandler
	Contract     *handler.ContractHandler
	Invoice      *handler.InvoiceHandler
	Notification *handler.NotificationHandler
	Portal       *handler.PortalHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, authService service.AuthService, h Handlers) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.POST("/auth/logout", h.Auth.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return &auth.Claims{}
		},
	}), actorMiddleware(authService))

	secured.GET("/me", h.Auth.Me)

	// User routes
	secured.GET("/users", h.User.List)
	secured.POST("/users", h.User.Create)
	secured.GET("/users/:id", h.User.Get)
	secured.PUT("/users/:id", h.User.Update)
	secured.DELETE("/users/:id", h.User.Delete)
	secured.PUT("/users/:id/password", h.Auth.ChangePassword)

	// Company routes
	secured.GET("/companies", h.Company.List)
	secured.POST("/companies", h.Company.Create)
	secured.GET("/companies/:id", h.Company.Get)
	secured.PUT("/companies/:id", h.Company.Update)
	secured.DELETE("/companies/:id", h.Company.Delete)
	secured.GET("/companies/:id/members", h.Company.ListMembers)
	secured.POST("/companies/:id/members", h.Company.AddMember)
	secured.DELETE("/companies/:id/members/:userId", h.Company.RemoveMember)
	secured.GET("/companies/:id/stats", h.Company.Stats)

	// Project routes
	secured.GET("/projects", h.Project.List)
	secured.POST("/projects", h.Project.Create)
	secured.GET("/projects/:id", h.Project.Get)
	secured.PUT("/projects/:id", h.Project.Update)
	secured.DELETE("/projects/:id", h.Project.Delete)
	secured.GET("/projects/:id/stats", h.Project.Stats)

	// Task routes
	secured.GET("/tasks", h.Task.List)
	secured.POST("/tasks", h.Task.Create)
	secured.GET("/tasks/:id", h.Task.Get)
	secured.PUT("/tasks/:id", h.Task.Update)
	secured.DELETE("/tasks/:id", h.Task.Delete)
	secured.GET("/tasks/:id/comments", h.Task.ListComments)
	secured.POST("/tasks/:id/comments", h.Task.AddComment)

	// Time entry routes. Timer routes come before /:id so "timer" never
	// parses as an id.
	secured.GET("/time-entries", h.TimeEntry.List)
	secured.POST("/time-entries", h.TimeEntry.Create)
	secured.POST("/time-entries/timer/start", h.TimeEntry.StartTimer)
	secured.POST("/time-entries/timer/stop", h.TimeEntry.StopTimer)
	secured.GET("/time-entries/timer/active", h.TimeEntry.ActiveTimer)
	secured.GET("/time-entries/:id", h.TimeEntry.Get)
	secured.PUT("/time-entries/:id", h.TimeEntry.Update)
	secured.DELETE("/time-entries/:id", h.TimeEntry.Delete)
	secured.POST("/time-entries/:id/approve", h.TimeEntry.Approve)
	secured.POST("/time-entries/:id/unapprove", h.TimeEntry.Unapprove)

	// Contract routes
	secured.GET("/contracts", h.Contract.List)
	secured.POST("/contracts", h.Contract.Create)
	secured.GET("/contracts/:id", h.Contract.Get)
	secured.PUT("/contracts/:id", h.Contract.Update)
	secured.DELETE("/contracts/:id", h.Contract.Delete)
	secured.POST("/contracts/:id/sign", h.Contract.Sign)

	// Invoice routes
	secured.GET("/invoices", h.Invoice.List)
	secured.POST("/invoices", h.Invoice.Create)
	secured.GET("/invoices/:id", h.Invoice.Get)
	secured.PUT("/invoices/:id", h.Invoice.Update)
	secured.DELETE("/invoices/:id", h.Invoice.Delete)
	secured.POST("/invoices/:id/pay", h.Invoice.MarkAsPaid)

	// Notification routes
	secured.GET("/notifications", h.Notification.List)
	secured.GET("/notifications/unread-count", h.Notification.UnreadCount)
	secured.PUT("/notifications/read-all", h.Notification.MarkAllRead)
	secured.PUT("/notifications/:id/read", h.Notification.MarkRead)
	secured.DELETE("/notifications/:id", h.Notification.Delete)

	// Client portal routes
	secured.GET("/portal/dashboard", h.Portal.Dashboard)
	secured.GET("/portal/projects", h.Portal.Projects)
	secured.GET("/portal/contracts", h.Portal.Contracts)
	secured.GET("/portal/invoices", h.Portal.Invoices)
	secured.GET("/reports/activity", h.Portal.ActivityReport)
}

// actorMiddleware resolves the verified JWT claims to a live actor, so a
// deactivated or deleted account is rejected even while its token is still
// cryptographically valid.
func actorMiddleware(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return unauthorized("missing or invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return unauthorized("missing or invalid token")
			}

			actor, err := authService.ResolveActor(c.Request().Context(), claims)
			if err != nil {
				httpErr := errors.MapToHTTP(err)
				return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
			}
			handler.SetActor(c, actor)
			return next(c)
		}
	}
}

func unauthorized(message string) error {
	return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
		Error: message,
		Code:  "UNAUTHORIZED",
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
