package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "projecthub/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"projecthub/internal/auth"
	"projecthub/internal/authz"
	"projecthub/internal/cache"
	"projecthub/internal/config"
	"projecthub/internal/db"
	"projecthub/internal/handler"
	"projecthub/internal/model"
	"projecthub/internal/repository"
	"projecthub/internal/router"
	"projecthub/internal/service"
)

// @title ProjectHub API
// @version 1.0
// @description Multi-tenant project management API with time tracking, contracts, invoicing and JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	// Drop tables if RESET_DB environment variable is set
	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, dropping all tables...")
		tables := []interface{}{
			&model.Notification{},
			&model.InvoiceItem{},
			&model.Invoice{},
			&model.Contract{},
			&model.Comment{},
			&model.TimeEntry{},
			&model.Task{},
			&model.Project{},
			&model.Membership{},
			&model.Company{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
		log.Println("Tables dropped")
	}

	// Run migrations for all models
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Company{},
		&model.Membership{},
		&model.Project{},
		&model.Task{},
		&model.TimeEntry{},
		&model.Comment{},
		&model.Contract{},
		&model.Invoice{},
		&model.InvoiceItem{},
		&model.Notification{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err := cacheClient.Ping(context.Background()); err != nil {
		log.Fatalf("redis init: %v", err)
	}
	defer cacheClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	companyRepo := repository.NewCompanyRepository(gormDB)
	membershipRepo := repository.NewMembershipRepository(gormDB)
	projectRepo := repository.NewProjectRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	timeEntryRepo := repository.NewTimeEntryRepository(gormDB)
	contractRepo := repository.NewContractRepository(gormDB)
	invoiceRepo := repository.NewInvoiceRepository(gormDB)
	notificationRepo := repository.NewNotificationRepository(gormDB)
	reportRepo := repository.NewReportRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTRefreshSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	engine := authz.NewEngine(membershipRepo)
	notifier := service.NewNotifier(notificationRepo, membershipRepo, taskRepo, userRepo, invoiceRepo, contractRepo)
	defer notifier.Close()

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore)
	userService := service.NewUserService(userRepo, engine)
	companyService := service.NewCompanyService(companyRepo, membershipRepo, userRepo, reportRepo, engine)
	projectService := service.NewProjectService(projectRepo, companyRepo, reportRepo, engine)
	taskService := service.NewTaskService(taskRepo, projectRepo, membershipRepo, userRepo, engine, notifier)
	timeEntryService := service.NewTimeEntryService(timeEntryRepo, taskRepo, engine)
	contractService := service.NewContractService(contractRepo, companyRepo, projectRepo, engine, notifier)
	invoiceService := service.NewInvoiceService(invoiceRepo, companyRepo, projectRepo, engine, notifier)
	notificationService := service.NewNotificationService(notificationRepo)
	portalService := service.NewPortalService(companyRepo, membershipRepo, projectRepo, contractRepo, invoiceRepo, reportRepo)

	// Register routes
	router.Register(e, cfg, authService, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService),
		User:         handler.NewUserHandler(userService),
		Company:      handler.NewCompanyHandler(companyService),
		Project:      handler.NewProjectHandler(projectService),
		Task:         handler.NewTaskHandler(taskService),
		TimeEntry:    handler.NewTimeEntryHandler(timeEntryService),
		Contract:     handler.NewContractHandler(contractService),
		Invoice:      handler.NewInvoiceHandler(invoiceService),
		Notification: handler.NewNotificationHandler(notificationService),
		Portal:       handler.NewPortalHandler(portalService),
	})

	// Log swagger full path
	var swaggerURL string
	if cfg.SwaggerHost != "" {
		// SwaggerHost may already include scheme (http:// or https://)
		if len(cfg.SwaggerHost) >= 7 && cfg.SwaggerHost[:7] == "http://" {
			swaggerURL = cfg.SwaggerHost + "/swagger/index.html"
		} else if len(cfg.SwaggerHost) >= 8 && cfg.SwaggerHost[:8] == "https://" {
			swaggerURL = cfg.SwaggerHost + "/swagger/index.html"
		} else {
			swaggerURL = "http://" + cfg.SwaggerHost + "/swagger/index.html"
		}
	} else {
		swaggerURL = "http://localhost:" + cfg.ServerPort + "/swagger/index.html"
	}
	log.Printf("Swagger documentation available at: %s", swaggerURL)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
