package main

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"projecthub/internal/config"
	"projecthub/internal/db"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

const seedPassword = "password123"

type seedUser struct {
	Email     string
	FirstName string
	LastName  string
	Role      model.UserRole
}

var seedUsers = []seedUser{
	{Email: "admin@projecthub.local", FirstName: "Ada", LastName: "Admin", Role: model.RoleAdmin},
	{Email: "erin@acme.test", FirstName: "Erin", LastName: "Employee", Role: model.RoleEmployee},
	{Email: "frank@acme.test", FirstName: "Frank", LastName: "Freelancer", Role: model.RoleFreelancer},
	{Email: "carla@client.test", FirstName: "Carla", LastName: "Client", Role: model.RoleClient},
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
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
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	ctx := context.Background()
	userRepo := repository.NewUserRepository(gormDB)
	companyRepo := repository.NewCompanyRepository(gormDB)

	users, created, err := seedDemoUsers(ctx, userRepo)
	if err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}
	log.Printf("Users ready (%d created, %d existing)", created, len(users)-created)

	company, err := companyRepo.FindByName(ctx, "Acme Studio")
	if err != nil && err != gorm.ErrRecordNotFound {
		log.Fatalf("Failed to look up company: %v", err)
	}
	if company != nil {
		log.Println("Demo company already exists, nothing more to seed")
		return
	}

	if err := seedDemoData(gormDB, users); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Demo login: %s / %s", seedUsers[0].Email, seedPassword)
}

// seedDemoUsers creates the demo accounts, keyed by email so reruns are safe.
func seedDemoUsers(ctx context.Context, repo repository.UserRepository) (map[model.UserRole]*model.User, int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, 0, err
	}

	users := make(map[model.UserRole]*model.User, len(seedUsers))
	created := 0
	for _, su := range seedUsers {
		existing, err := repo.FindByEmail(ctx, su.Email)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, created, err
		}
		if existing != nil {
			users[su.Role] = existing
			continue
		}

		user := &model.User{
			Email:        su.Email,
			PasswordHash: string(hash),
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			Role:         su.Role,
			IsActive:     true,
		}
		if err := repo.Create(ctx, user); err != nil {
			return nil, created, err
		}
		users[su.Role] = user
		created++
		log.Printf("Created %s user: %s", su.Role, su.Email)
	}
	return users, created, nil
}

// seedDemoData builds one company with memberships, projects, tasks, time
// entries, a signed contract and a sent invoice. Runs in one transaction so
// a failed rerun never leaves a half-seeded company behind.
func seedDemoData(gormDB *gorm.DB, users map[model.UserRole]*model.User) error {
	admin := users[model.RoleAdmin]
	employee := users[model.RoleEmployee]
	freelancer := users[model.RoleFreelancer]
	client := users[model.RoleClient]

	now := time.Now()
	return gormDB.Transaction(func(tx *gorm.DB) error {
		company := &model.Company{
			Name:     "Acme Studio",
			Email:    "hello@acme.test",
			Website:  "https://acme.test",
			IsActive: true,
		}
		if err := tx.Create(company).Error; err != nil {
			return err
		}
		log.Printf("Created company: %s", company.Name)

		memberships := []model.Membership{
			{CompanyID: company.ID, UserID: employee.ID, Role: "member"},
			{CompanyID: company.ID, UserID: freelancer.ID, Role: "member"},
			{CompanyID: company.ID, UserID: client.ID, Role: "member"},
		}
		if err := tx.Create(&memberships).Error; err != nil {
			return err
		}
		log.Printf("Created %d memberships", len(memberships))

		budget := decimal.NewFromInt(25000)
		rate := decimal.NewFromInt(85)
		start := now.AddDate(0, -1, 0)
		website := &model.Project{
			CompanyID:   company.ID,
			Name:        "Website Redesign",
			Description: "Rebuild of the public marketing site.",
			Status:      model.ProjectStatusActive,
			StartDate:   &start,
			Budget:      &budget,
			HourlyRate:  &rate,
			CreatedBy:   admin.ID,
		}
		internal := &model.Project{
			CompanyID: company.ID,
			Name:      "Internal Tooling",
			Status:    model.ProjectStatusPlanning,
			CreatedBy: admin.ID,
		}
		if err := tx.Create(website).Error; err != nil {
			return err
		}
		if err := tx.Create(internal).Error; err != nil {
			return err
		}
		log.Println("Created 2 projects")

		completedAt := now.AddDate(0, 0, -3)
		tasks := []model.Task{
			{
				ProjectID:   website.ID,
				Title:       "Design homepage wireframes",
				Status:      model.TaskStatusCompleted,
				Priority:    model.TaskPriorityHigh,
				AssignedTo:  &employee.ID,
				CompletedAt: &completedAt,
				CreatedBy:   admin.ID,
			},
			{
				ProjectID:  website.ID,
				Title:      "Implement responsive layout",
				Status:     model.TaskStatusInProgress,
				Priority:   model.TaskPriorityMedium,
				AssignedTo: &freelancer.ID,
				CreatedBy:  admin.ID,
			},
			{
				ProjectID: website.ID,
				Title:     "Content migration",
				Status:    model.TaskStatusTodo,
				Priority:  model.TaskPriorityLow,
				CreatedBy: admin.ID,
			},
			{
				ProjectID: internal.ID,
				Title:     "Evaluate CI providers",
				Status:    model.TaskStatusTodo,
				Priority:  model.TaskPriorityMedium,
				CreatedBy: admin.ID,
			},
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return err
		}
		log.Printf("Created %d tasks", len(tasks))

		entryStart := now.AddDate(0, 0, -4)
		entryEnd := entryStart.Add(90 * time.Minute)
		secondStart := now.AddDate(0, 0, -2)
		secondEnd := secondStart.Add(3 * time.Hour)
		approvedAt := now.AddDate(0, 0, -1)
		entries := []model.TimeEntry{
			{
				TaskID:          tasks[0].ID,
				UserID:          employee.ID,
				Description:     "Wireframe drafts and review",
				StartTime:       entryStart,
				EndTime:         &entryEnd,
				DurationMinutes: 90,
				IsBillable:      true,
				HourlyRate:      &rate,
				IsApproved:      true,
				ApprovedBy:      &admin.ID,
				ApprovedAt:      &approvedAt,
			},
			{
				TaskID:          tasks[1].ID,
				UserID:          freelancer.ID,
				Description:     "Grid and breakpoint work",
				StartTime:       secondStart,
				EndTime:         &secondEnd,
				DurationMinutes: 180,
				IsBillable:      true,
				HourlyRate:      &rate,
			},
		}
		if err := tx.Create(&entries).Error; err != nil {
			return err
		}
		log.Printf("Created %d time entries", len(entries))

		signedAt := now.AddDate(0, -1, 5)
		contractValue := decimal.NewFromInt(25000)
		contract := &model.Contract{
			CompanyID:      company.ID,
			ProjectID:      &website.ID,
			Title:          "Website Redesign Agreement",
			Status:         model.ContractStatusSigned,
			TotalValue:     &contractValue,
			StartDate:      &start,
			SignedByClient: client.FullName(),
			SignedAt:       &signedAt,
			CreatedBy:      admin.ID,
		}
		if err := tx.Create(contract).Error; err != nil {
			return err
		}
		log.Printf("Created contract: %s", contract.Title)

		invoice := &model.Invoice{
			CompanyID:     company.ID,
			ProjectID:     &website.ID,
			InvoiceNumber: "INV-SEED-0001",
			Description:   "First milestone",
			Status:        model.InvoiceStatusSent,
			Subtotal:      decimal.NewFromInt(3825),
			TaxRate:       decimal.NewFromInt(10),
			TaxAmount:     decimal.NewFromFloat(382.50),
			TotalAmount:   decimal.NewFromFloat(4207.50),
			DueDate:       now.AddDate(0, 1, 0),
			CreatedBy:     admin.ID,
			Items: []model.InvoiceItem{
				{
					Description: "Design and layout work",
					Quantity:    decimal.NewFromFloat(45),
					UnitPrice:   decimal.NewFromInt(85),
					TotalPrice:  decimal.NewFromInt(3825),
				},
			},
		}
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		log.Printf("Created invoice: %s", invoice.InvoiceNumber)
		return nil
	})
}
