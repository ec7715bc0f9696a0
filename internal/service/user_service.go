package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

// UserUpdate carries the mutable user fields; nil means unchanged.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	AvatarURL *string
	Phone     *string
	Role      *model.UserRole
	IsActive  *bool
}

// UserService manages user accounts. Role and activation changes are
// admin-only; profile fields may be changed by the user themselves.
type UserService interface {
	List(ctx context.Context, actor authz.Actor, q repository.UserQuery) ([]model.User, int64, error)
	Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.User, error)
	Create(ctx context.Context, actor authz.Actor, email, password, firstName, lastName string, role model.UserRole) (*model.User, error)
	Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update UserUpdate) (*model.User, error)
	// Deactivate is the delete operation: accounts referenced elsewhere are
	// never hard-deleted, only switched off.
	Deactivate(ctx context.Context, actor authz.Actor, id uuid.UUID) error
}

type userService struct {
	userRepo repository.UserRepository
	engine   *authz.Engine
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, engine *authz.Engine) UserService {
	return &userService{userRepo: userRepo, engine: engine}
}

func (s *userService) List(ctx context.Context, actor authz.Actor, q repository.UserQuery) ([]model.User, int64, error) {
	if err := denied(s.engine.RequireAdmin(actor)); err != nil {
		return nil, 0, err
	}
	return s.userRepo.List(ctx, q)
}

func (s *userService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.User, error) {
	if actor.ID != id {
		if err := denied(s.engine.RequireAdmin(actor)); err != nil {
			return nil, err
		}
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) Create(ctx context.Context, actor authz.Actor, email, password, firstName, lastName string, role model.UserRole) (*model.User, error) {
	if err := denied(s.engine.RequireAdmin(actor)); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, errors.ValidationField("role", "unknown role")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, errors.ValidationField("email", "email already in use")
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Email:        email,
		PasswordHash: string(hashed),
		FirstName:    firstName,
		LastName:     lastName,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, actor authz.Actor, id uuid.UUID, update UserUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFound("user not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if actor.ID != id {
		if err := denied(s.engine.RequireAdmin(actor)); err != nil {
			return nil, err
		}
	}
	// Only admins may change role or activation, even on their own account.
	if (update.Role != nil || update.IsActive != nil) && !actor.IsAdmin() {
		return nil, errors.Forbidden("admin role required")
	}

	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.LastName != nil {
		user.LastName = *update.LastName
	}
	if update.AvatarURL != nil {
		user.AvatarURL = *update.AvatarURL
	}
	if update.Phone != nil {
		user.Phone = *update.Phone
	}
	if update.Role != nil {
		if !update.Role.Valid() {
			return nil, errors.ValidationField("role", "unknown role")
		}
		user.Role = *update.Role
	}
	if update.IsActive != nil {
		user.IsActive = *update.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) Deactivate(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if err := denied(s.engine.RequireAdmin(actor)); err != nil {
		return err
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.NotFound("user not found")
		}
		return fmt.Errorf("find user: %w", err)
	}
	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}
