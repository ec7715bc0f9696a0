package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"projecthub/internal/auth"
	"projecthub/internal/authz"
	"projecthub/internal/errors"
	"projecthub/internal/model"
	"projecthub/internal/repository"
)

const bcryptCost = 10

// TokenPair bundles the two credential kinds issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService handles registration, login and the token lifecycle.
type AuthService interface {
	Register(ctx context.Context, email, password, firstName, lastName string, role model.UserRole) (*model.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	// ResolveActor maps verified claims onto a live, active user account.
	ResolveActor(ctx context.Context, claims *auth.Claims) (authz.Actor, error)
	ChangePassword(ctx context.Context, actor authz.Actor, target model.User, currentPassword, newPassword string) error
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
}

// NewAuthService creates a new authentication service.
func NewAuthService(userRepo repository.UserRepository, jwtService *auth.JWTService, tokenStore auth.TokenStoreInterface) AuthService {
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
	}
}

// Register creates a new user with a hashed password and issues tokens.
func (s *authService) Register(ctx context.Context, email, password, firstName, lastName string, role model.UserRole) (*model.User, *TokenPair, error) {
	if role == "" {
		role = model.RoleEmployee
	}
	if !role.Valid() {
		return nil, nil, errors.ValidationField("role", "unknown role")
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, nil, errors.ValidationField("email", "email already in use")
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
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
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login authenticates a user. Unknown email and wrong password produce the
// same message so credentials cannot be probed.
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, errors.Unauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, errors.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, nil, errors.Unauthorized("account is inactive")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	data := auth.RefreshTokenData{UserID: user.ID, Email: user.Email, Role: user.Role}
	if err := s.tokenStore.StoreRefreshToken(ctx, tokenID, data, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh validates a refresh token against the store and returns a new
// access token. Verification fails closed.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return "", errors.Unauthorized("invalid or expired refresh token")
	}
	if claims.ID == "" {
		return "", errors.Unauthorized("invalid or expired refresh token")
	}
	stored, err := s.tokenStore.GetRefreshToken(ctx, claims.ID)
	if err != nil {
		return "", errors.Unauthorized("invalid or expired refresh token")
	}
	if stored.UserID != claims.UserID || stored.Email != claims.Email {
		return "", errors.Unauthorized("invalid or expired refresh token")
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.UserID, claims.Email, claims.Role)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes a refresh token.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	tokenID, err := s.jwtService.ExtractRefreshTokenID(refreshToken)
	if err != nil {
		return errors.Unauthorized("invalid or expired refresh token")
	}
	return s.tokenStore.DeleteRefreshToken(ctx, tokenID)
}

// ResolveActor rejects claims whose user no longer exists or was
// deactivated after the token was issued.
func (s *authService) ResolveActor(ctx context.Context, claims *auth.Claims) (authz.Actor, error) {
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return authz.Actor{}, errors.Unauthorized("unknown user")
	}
	if !user.IsActive {
		return authz.Actor{}, errors.Unauthorized("account is inactive")
	}
	return authz.Actor{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// ChangePassword lets a user rotate their own password with the current one,
// and lets an admin set anyone's without it.
func (s *authService) ChangePassword(ctx context.Context, actor authz.Actor, target model.User, currentPassword, newPassword string) error {
	if actor.ID != target.ID && !actor.IsAdmin() {
		return errors.Forbidden("admin role required")
	}
	if actor.ID == target.ID && !actor.IsAdmin() {
		if err := bcrypt.CompareHashAndPassword([]byte(target.PasswordHash), []byte(currentPassword)); err != nil {
			return errors.ValidationField("currentPassword", "current password is incorrect")
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	target.PasswordHash = string(hashed)
	if err := s.userRepo.Update(ctx, &target); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}
