package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"projecthub/internal/cache"
	"projecthub/internal/model"
)

const refreshTokenKeyPrefix = "refresh_token:"

// RefreshTokenData is the server-side record kept for each issued refresh
// token. A refresh token whose record is gone is treated as revoked.
type RefreshTokenData struct {
	UserID uuid.UUID      `json:"user_id"`
	Email  string         `json:"email"`
	Role   model.UserRole `json:"role"`
}

// TokenStoreInterface defines the interface for refresh token storage.
type TokenStoreInterface interface {
	StoreRefreshToken(ctx context.Context, tokenID string, data RefreshTokenData, ttl time.Duration) error
	GetRefreshToken(ctx context.Context, tokenID string) (*RefreshTokenData, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
}

// TokenStore handles storage and retrieval of refresh tokens in Redis.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// StoreRefreshToken stores a refresh token record with TTL.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, tokenID string, data RefreshTokenData, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	return s.cache.Set(ctx, refreshTokenKeyPrefix+tokenID, payload, ttl)
}

// GetRefreshToken retrieves a refresh token record.
func (s *TokenStore) GetRefreshToken(ctx context.Context, tokenID string) (*RefreshTokenData, error) {
	raw, err := s.cache.Get(ctx, refreshTokenKeyPrefix+tokenID)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("refresh token not found")
	}

	var data RefreshTokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal token data: %w", err)
	}
	return &data, nil
}

// DeleteRefreshToken removes a refresh token record.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshTokenKeyPrefix+tokenID)
}
