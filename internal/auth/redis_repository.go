package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ecosphere/ecosphere/internal/cache"
)

const (
	refreshTokenKeyPrefix = "refresh_token:"
	userTokensKeyPrefix   = "refresh_tokens:user:"
)

// RedisRefreshTokenRepository stores refresh tokens in Redis with a TTL
// matching their expiry. Redis outages surface as unknown tokens.
type RedisRefreshTokenRepository struct {
	cache *cache.Client
	now   func() time.Time
}

// NewRedisRefreshTokenRepository creates a new Redis refresh token repository.
func NewRedisRefreshTokenRepository(c *cache.Client) *RedisRefreshTokenRepository {
	return &RedisRefreshTokenRepository{cache: c, now: time.Now}
}

// Create stores a new refresh token.
func (r *RedisRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	ttl := token.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	if err := r.put(ctx, token, ttl); err != nil {
		return err
	}

	hashes := r.userTokens(ctx, token.UserID)
	hashes = append(hashes, token.TokenHash)
	payload, err := json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("marshal user token index: %w", err)
	}
	return r.cache.Set(ctx, userTokensKeyPrefix+token.UserID, payload, RefreshTokenExpiry)
}

// FindByHash finds a refresh token by its digest.
func (r *RedisRefreshTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	data, err := r.cache.Get(ctx, refreshTokenKeyPrefix+tokenHash)
	if err != nil || data == nil {
		return nil, ErrInvalidRefreshToken
	}

	var token RefreshToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("unmarshal refresh token: %w", err)
	}

	return &token, nil
}

// Revoke removes a refresh token.
func (r *RedisRefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	return r.cache.Delete(ctx, refreshTokenKeyPrefix+tokenHash)
}

// RevokeAllForUser removes every indexed refresh token of the user.
func (r *RedisRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	for _, tokenHash := range r.userTokens(ctx, userID) {
		if err := r.cache.Delete(ctx, refreshTokenKeyPrefix+tokenHash); err != nil {
			return err
		}
	}
	return r.cache.Delete(ctx, userTokensKeyPrefix+userID)
}

func (r *RedisRefreshTokenRepository) put(ctx context.Context, token *RefreshToken, ttl time.Duration) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal refresh token: %w", err)
	}
	return r.cache.Set(ctx, refreshTokenKeyPrefix+token.TokenHash, payload, ttl)
}

func (r *RedisRefreshTokenRepository) userTokens(ctx context.Context, userID string) []string {
	data, _ := r.cache.Get(ctx, userTokensKeyPrefix+userID)
	if data == nil {
		return nil
	}

	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil
	}
	return hashes
}

// Ensure RedisRefreshTokenRepository implements RefreshTokenRepository interface.
var _ RefreshTokenRepository = (*RedisRefreshTokenRepository)(nil)
