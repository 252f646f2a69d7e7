package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/progression"
	"github.com/ecosphere/ecosphere/internal/user"
)

// mapCache is a RankingCache kept in memory.
type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newRankedService(t *testing.T) (*auth.Service, *progression.Engine) {
	t.Helper()

	users := user.NewInMemoryRepository()
	engine := progression.NewEngine(progression.EngineConfig{
		Store:  users,
		Logger: zerolog.Nop(),
		Cache:  &mapCache{data: map[string][]byte{}},
	})
	svc := auth.NewService(auth.ServiceConfig{
		JWTService:  newTestJWTService("test-secret", "https://api.ecosphere.app", "ecosphere-api"),
		Users:       users,
		RefreshRepo: auth.NewInMemoryRefreshTokenRepository(),
		Ranking:     engine,
		Logger:      zerolog.Nop(),
	})
	return svc, engine
}

func TestService_SignupRefreshesCachedRanking(t *testing.T) {
	svc, engine := newRankedService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &auth.RegisterRequest{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "Recicla#2024",
	})
	require.NoError(t, err)

	ranking, err := engine.Ranking(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, ranking, 1)

	_, err = svc.LoginWithGoogle(ctx, &auth.GoogleLoginRequest{
		ID:    "google-sub-7",
		Name:  "Bia",
		Email: "bia@example.com",
	})
	require.NoError(t, err)

	ranking, err = engine.Ranking(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, "Bia", ranking[0].Name)
	assert.Equal(t, auth.GoogleSignupBonus, ranking[0].Points)

	_, err = svc.Register(ctx, &auth.RegisterRequest{
		Name:     "Caio",
		Email:    "caio@example.com",
		Password: "Recicla#2024",
	})
	require.NoError(t, err)

	ranking, err = engine.Ranking(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, ranking, 3)
}
