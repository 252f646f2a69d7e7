package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecosphere/ecosphere/internal/auth"
	"github.com/ecosphere/ecosphere/internal/bootstrap"
	"github.com/ecosphere/ecosphere/internal/cache"
	"github.com/ecosphere/ecosphere/internal/config"
	"github.com/ecosphere/ecosphere/internal/user"
)

func TestOpen_MemoryStore(t *testing.T) {
	cfg := config.Config{StoreDriver: config.StoreMemory}

	b, err := bootstrap.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer b.Close(context.Background())

	assert.IsType(t, &user.InMemoryRepository{}, b.Users)
	assert.IsType(t, &auth.InMemoryRefreshTokenRepository{}, b.Refresh)
	assert.Nil(t, b.Pool)
	assert.Nil(t, b.Mongo)
	assert.Nil(t, b.Cache)
	assert.Nil(t, b.RankingCache())

	subsystems := b.Subsystems()
	require.Len(t, subsystems, 1)
	assert.Equal(t, "database", subsystems[0].Name)
	assert.False(t, subsystems[0].Optional)
	assert.NoError(t, subsystems[0].Pinger.Ping(context.Background()))
}

func TestBackends_CacheIsOptionalSubsystem(t *testing.T) {
	c := cache.NewFromRedis(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))

	b := &bootstrap.Backends{
		Users: user.NewInMemoryRepository(),
		Cache: c,
	}
	defer b.Close(context.Background())

	assert.NotNil(t, b.RankingCache())

	subsystems := b.Subsystems()
	require.Len(t, subsystems, 2)
	assert.Equal(t, "cache", subsystems[1].Name)
	assert.True(t, subsystems[1].Optional)
	assert.Error(t, subsystems[1].Pinger.Ping(context.Background()))
}
