package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/ecosphere/ecosphere/internal/cache"
)

func TestNew_EmptyAddrDisablesCache(t *testing.T) {
	c := cache.New(cache.Config{})
	assert.Nil(t, c)

	ctx := context.Background()
	v, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Ping(ctx), cache.ErrDisabled)
	assert.NoError(t, c.Close())
}

func TestClient_UnreachableRedisBehavesAsMiss(t *testing.T) {
	// Nothing listens on port 1; every command fails fast.
	c := cache.NewFromRedis(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	}))
	defer c.Close()

	ctx := context.Background()
	assert.NoError(t, c.Set(ctx, "ranking:top", []byte("[]"), time.Minute))

	v, err := c.Get(ctx, "ranking:top")
	assert.NoError(t, err)
	assert.Nil(t, v)

	assert.NoError(t, c.Delete(ctx, "ranking:top"))
	assert.Error(t, c.Ping(ctx))
}
