//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedis_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	client := startRedis(t)
	c := NewRedis(client, "zoo-test")

	require.NoError(t, c.Set(ctx, "analytics:dashboard", overview{Animals: 7}, time.Minute))
	require.NoError(t, c.Set(ctx, "analytics:species", overview{Animals: 2}, time.Minute))
	require.NoError(t, c.Set(ctx, "other:key", overview{Animals: 1}, time.Minute))

	var got overview
	ok, err := c.Get(ctx, "analytics:dashboard", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, got.Animals)

	ttl, err := client.TTL(ctx, "zoo-test:analytics:dashboard").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, c.Invalidate(ctx, "analytics:"))

	ok, err = c.Get(ctx, "analytics:species", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.Get(ctx, "other:key", &got)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedis_MemoizeComputesOnce(t *testing.T) {
	ctx := context.Background()
	c := NewRedis(startRedis(t), "zoo-test")

	calls := 0
	fn := func(context.Context) (overview, error) {
		calls++
		return overview{Animals: calls}, nil
	}

	first, err := Memoize(ctx, c, "analytics:memo", time.Minute, fn)
	require.NoError(t, err)
	second, err := Memoize(ctx, c, "analytics:memo", time.Minute, fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}
