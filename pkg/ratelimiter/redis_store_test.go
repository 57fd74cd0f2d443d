package ratelimiter_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mofumofu/authcore/pkg/ratelimiter"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if os.Getenv("SKIP_DOCKER") == "1" {
		t.Skip("SKIP_DOCKER=1 set; skipping integration test")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	var client *redis.Client
	err = pool.Retry(func() error {
		client = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("localhost:%s", resource.GetPort("6379/tcp")),
		})
		return client.Ping(context.Background()).Err()
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore(t *testing.T) {
	client := startRedis(t)
	store := ratelimiter.NewRedisStore(client, ratelimiter.WithRedisKeyPrefix("test:"))
	ctx := context.Background()

	cfg := ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Second}
	limiter, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)

	for range cfg.Capacity {
		res, err := limiter.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	}

	res, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, res.Allowed())
	assert.True(t, res.ResetAt.After(time.Now().Add(-time.Second)))

	ttl, err := client.PTTL(ctx, "test:k").Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)

	require.NoError(t, limiter.Reset(ctx, "k"))
	res, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, cfg.Capacity-1, res.Remaining)

	require.Eventually(t, func() bool {
		st, err := limiter.Status(ctx, "k")
		return err == nil && st.Remaining == cfg.Capacity
	}, 3*time.Second, 100*time.Millisecond)
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	defer client.Close()

	store := ratelimiter.NewRedisStore(client)
	_, _, err := store.ConsumeTokens(context.Background(), "k", 1, testConfig)
	require.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}
