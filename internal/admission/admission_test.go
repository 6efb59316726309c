package admission

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestOptimisticAlwaysAdmits(t *testing.T) {
	g := Optimistic{}
	ctx := context.Background()

	assert.True(t, g.Admit(ctx, 1, 1))
	assert.True(t, g.Admit(ctx, 1, 1_000_000))

	// No-ops must not panic.
	g.Release(ctx, 1, 5)
	g.Sync(ctx, 1, 42)
}

func TestFromEnvSelection(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer rdb.Close()

	assert.IsType(t, Optimistic{}, FromEnv("optimistic", rdb))
	assert.IsType(t, Optimistic{}, FromEnv("", rdb))
	assert.IsType(t, Optimistic{}, FromEnv("bogus", rdb))
	assert.IsType(t, &RedisStrategy{}, FromEnv("redis", rdb))
	assert.IsType(t, &RedisStrategy{}, FromEnv("REDIS", rdb))

	// redis requested but no client available: degrade to optimistic.
	assert.IsType(t, Optimistic{}, FromEnv("redis", nil))
}

func TestRedisStrategyFailsOpen(t *testing.T) {
	// Nothing listens on port 1, so every command errors immediately.
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	g := NewRedisStrategy(rdb)
	ctx := context.Background()

	assert.True(t, g.Admit(ctx, 1, 3), "an unreachable gate must admit, never block")

	// Best-effort paths must swallow the error.
	g.Release(ctx, 1, 3)
	g.Sync(ctx, 1, 10)
}
