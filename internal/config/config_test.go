package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadCacheConfigDefaults(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "")
	t.Setenv("CACHE_TTL", "")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestLoadCacheConfigOverrides(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("CACHE_TTL", "90s")

	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 90*time.Second, cfg.TTL)
}

func TestLoadCacheConfigBadTTL(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")

	cfg := LoadCacheConfig()
	assert.Equal(t, 5*time.Minute, cfg.TTL)
}

func TestLoadRateLimitConfigClamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL, "TTL must outlive several refill intervals")
}

func TestLoadRateLimitConfigDefaults(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("RATE_LIMIT_CAPACITY", "")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "")
	t.Setenv("RATE_LIMIT_TTL", "")
	t.Setenv("RATE_LIMIT_PREFIX", "")

	cfg := LoadRateLimitConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 60, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, "rl", cfg.Prefix)
}
