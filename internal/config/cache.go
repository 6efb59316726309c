package config

import (
	"os"
	"strconv"
	"time"
)

// CacheConfig defines settings for the event-listing cache.  TTL
// bounds staleness independently of explicit invalidation; when
// Enabled is false or no Redis client is available, caching is
// disabled entirely.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults: enabled, five-minute TTL.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: getenv("CACHE_ENABLED", "true") == "true",
		TTL:     parseDur(getenv("CACHE_TTL", "5m")),
	}
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
