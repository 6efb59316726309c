package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListingKeyDeterministic(t *testing.T) {
	assert.Equal(t, "events:list:page=1&size=20&upcoming=false", ListingKey(1, 20, false))
	assert.Equal(t, "events:list:page=3&size=50&upcoming=true", ListingKey(3, 50, true))
	assert.Equal(t, ListingKey(2, 10, true), ListingKey(2, 10, true))
	assert.NotEqual(t, ListingKey(2, 10, true), ListingKey(2, 10, false))
}

func TestListingCacheDisabledWithoutRedis(t *testing.T) {
	c := NewListingCache(nil, time.Minute)
	ctx := context.Background()

	var dest map[string]any
	assert.False(t, c.Get(ctx, 1, 20, false, &dest), "nil client always misses")

	// Writes and invalidation must be silent no-ops.
	c.Set(ctx, 1, 20, false, map[string]int{"total": 3})
	c.Invalidate(ctx)
	assert.False(t, c.Get(ctx, 1, 20, false, &dest))
}

func TestNewListingCacheClampsTTL(t *testing.T) {
	c := NewListingCache(nil, 0)
	assert.Equal(t, 5*time.Minute, c.ttl)

	c = NewListingCache(nil, -time.Second)
	assert.Equal(t, 5*time.Minute, c.ttl)

	c = NewListingCache(nil, 30*time.Second)
	assert.Equal(t, 30*time.Second, c.ttl)
}
