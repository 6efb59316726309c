// Package cache provides the Redis cache for event listings.
//
// Only multi-event listings are cached: single-event reads must see
// real-time seat counts, because their callers are typically about to
// attempt a reservation.  Listing entries share the "events:list:"
// prefix so a single SCAN pass can evict them all whenever any write
// changes available seats; the TTL is an independent safety net that
// bounds staleness even if an invalidation pass is missed.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const listingPrefix = "events:list:"

// ListingCache caches serialized event-listing payloads.  A nil Redis
// client disables the cache entirely: Get always misses and Set and
// Invalidate are no-ops, so the service runs unchanged without Redis.
type ListingCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewListingCache builds a cache with the given TTL.  Non-positive
// TTLs fall back to five minutes.
func NewListingCache(rdb *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ListingCache{rdb: rdb, ttl: ttl}
}

// ListingKey derives the deterministic cache key for one listing page.
func ListingKey(page, pageSize int, upcomingOnly bool) string {
	return fmt.Sprintf("%spage=%d&size=%d&upcoming=%t", listingPrefix, page, pageSize, upcomingOnly)
}

// Get returns the cached payload for the page, unmarshalled into dest,
// reporting whether there was a hit.  Redis errors count as misses.
func (c *ListingCache) Get(ctx context.Context, page, pageSize int, upcomingOnly bool, dest any) bool {
	if c.rdb == nil {
		return false
	}
	key := ListingKey(page, pageSize, upcomingOnly)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("cache: corrupt entry %s dropped: %v", key, err)
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// Set stores the payload for the page with the configured TTL.
// Best-effort: a failed write just means the next request misses.
func (c *ListingCache) Set(ctx context.Context, page, pageSize int, upcomingOnly bool, payload any) {
	if c.rdb == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("cache: marshal listing failed: %v", err)
		return
	}
	key := ListingKey(page, pageSize, upcomingOnly)
	if err := c.rdb.SetEx(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

// Invalidate deletes every cached listing page.  The keyspace is small
// (one entry per distinct page/size/filter combination actually
// requested), so the prefix SCAN is a bounded linear pass, not a
// full-store sweep.
func (c *ListingCache) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, listingPrefix+"*", 100).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("cache: delete %s failed: %v", iter.Val(), err)
			continue
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: invalidation scan failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("cache: invalidated %d listing entries", deleted)
	}
}
