package admission

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// admitScript performs the atomic check-and-reserve.  KEYS[1] holds the
// available-seats shadow, KEYS[2] the reserved-but-unconfirmed count,
// ARGV[1] the requested seats.  The request is admitted only if
// (available - reserved) covers the request, and the reservation is
// taken in the same script execution so two concurrent Admit calls can
// never both spend the same margin.  A missing available key means the
// shadow was never seeded; the script admits in that case, leaving the
// decision to the database.
var admitScript = redis.NewScript(`
    local available = redis.call('GET', KEYS[1])
    if not available then
        return 1
    end
    available = tonumber(available)
    local reserved = tonumber(redis.call('GET', KEYS[2])) or 0
    local requested = tonumber(ARGV[1])

    if available - reserved >= requested then
        redis.call('INCRBY', KEYS[2], requested)
        return 1
    end
    return 0
`)

// RedisStrategy gates booking attempts on shared Redis counters.  All
// failures fail open: a Redis outage must degrade the system to plain
// optimistic-locking behavior, never block bookings outright.
type RedisStrategy struct {
	rdb *redis.Client
}

// NewRedisStrategy returns a gate backed by the given client.
func NewRedisStrategy(rdb *redis.Client) *RedisStrategy {
	return &RedisStrategy{rdb: rdb}
}

func seatsKey(eventID uint64) string    { return fmt.Sprintf("seats:%d", eventID) }
func reservedKey(eventID uint64) string { return fmt.Sprintf("reserved:%d", eventID) }

// Admit runs the check-and-reserve script.  Any error — connection
// refused, timeout, script failure — admits the request: the counters
// are advisory and the conditional update downstream is the actual
// guarantee, so failing closed here would turn a cache outage into a
// full booking outage.
func (s *RedisStrategy) Admit(ctx context.Context, eventID uint64, seats uint32) bool {
	result, err := admitScript.Run(ctx, s.rdb,
		[]string{seatsKey(eventID), reservedKey(eventID)}, seats).Result()
	if err != nil {
		log.Printf("admission: check failed for event %d, failing open: %v", eventID, err)
		return true
	}
	code, ok := result.(int64)
	if !ok {
		log.Printf("admission: unexpected script result %T for event %d, failing open", result, eventID)
		return true
	}
	return code == 1
}

// Release decrements the reserved counter.  Errors are swallowed; the
// counter self-corrects on the next Sync.
func (s *RedisStrategy) Release(ctx context.Context, eventID uint64, seats uint32) {
	if err := s.rdb.DecrBy(ctx, reservedKey(eventID), int64(seats)).Err(); err != nil {
		log.Printf("admission: release failed for event %d: %v", eventID, err)
	}
}

// Sync overwrites the available shadow with the authoritative count
// from the database.  Errors are swallowed.
func (s *RedisStrategy) Sync(ctx context.Context, eventID uint64, available uint32) {
	if err := s.rdb.Set(ctx, seatsKey(eventID), available, 0).Err(); err != nil {
		log.Printf("admission: sync failed for event %d: %v", eventID, err)
	}
}
