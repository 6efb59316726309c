// Package admission implements the pre-database admission gate for
// booking requests.  Under extreme contention on a single event, most
// requests are doomed to lose the optimistic-locking race; the gate
// sheds them against a shared Redis counter before they reach MySQL.
// The gate is advisory only — the conditional update in the events
// table remains the correctness boundary — so every failure on this
// path degrades to admitting the request.
package admission

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Strategy is the capability set of an admission controller.  Exactly
// one implementation is selected at process start; the booking engine
// never switches strategies at runtime.
type Strategy interface {
	// Admit reports whether a booking attempt for the given number of
	// seats should proceed to the database.  When it returns true the
	// requested seats are counted as reserved-but-unconfirmed until
	// Release is called.
	Admit(ctx context.Context, eventID uint64, seats uint32) bool

	// Release returns reserved-but-unconfirmed seats to the gate.
	// Best-effort: the counter is advisory and bounded by Sync.
	Release(ctx context.Context, eventID uint64, seats uint32)

	// Sync overwrites the gate's available counter with the
	// authoritative remaining capacity from the database.  Best-effort;
	// used after successful mutations and on event creation to bound
	// drift from fail-open admissions and missed releases.
	Sync(ctx context.Context, eventID uint64, available uint32)
}

// Strategy names accepted by FromEnv.
const (
	StrategyOptimistic = "optimistic"
	StrategyRedis      = "redis"
)

// FromEnv selects a strategy by name.  "redis" requires a client; when
// the client is nil (Redis unreachable at startup) the no-op strategy
// is returned so the service still comes up, which is the same
// behavior the fail-open gate would exhibit anyway.
func FromEnv(name string, rdb *redis.Client) Strategy {
	if strings.EqualFold(name, StrategyRedis) && rdb != nil {
		return NewRedisStrategy(rdb)
	}
	return Optimistic{}
}
