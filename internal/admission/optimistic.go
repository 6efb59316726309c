package admission

import "context"

// Optimistic is the no-op strategy: every request is admitted and the
// database's optimistic locking alone resolves contention.  Suitable
// for deployments without flash-sale traffic, and the fallback when no
// Redis is configured.
type Optimistic struct{}

// Admit always admits.
func (Optimistic) Admit(context.Context, uint64, uint32) bool { return true }

// Release has no counter to return seats to.
func (Optimistic) Release(context.Context, uint64, uint32) {}

// Sync has no shadow state to reconcile.
func (Optimistic) Sync(context.Context, uint64, uint32) {}
