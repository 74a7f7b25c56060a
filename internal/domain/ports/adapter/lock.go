package adapter

import (
	"context"
	"time"
)

// Locker is a best-effort advisory lock used to coalesce concurrent
// reconciliation of the same gateway payment across instances. The database
// transaction remains the correctness boundary; the lock only avoids wasted
// duplicate gateway fetches.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}
