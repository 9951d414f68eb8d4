package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker defines the interface for distributed concurrency control.
// It lets runners in several processes coordinate writes to the same session.
type DistributedLocker interface {
	// Lock acquires a distributed lock for key (e.g., a session ID).
	// It blocks until the lock is acquired or the context is canceled.
	// The returned UnlockFunc MUST be called to release the lock; ttl bounds how long
	// an abandoned lock survives.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
