// Package ratelimit counts requests per key in fixed windows. A window starts
// at the first hit and is replaced by a fresh one once more than the window
// length has passed since it started.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Result is the state of a bucket right after a hit was recorded.
type Result struct {
	Count   int
	ResetAt time.Time
}

// Exceeded reports whether the recorded hit went over max.
func (r Result) Exceeded(max int) bool {
	return r.Count > max
}

// RetryAfter is the time left in the window, at least one second.
func (r Result) RetryAfter(now time.Time) time.Duration {
	d := r.ResetAt.Sub(now)
	if d < time.Second {
		return time.Second
	}
	return d
}

// Store records hits atomically: concurrent hits on one key never lose an
// increment.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration, now time.Time) (Result, error)
	Close() error
}

// Kinds accepted by RATE_LIMIT_STORE.
const (
	KindMemory   = "memory"
	KindRedis    = "redis"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// ErrUnknownKind is returned by callers that select a store by name.
type ErrUnknownKind struct{ Kind string }

func (e ErrUnknownKind) Error() string {
	return fmt.Sprintf("ratelimit: unknown store %q", e.Kind)
}

func expired(windowStart, now time.Time, window time.Duration) bool {
	return now.Sub(windowStart) > window
}
