// Package ratelimit throttles mutating ledger calls per caller with a sliding
// window. Counters live in Redis when configured and in process memory
// otherwise; a Redis outage degrades to the in-memory window.
package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of one Allow check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is the wait in whole seconds before a denied key may retry.
	RetryAfter int
}

// Store counts requests per key inside a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
