package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"commitgood/pkg/platform/sentinel"
)

// allowScript trims, counts and conditionally records in one step so that
// replicas sharing a key cannot all pass the same count check.
//
// KEYS[1] window key. ARGV: now (µs), window (µs), limit, member.
// Returns {allowed, used, oldest score (µs)}.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local used = redis.call('ZCARD', key)
local allowed = 0
if used < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, math.max(1, math.ceil(window / 1000)))
	used = used + 1
	allowed = 1
end

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
	oldest = tonumber(first[2])
end
return {allowed, used, oldest}
`)

// RedisStore keeps each window as a sorted set of request timestamps so that
// every replica sees the same counts.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed store. Keys are written as
// "<prefix>:ratelimit:<key>".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "commitgood"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

// Allow records the request only when it is admitted. A denied request
// leaves the window untouched.
func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	now := s.now()
	reply, err := allowScript.Run(ctx, s.client,
		[]string{s.prefix + ":ratelimit:" + key},
		now.UnixMicro(), window.Microseconds(), limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("check rate limit window: %w: %w", sentinel.ErrUnavailable, err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("check rate limit window: unexpected reply %v", reply)
	}

	allowed, used := reply[0] == 1, int(reply[1])
	resetAt := time.UnixMicro(reply[2]).Add(window)
	if !allowed {
		return &Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - used,
		ResetAt:   resetAt,
	}, nil
}
