package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tecpd/internal/domain"

	"github.com/redis/go-redis/v9"
)

// redisLimiter shares one fixed window per key across daemon replicas. The
// counter and its expiry move together inside a single script so two
// replicas can never observe a half-initialized window.
type redisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

var fixedWindowScript = redis.NewScript(`
local hits = redis.call("INCR", KEYS[1])
if hits == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {hits, redis.call("PTTL", KEYS[1])}
`)

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLimiter{client: client, now: now}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}

	reply, err := fixedWindowScript.Run(ctx, r.client, []string{key}, windowMillis).Result()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	hits, ttlMillis, err := decodeWindowReply(reply)
	if err != nil {
		return domain.RateLimitDecision{}, err
	}

	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(hits)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   hits <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

// decodeWindowReply unpacks the {hits, pttl} pair the window script returns.
// A PTTL of -1/-2 (no expiry, missing key) is passed through as non-positive
// and the caller leaves the reset time at now.
func decodeWindowReply(reply any) (hits, ttlMillis int64, err error) {
	pair, ok := reply.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, fmt.Errorf("rate limit script: want {hits, pttl}, got %T", reply)
	}
	hits, ok = pair[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("rate limit script: hit count is %T, not integer", pair[0])
	}
	ttlMillis, _ = pair[1].(int64)
	return hits, ttlMillis, nil
}
