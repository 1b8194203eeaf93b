package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a sliding window over a Redis sorted set so every
// server instance observes the same count. All commands for one check run in
// a single MULTI/EXEC round trip; the store never sees a bare read followed
// by a bare write.
type RedisLimiter struct {
	client redis.UniversalClient
	policy Policy
	now    func() time.Time
}

// NewRedisLimiter builds a limiter for one policy.
func NewRedisLimiter(client redis.UniversalClient, policy Policy) *RedisLimiter {
	return &RedisLimiter{client: client, policy: policy, now: time.Now}
}

// Check records the request and decides admission. Denied requests still
// count toward the window, so hammering a closed door does not reopen it sooner.
func (l *RedisLimiter) Check(ctx context.Context, identifier string) (Result, error) {
	now := l.now()
	key := "rl:" + l.policy.Namespace + ":" + identifier
	windowStart := now.Add(-l.policy.Window)

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.Expire(ctx, key, l.policy.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit check %s: %w", l.policy.Namespace, err)
	}

	count := int(countCmd.Val())
	remaining := l.policy.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(l.policy.Window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		resetAt = time.Unix(0, int64(oldest[0].Score)).Add(l.policy.Window)
	}

	return Result{
		Allowed:   count <= l.policy.Limit,
		Limit:     l.policy.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
