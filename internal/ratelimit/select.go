package ratelimit

import (
	"github.com/redis/go-redis/v9"
)

// ForPolicy selects the backend for one policy. The choice happens exactly
// once, at startup wiring: a shared Redis client when the deployment is
// clustered, the in-memory fallback otherwise. Whether a nil client is
// acceptable at all is decided by the caller before this point (fatal in
// production, warning in development).
func ForPolicy(client redis.UniversalClient, policy Policy, memoryCeiling int) Limiter {
	if client != nil {
		return NewRedisLimiter(client, policy)
	}
	return NewMemoryLimiter(policy, memoryCeiling)
}
