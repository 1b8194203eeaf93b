package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/pantry-service/internal/config"
)

// Redis wraps the go-redis client backing the distributed rate limiter.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis. In production an unreachable backend is a
// startup failure: the rate limiter must never fall open because the shared
// store was missing. In development it degrades with a warning.
func NewRedis(cfg config.RedisConfig, production bool, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		if production {
			_ = client.Close()
			return nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Addr, err)
		}
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}, nil
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
