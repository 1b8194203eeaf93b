package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/pantry-service/pkg/util"
)

// Middleware gates a route group on the given limiter. A backend failure
// denies in production and allows with a warning in development; unlimited
// traffic is never silently admitted where it matters.
func Middleware(limiter Limiter, production bool, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := limiter.Check(c.UserContext(), ClientKey(c))
		if err != nil {
			if production {
				logger.Error("rate limit backend unavailable; denying", zap.Error(err))
				return apperrors.NewDomainError("RATE_LIMITED", "service busy", fiber.StatusTooManyRequests, nil)
			}
			logger.Warn("rate limit backend unavailable; allowing", zap.Error(err))
			return c.Next()
		}

		setHeaders(c, result)
		if !result.Allowed {
			retryAfter := int(time.Until(result.ResetAt).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))
			return apperrors.NewRateLimited(result.Limit, result.Remaining, result.ResetAt.Unix(), retryAfter)
		}
		return c.Next()
	}
}

func setHeaders(c *fiber.Ctx, result Result) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
