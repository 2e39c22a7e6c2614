package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/maurigift/internal/services"
	"github.com/example/maurigift/internal/utils"
)

// RateLimit throttles requests per client IP. A nil limiter lets everything through.
func RateLimit(limiter *utils.KeyedLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.Allow(c.IP()) {
			return services.RateLimitedError()
		}
		return c.Next()
	}
}
