package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request, at a level chosen by status class.
// Errors are rendered here so outer middleware sees the final status.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()

		entry := logrus.WithFields(logrus.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.IP(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		})
		if user, ok := GetCurrentUser(c); ok {
			entry = entry.WithField("user_id", user.ID)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			entry.WithError(chainErr).Error("request failed")
		case status >= fiber.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Info("request")
		}
		return nil
	}
}
