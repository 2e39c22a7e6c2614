package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/example/maurigift/internal/services"
)

const msgInternal = "حدث خطأ في الخادم"

var kindStatus = []struct {
	kind   error
	status int
}{
	{services.ErrValidation, fiber.StatusBadRequest},
	{services.ErrProductUnavailable, fiber.StatusBadRequest},
	{services.ErrUnauthorized, fiber.StatusUnauthorized},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrNotFound, fiber.StatusNotFound},
	{services.ErrConflict, fiber.StatusConflict},
	{services.ErrInvalidTransition, fiber.StatusConflict},
	{services.ErrRateLimited, fiber.StatusTooManyRequests},
	{services.ErrUpstream, fiber.StatusInternalServerError},
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	for _, ks := range kindStatus {
		if errors.Is(err, ks.kind) {
			return ks.status
		}
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every failure as {"error": message}. Unknown errors are logged
// and replaced by a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := statusFor(err)

	message := msgInternal
	var se *services.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &se):
		message = se.Message
	case errors.As(err, &fe):
		message = fe.Message
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).WithError(err).Error("unhandled error")
	}

	return c.Status(status).JSON(fiber.Map{"error": message})
}
