package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/services"
)

const userContextKey = "currentUser"

// SessionAuth resolves the bearer token to a user and loads it into context.
// Missing, malformed, unknown and expired tokens all fail with the same 401.
func SessionAuth(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := auth.Authenticate(c.UserContext(), bearerToken(c))
		if err != nil {
			return err
		}

		c.Locals(userContextKey, user)
		return c.Next()
	}
}

// AdminOnly must run after SessionAuth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, _ := GetCurrentUser(c)
		if err := services.RequireAdmin(user); err != nil {
			return err
		}
		return c.Next()
	}
}

// GetCurrentUser extracts the authenticated user from context.
func GetCurrentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(userContextKey).(*models.User)
	return user, ok && user != nil
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
