package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/maurigift/internal/middleware"
	"github.com/example/maurigift/internal/services"
)

type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications; ?mark_seen=true flips all unseen ones first.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	list, err := h.notifications.List(c.UserContext(), user.ID, c.QueryBool("mark_seen", false))
	if err != nil {
		return err
	}
	return c.JSON(list)
}
