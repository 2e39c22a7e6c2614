package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/maurigift/internal/middleware"
	"github.com/example/maurigift/internal/services"
)

// OrderHandler manages customer order endpoints.
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder places an order for the current user.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req services.CreateOrderInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	order, err := h.orders.Create(c.UserContext(), user, req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order_id": order.ID,
		"order":    order,
	})
}

// UploadReceipt attaches a base64 receipt image to one of the caller's orders.
func (h *OrderHandler) UploadReceipt(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	var req services.ReceiptInput
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	path, err := h.orders.AttachReceipt(c.UserContext(), user, c.Params("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "path": path})
}

// ListOrders returns the caller's orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	orders, err := h.orders.ListForUser(c.UserContext(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// Receipt streams a stored receipt addressed by a signed link.
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	data, contentType, err := h.orders.OpenReceipt(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "private, max-age=300")
	return c.Send(data)
}
