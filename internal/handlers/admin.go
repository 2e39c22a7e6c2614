package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/example/maurigift/internal/middleware"
	"github.com/example/maurigift/internal/services"
	"github.com/example/maurigift/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	orders  *services.OrderService
	admin   *services.AdminService
	catalog *services.CatalogService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(orders *services.OrderService, admin *services.AdminService, catalog *services.CatalogService) *AdminHandler {
	return &AdminHandler{orders: orders, admin: admin, catalog: catalog}
}

func pageParam(c *fiber.Ctx) *utils.Pagination {
	if page, ok := utils.ParsePagination(c); ok {
		return &page
	}
	return nil
}

func listResponse(key string, items any, total int64, page *utils.Pagination) fiber.Map {
	resp := fiber.Map{key: items, "total": total}
	if page != nil {
		resp["page"] = page.Page
		resp["limit"] = page.Limit
	}
	return resp
}

// ListOrders returns every order, optionally filtered by ?status=.
func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	page := pageParam(c)

	orders, total, err := h.orders.ListForAdmin(c.UserContext(), c.Query("status"), page)
	if err != nil {
		return err
	}
	return c.JSON(listResponse("orders", orders, total, page))
}

type approveRequest struct {
	DeliveryCode string `json:"delivery_code"`
}

// ApproveOrder completes an order under review.
func (h *AdminHandler) ApproveOrder(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)

	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	order, err := h.orders.Approve(c.UserContext(), admin, c.Params("id"), req.DeliveryCode)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectOrder closes an open order with a reason.
func (h *AdminHandler) RejectOrder(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)

	var req rejectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	order, err := h.orders.Reject(c.UserContext(), admin, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "order": order})
}

// ListUsers returns accounts with their order counts.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	page := pageParam(c)

	users, total, err := h.admin.ListUsers(c.UserContext(), page)
	if err != nil {
		return err
	}
	return c.JSON(listResponse("users", users, total, page))
}

type manageProductsRequest struct {
	Action  string                `json:"action"`
	Product services.ProductInput `json:"product"`
}

func (h *AdminHandler) ManageProducts(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)
	ctx := c.UserContext()

	var req manageProductsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	switch req.Action {
	case "list":
		products, err := h.admin.ListProducts(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"products": products})
	case "create":
		product, err := h.admin.CreateProduct(ctx, admin, req.Product)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"product": product})
	case "update":
		product, err := h.admin.UpdateProduct(ctx, admin, req.Product)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"product": product})
	case "delete":
		if err := h.admin.DeleteProduct(ctx, admin, req.Product.ID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
	return fiber.NewError(fiber.StatusBadRequest, msgInvalidAction)
}

type manageCategoriesRequest struct {
	Action   string                 `json:"action"`
	Category services.CategoryInput `json:"category"`
}

func (h *AdminHandler) ManageCategories(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)
	ctx := c.UserContext()

	var req manageCategoriesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	switch req.Action {
	case "list":
		categories, err := h.admin.ListCategories(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"categories": categories})
	case "create":
		category, err := h.admin.CreateCategory(ctx, admin, req.Category)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"category": category})
	case "update":
		category, err := h.admin.UpdateCategory(ctx, admin, req.Category)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"category": category})
	case "delete":
		if err := h.admin.DeleteCategory(ctx, admin, req.Category.ID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
	return fiber.NewError(fiber.StatusBadRequest, msgInvalidAction)
}

type managePaymentMethodsRequest struct {
	Action        string                      `json:"action"`
	PaymentMethod services.PaymentMethodInput `json:"payment_method"`
}

func (h *AdminHandler) ManagePaymentMethods(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)
	ctx := c.UserContext()

	var req managePaymentMethodsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	switch req.Action {
	case "list":
		methods, err := h.admin.ListPaymentMethods(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"payment_methods": methods})
	case "create":
		method, err := h.admin.CreatePaymentMethod(ctx, admin, req.PaymentMethod)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"payment_method": method})
	case "update":
		method, err := h.admin.UpdatePaymentMethod(ctx, admin, req.PaymentMethod)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"payment_method": method})
	case "delete":
		if err := h.admin.DeletePaymentMethod(ctx, admin, req.PaymentMethod.ID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
	return fiber.NewError(fiber.StatusBadRequest, msgInvalidAction)
}

type manageGuidesRequest struct {
	Action string                     `json:"action"`
	Guide  services.ProductGuideInput `json:"guide"`
}

func (h *AdminHandler) ManageProductGuides(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)
	ctx := c.UserContext()

	var req manageGuidesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	switch req.Action {
	case "list":
		guides, err := h.admin.ListProductGuides(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"guides": guides})
	case "create":
		guide, err := h.admin.CreateProductGuide(ctx, admin, req.Guide)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"guide": guide})
	case "update":
		guide, err := h.admin.UpdateProductGuide(ctx, admin, req.Guide)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"guide": guide})
	case "delete":
		if err := h.admin.DeleteProductGuide(ctx, admin, req.Guide.ID); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
	return fiber.NewError(fiber.StatusBadRequest, msgInvalidAction)
}

type manageSettingsRequest struct {
	Action   string                     `json:"action"`
	Settings map[string]json.RawMessage `json:"settings"`
}

func (h *AdminHandler) ManageSettings(c *fiber.Ctx) error {
	admin, _ := middleware.GetCurrentUser(c)
	ctx := c.UserContext()

	var req manageSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgInvalidBody)
	}

	switch req.Action {
	case "get":
		settings, err := h.catalog.Settings(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"settings": settings})
	case "update":
		if err := h.admin.UpdateSettings(ctx, admin, req.Settings); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
	return fiber.NewError(fiber.StatusBadRequest, msgInvalidAction)
}
