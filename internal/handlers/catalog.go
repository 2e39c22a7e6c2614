package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/maurigift/internal/middleware"
	"github.com/example/maurigift/internal/services"
)

// CatalogHandler serves storefront reference data.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListProducts returns active products grouped by category name.
func (h *CatalogHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": products})
}

// ListCategories returns categories with their active product counts.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// CategoryNames returns categories ordered by name.
func (h *CatalogHandler) CategoryNames(c *fiber.Ctx) error {
	categories, err := h.catalog.CategoryNames(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *CatalogHandler) PaymentMethods(c *fiber.Ctx) error {
	methods, err := h.catalog.PaymentMethods(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"payment_methods": methods})
}

func (h *CatalogHandler) Settings(c *fiber.Ctx) error {
	settings, err := h.catalog.Settings(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settings": settings})
}

// ProductGuides returns redemption steps once the caller owns the product.
func (h *CatalogHandler) ProductGuides(c *fiber.Ctx) error {
	user, _ := middleware.GetCurrentUser(c)

	guides, err := h.catalog.ProductGuides(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"guides": guides})
}
