package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"

	"github.com/example/maurigift/internal/handlers"
	"github.com/example/maurigift/internal/metrics"
	"github.com/example/maurigift/internal/middleware"
	"github.com/example/maurigift/internal/services"
	"github.com/example/maurigift/internal/utils"
)

// Deps are the services the HTTP layer is built on.
type Deps struct {
	DB            *gorm.DB
	Auth          *services.AuthService
	OTP           *services.OTPService
	Orders        *services.OrderService
	Notifications *services.NotificationService
	Catalog       *services.CatalogService
	Admin         *services.AdminService
	// AuthLimiter throttles unauthenticated auth endpoints per client IP. Nil disables it.
	AuthLimiter *utils.KeyedLimiter
	Version     string
}

// Register wires up all HTTP routes.
func Register(app *fiber.App, deps Deps) {
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.OTP)
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	orderHandler := handlers.NewOrderHandler(deps.Orders)
	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	adminHandler := handlers.NewAdminHandler(deps.Orders, deps.Admin, deps.Catalog)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Version)

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth", middleware.RateLimit(deps.AuthLimiter))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/otp/request", authHandler.RequestOTP)
	auth.Post("/otp/verify", authHandler.VerifyOTP)

	// Public catalog
	api.Get("/products", catalogHandler.ListProducts)
	api.Get("/categories", catalogHandler.ListCategories)
	api.Get("/categories/names", catalogHandler.CategoryNames)
	api.Get("/payment-methods", catalogHandler.PaymentMethods)
	api.Get("/settings", catalogHandler.Settings)

	// Signed links carry their own authorization.
	api.Get("/receipts/:token", orderHandler.Receipt)

	session := middleware.SessionAuth(deps.Auth)

	api.Get("/me", session, authHandler.Me)
	api.Post("/me/pin", session, authHandler.ChangePIN)
	api.Post("/me/pin/setup", session, authHandler.SetPIN)

	api.Get("/products/:id/guides", session, catalogHandler.ProductGuides)

	api.Post("/orders", session, orderHandler.CreateOrder)
	api.Get("/orders", session, orderHandler.ListOrders)
	api.Post("/orders/:id/receipt", session, orderHandler.UploadReceipt)

	api.Get("/notifications", session, notificationHandler.List)

	// Admin routes
	admin := api.Group("/admin", session, middleware.AdminOnly())
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Post("/orders/:id/approve", adminHandler.ApproveOrder)
	admin.Post("/orders/:id/reject", adminHandler.RejectOrder)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Post("/products", adminHandler.ManageProducts)
	admin.Post("/categories", adminHandler.ManageCategories)
	admin.Post("/payment-methods", adminHandler.ManagePaymentMethods)
	admin.Post("/product-guides", adminHandler.ManageProductGuides)
	admin.Post("/settings", adminHandler.ManageSettings)
}
