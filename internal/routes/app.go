package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/example/maurigift/internal/metrics"
	"github.com/example/maurigift/internal/middleware"
)

// AppOptions tune the fiber application.
type AppOptions struct {
	Name           string
	RequestTimeout time.Duration
	BodyLimit      int
}

// NewApp builds the fiber application with the shared middleware stack and all routes.
func NewApp(deps Deps, opts AppOptions) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      opts.Name,
		ErrorHandler: middleware.ErrorHandler,
		BodyLimit:    opts.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(metrics.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.Timeout(opts.RequestTimeout))

	Register(app, deps)
	return app
}
