package routes

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/auth"
	"github.com/superior-pamerca/admin-api/internal/cleanup"
	"github.com/superior-pamerca/admin-api/internal/config"
	"github.com/superior-pamerca/admin-api/internal/images"
	"github.com/superior-pamerca/admin-api/internal/linkmon"
	"github.com/superior-pamerca/admin-api/internal/metrics"
	"github.com/superior-pamerca/admin-api/internal/store"
	apperrors "github.com/superior-pamerca/admin-api/pkg/errors"
)

// Dependencies carries the wired services the handlers run on
type Dependencies struct {
	Store   *store.ContentStore
	Images  *images.Ingest
	Audit   *auditlog.Logger
	Users   *auth.UserStore
	Guard   *auth.Guard
	Cleanup *cleanup.Service
	Monitor *linkmon.Monitor
}

// Setup configures all API routes
func Setup(app *fiber.App, cfg *config.Config, logger *logrus.Logger, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Users, deps.Guard, deps.Audit, cfg.Auth.TokenTTL, logger)
	productHandler := NewProductHandler(deps.Store, deps.Images, deps.Audit, cfg.Content.Collection, logger)
	uploadHandler := NewUploadHandler(deps.Images, deps.Audit, cfg.Uploads.MaxPerProduct, logger)
	adminHandler := NewAdminHandler(deps.Cleanup, deps.Monitor, deps.Audit, logger)

	// Health check endpoint (no auth required)
	app.Get("/healthz", healthCheck)

	// Metrics endpoint (no auth required)
	app.Get("/metrics", metrics.PrometheusHandler())

	// API routes with middleware
	api := app.Group("/api")
	api.Use(metrics.HTTPMetricsMiddleware())

	// Auth routes (public endpoints - no auth required)
	authRoutes := api.Group("/auth")
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authHandler.Logout)
	authRoutes.Get("/me", authHandler.Me)

	// Protected routes (require a session cookie)
	protected := api.Group("", deps.Guard.RequireSession())

	// Static upload paths are registered before the :id routes so the
	// parameter cannot capture them.
	productRoutes := protected.Group("/productos")
	productRoutes.Post("/upload", uploadHandler.Upload)
	productRoutes.Post("/upload-url", uploadHandler.UploadURL)
	productRoutes.Get("/", productHandler.List)
	productRoutes.Post("/", productHandler.Create)
	productRoutes.Get("/:id", productHandler.Get)
	productRoutes.Put("/:id", productHandler.Update)
	productRoutes.Delete("/:id", productHandler.Delete)

	// Admin routes (require the admin role)
	adminRoutes := protected.Group("/admin", deps.Guard.RequireAdmin())
	adminRoutes.Get("/cleanup", adminHandler.IdentifyTestProducts)
	adminRoutes.Post("/cleanup", adminHandler.RunCleanup)
	adminRoutes.Get("/broken-links", adminHandler.BrokenLinks)
	adminRoutes.Get("/logs", adminHandler.Logs)

	// 404 handler: stale admin paths are recorded and redirected
	app.Use(notFoundHandler(deps.Monitor, deps.Guard))
}

// ErrorHandler renders handler errors as the standard error envelope.
// Cause details are attached only when includeDetail is set.
func ErrorHandler(includeDetail bool, logger *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "HTTP_ERROR",
					"message": fiberErr.Message,
				},
			})
		}

		appErr := apperrors.AsAppError(err)
		if appErr.HTTPStatus() >= fiber.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"path":   c.Path(),
				"method": c.Method(),
			}).Error("Request failed")
		}

		return c.Status(appErr.HTTPStatus()).JSON(appErr.ToErrorResponse(includeDetail))
	}
}

// healthCheck returns the health status of the service
func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "admin-api",
	})
}

// notFoundHandler handles 404s. Hits under /admin/ go through the link
// monitor: mapped stale paths redirect to their successor, everything
// else lands on the panel's 404 page. Other paths get a plain JSON 404.
func notFoundHandler(monitor *linkmon.Monitor, guard *auth.Guard) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()

		if strings.HasPrefix(path, "/admin/") && !monitor.RouteExists(path) {
			userID := ""
			if user := guard.CurrentUser(c); user != nil {
				userID = user.ID
			}

			redirect := monitor.HandleNotFound(path, c.Get(fiber.HeaderReferer), c.Get(fiber.HeaderUserAgent), userID)
			if redirect != "" {
				return c.Redirect(redirect, fiber.StatusFound)
			}
			return c.Redirect("/admin/404", fiber.StatusFound)
		}

		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "NOT_FOUND",
				"message": "The requested resource was not found",
				"path":    path,
			},
		})
	}
}
