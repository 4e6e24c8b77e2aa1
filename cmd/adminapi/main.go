package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/superior-pamerca/admin-api/internal/auditlog"
	"github.com/superior-pamerca/admin-api/internal/auth"
	"github.com/superior-pamerca/admin-api/internal/cleanup"
	"github.com/superior-pamerca/admin-api/internal/config"
	"github.com/superior-pamerca/admin-api/internal/images"
	"github.com/superior-pamerca/admin-api/internal/linkmon"
	"github.com/superior-pamerca/admin-api/internal/logging"
	"github.com/superior-pamerca/admin-api/internal/metrics"
	"github.com/superior-pamerca/admin-api/internal/middleware"
	"github.com/superior-pamerca/admin-api/internal/routes"
	"github.com/superior-pamerca/admin-api/internal/store"
	"github.com/superior-pamerca/admin-api/internal/token"
)

func main() {
	// Local development overrides; absent file is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logging.New(cfg)

	// Initialize metrics
	if err := metrics.Init(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize metrics")
	}

	// Wire services
	codec := newTokenCodec(cfg, logger)
	guard := auth.NewGuard(cfg, codec, logger)
	audit := auditlog.New(cfg.Audit.Dir, logger)
	contentStore := store.New(cfg.Content.Dir, logger)
	imageIngest := images.New(&cfg.Uploads, logger, audit)
	monitor := linkmon.NewDefault(logger)

	users, err := auth.NewUserStore(cfg.Auth.UsersFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load user credentials")
	}

	backupDir := filepath.Join(cfg.Content.Dir, "backups")
	cleanupService := cleanup.New(contentStore, imageIngest, audit, logger, cfg.Content.Collection, backupDir)

	// Expired audit files are swept once at startup
	if deleted := audit.CleanupOlderThan(cfg.Audit.RetentionDays); deleted > 0 {
		logger.WithField("deleted", deleted).Info("Removed expired audit log files")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Superior Pamerca Admin API",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BodyLimit:    int(cfg.Uploads.MaxSizeBytes) * (cfg.Uploads.MaxPerProduct + 1),
		ErrorHandler: routes.ErrorHandler(!cfg.IsProduction(), logger),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Requested-With",
		AllowCredentials: cfg.CORS.AllowOrigins != "*",
		MaxAge:           86400,
	}))
	app.Use(middleware.NewErrorLoggerMiddleware(logger).Handle())

	// Setup routes
	routes.Setup(app, cfg, logger, routes.Dependencies{
		Store:   contentStore,
		Images:  imageIngest,
		Audit:   audit,
		Users:   users,
		Guard:   guard,
		Cleanup: cleanupService,
		Monitor: monitor,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Gracefully shutting down...")
		if err := app.Shutdown(); err != nil {
			logger.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logger.WithFields(logrus.Fields{
		"port":        cfg.Server.Port,
		"environment": cfg.Server.Environment,
		"auth_mode":   cfg.Auth.Mode,
	}).Info("Starting admin API server")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}

// newTokenCodec selects the session token codec. The insecure codec is
// only for parity testing against the legacy panel.
func newTokenCodec(cfg *config.Config, logger *logrus.Logger) token.Codec {
	if cfg.Auth.Mode == "insecure" {
		logger.Warn("Running with the unsigned token codec, sessions are forgeable")
		return token.NewInsecureCodec()
	}
	return token.NewSignedCodec(cfg.Auth.Secret)
}
