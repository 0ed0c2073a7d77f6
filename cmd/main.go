package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/gestionsaas/identity/pkg/asyncx"
	"github.com/gestionsaas/identity/pkg/config"
	"github.com/gestionsaas/identity/pkg/errx"
	"github.com/gestionsaas/identity/pkg/logx"
)

func main() {
	cfg := config.Load()

	logx.Infof("starting %s", cfg.App.Name)

	container := NewContainer(cfg)
	defer container.Cleanup()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	go func() {
		if err := container.MailWorker.Run(workerCtx); err != nil {
			logx.Errorf("mail worker: %v", err)
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.App.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.App.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthHandler(container))

	iam := container.IAM
	iam.AuthHandlers.RegisterRoutes(app, iam.APIKeyMiddleware)
	iam.ProjectHandlers.RegisterRoutes(app, iam.APIKeyMiddleware)
	iam.TenantHandlers.RegisterRoutes(app, iam.APIKeyMiddleware)
	iam.InvitationHandlers.RegisterRoutes(app, iam.APIKeyMiddleware)
	iam.UserHandlers.RegisterRoutes(app, iam.TokenMiddleware, iam.APIKeyMiddleware)
	logx.Info("routes registered")

	app.Use(notFoundHandler)

	startServer(app, cfg.App.Port, stopWorker)
}

func healthHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": container.Config.App.Name,
		}

		checks := asyncx.AllSettled(c.UserContext(),
			func(ctx context.Context) (string, error) {
				return "db", container.DB.PingContext(ctx)
			},
			func(ctx context.Context) (string, error) {
				return "redis", container.Redis.Ping(ctx).Err()
			},
		)
		for _, check := range checks {
			if check.OK() {
				health[check.Value] = "healthy"
			} else {
				health[check.Value] = "unhealthy"
				health["status"] = "degraded"
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":  "Route not found",
		"code":   "NOT_FOUND",
		"path":   c.Path(),
		"method": c.Method(),
	})
}

// errorHandler logs the failure with request context before delegating to
// the shared errx response shape.
func errorHandler(c *fiber.Ctx, err error) error {
	logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"ip":         c.IP(),
		"request_id": c.Get("X-Request-ID"),
	}).Errorf("request error: %v", err)

	return errx.FiberErrorHandler(c, err)
}

// startServer runs the listener and blocks until an interrupt triggers a
// graceful shutdown.
func startServer(app *fiber.App, port string, stopWorker func()) {
	go func() {
		logx.Infof("server listening on port %s", port)
		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logx.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logx.Errorf("forced shutdown: %v", err)
	}
	stopWorker()
	logx.Info("server stopped")
}
