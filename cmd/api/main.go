package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"docvault/docs"
	"docvault/internal/bootstrap"
	"docvault/internal/config"
	"docvault/internal/enrichment"
	handlers "docvault/internal/http/handler"
	"docvault/internal/http/middleware"
	"docvault/internal/logging"
	"docvault/internal/otel"
	"docvault/internal/service"
)

// @title Document Vault API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "docvault", logger)
	if err != nil {
		logger.Fatal("tracing_init_failed", zap.Error(err))
	}

	deps, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{Search: true})
	if err != nil {
		logger.Fatal("bootstrap_failed", zap.Error(err))
	}
	defer deps.Close()

	dispatcher := enrichment.NewDispatcher(deps.Job, cfg.Enrichment.JobTimeout, logger.With(zap.String("component", "dispatcher")))

	docOpts := []service.Option{service.WithMaxFiles(cfg.Upload.MaxFiles)}
	if deps.Index != nil {
		docOpts = append(docOpts, service.WithSearcher(deps.Index))
	}
	docSvc := service.NewDocumentService(deps.Store, deps.Documents, dispatcher, logger, docOpts...)
	folderSvc := service.NewFolderService(deps.Folders)

	metrics, err := middleware.NewPrometheusMiddleware(deps.Registry, "/health", "/healthz")
	if err != nil {
		logger.Fatal("metrics_init_failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    bodyLimit(cfg.Upload),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(logger))
	app.Use(metrics.Handler())

	handlers.RegisterRoutes(app, deps.DB, docSvc, folderSvc, handlers.Options{
		MaxFileBytes: cfg.Upload.MaxFileBytes,
		Gatherer:     deps.Registry,
		Logger:       logger,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server_started", zap.String("addr", addr))
		serveErr <- app.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server_failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutdown_started")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Enrichment.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("server_shutdown_failed", zap.Error(err))
	}
	// In-flight jobs get the remaining shutdown window; anything unfinished stays processing for the next sweep.
	if err := dispatcher.Shutdown(shutdownCtx); err != nil {
		logger.Warn("dispatcher_shutdown_incomplete", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing_shutdown_failed", zap.Error(err))
	}
	logger.Info("shutdown_complete")
}

// bodyLimit admits a full batch of maximum-size files plus multipart overhead.
func bodyLimit(u config.UploadConfig) int {
	const overhead = 1 << 20
	if u.MaxFiles <= 0 || u.MaxFileBytes <= 0 {
		return fiber.DefaultBodyLimit
	}
	return int(int64(u.MaxFiles)*u.MaxFileBytes) + overhead
}
