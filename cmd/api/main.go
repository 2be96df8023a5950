package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pdfconv/internal/config"
	"pdfconv/internal/converter"
	handlers "pdfconv/internal/http/handler"
	"pdfconv/internal/http/middleware"
	"pdfconv/internal/janitor"
	"pdfconv/internal/logging"
	"pdfconv/internal/otel"
	"pdfconv/internal/repository/filesystem"
	"pdfconv/internal/service"
	"pdfconv/internal/storage"
)

// multipartSlack covers form boundaries and headers on top of the file itself.
const multipartSlack = 1 << 20

// @title PDF Converter API
// @version 1.0
// @description Upload a PDF and convert it to DOCX, page images (JPG in a zip) or plain text.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		fatal(logger, "tracing_init_failed", err)
	}

	// Uploads, manifests and artifacts all live under the work dir
	store, err := storage.NewLocal(cfg.Workspace.Dir)
	if err != nil {
		fatal(logger, "storage_init_failed", err)
	}
	docRepo := filesystem.NewDocumentFS(cfg.Workspace.Dir)
	conv := converter.New(cfg.Converters)
	if err := conv.Check(ctx); err != nil {
		// still serve text extraction; /health reports the gap
		logger.Error("converter_unavailable", err, nil)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	convMetrics, err := service.NewMetrics(reg)
	if err != nil {
		fatal(logger, "metrics_init_failed", err)
	}

	convSvc := service.NewConversionService(store, docRepo, conv, service.Options{
		Timeout: cfg.ConversionTimeout(),
		Metrics: convMetrics,
		Logger:  logger,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Workspace.MaxUploadBytes) + multipartSlack,
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
	})))
	app.Use(middleware.Logger(logger))
	if cfg.MetricsEnabled {
		promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
		if err != nil {
			fatal(logger, "metrics_init_failed", err)
		}
		app.Use(promMiddleware.Handler())

		metricsHandler := otelhttp.NewHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}), "metrics")
		app.Get("/metrics", adaptor.HTTPHandler(metricsHandler))
	}

	handlers.RegisterRoutes(app, convSvc, handlers.RouteOptions{
		Checks: []handlers.Checker{
			conv,
			handlers.CheckFunc(func(ctx context.Context) error { return storage.Probe(ctx, store) }),
		},
		MaxUploadBytes: cfg.Workspace.MaxUploadBytes,
	})

	app.Get("/swagger/*", swaggerDocs(cfg.AppHost))

	go janitor.New(convSvc, cfg.Workspace.TTL(), cfg.Workspace.SweepInterval(), logger).Run(ctx)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_starting", map[string]any{
			"addr":     addr,
			"work_dir": cfg.Workspace.Dir,
		})
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			fatal(logger, "server_failed", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server_stopping", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", err, nil)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("tracing_shutdown_failed", err, nil)
	}
}

func fatal(logger *logging.Logger, msg string, err error) {
	logger.Error(msg, err, nil)
	os.Exit(1)
}
