package handler

import (
	"github.com/gofiber/fiber/v2"

	"pdfconv/internal/service"
)

// RouteOptions carries what the routes need besides the service.
type RouteOptions struct {
	// Checks gate the readiness probe.
	Checks []Checker
	// MaxUploadBytes rejects larger files with 413. Zero disables the check.
	MaxUploadBytes int64
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, svc service.ConversionService, opts RouteOptions) {
	app.Get("/", Index())

	app.Get("/health", HealthCheck(opts.Checks...))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents")
	docs.Get("/", ListDocuments(svc))
	docs.Post("/", UploadDocument(svc, opts.MaxUploadBytes))
	docs.Get("/:id", GetDocument(svc))
	docs.Delete("/:id", DeleteDocument(svc))
	docs.Post("/:id/convert/:format", ConvertDocument(svc))
}
