package main

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"pdfconv/docs"
)

// swaggerDocs serves the Swagger UI against the host the browser used,
// falling back to APP_HOST when the request carries none.
func swaggerDocs(appHost string) fiber.Handler {
	docs.SwaggerInfo.Host = appHost
	return func(c *fiber.Ctx) error {
		docs.SwaggerInfo.Host = swaggerHost(c.Get("X-Forwarded-Host"), c.Get(fiber.HeaderHost), appHost)
		docs.SwaggerInfo.Schemes = []string{swaggerScheme(c.Get("X-Forwarded-Proto"), c.Protocol())}
		return swagger.HandlerDefault(c)
	}
}

func swaggerHost(forwarded, host, appHost string) string {
	if h := firstValue(forwarded); h != "" {
		return h
	}
	if host != "" {
		return host
	}
	return appHost
}

func swaggerScheme(forwarded, protocol string) string {
	if p := firstValue(forwarded); p != "" {
		return p
	}
	return protocol
}

func firstValue(header string) string {
	v, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(v)
}
