package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfconv/docs"
)

func TestSwaggerHost(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		host      string
		want      string
	}{
		{"request host", "", "api.example.com", "api.example.com"},
		{"forwarded host wins", "public.example.com, proxy.local", "10.0.0.5:8080", "public.example.com"},
		{"no host falls back to APP_HOST", "", "", "pdfconv.internal:9000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, swaggerHost(tt.forwarded, tt.host, "pdfconv.internal:9000"))
		})
	}
}

func TestSwaggerScheme(t *testing.T) {
	assert.Equal(t, "http", swaggerScheme("", "http"))
	assert.Equal(t, "https", swaggerScheme("https, http", "http"))
}

func TestSwaggerDocs(t *testing.T) {
	defer func(host string, schemes []string) {
		docs.SwaggerInfo.Host, docs.SwaggerInfo.Schemes = host, schemes
	}(docs.SwaggerInfo.Host, docs.SwaggerInfo.Schemes)

	app := fiber.New()
	app.Get("/swagger/*", swaggerDocs("pdfconv.internal:9000"))
	assert.Equal(t, "pdfconv.internal:9000", docs.SwaggerInfo.Host)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	req.Host = "api.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"host": "api.example.com"`)
	assert.Equal(t, []string{"https"}, docs.SwaggerInfo.Schemes)
}
