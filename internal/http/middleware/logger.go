package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"pdfconv/internal/logging"
)

// Logger logs each HTTP request as one JSON line through log.
// Fields: request_id, method, path, status, latency (ms), ts.
// Requests answered with a 5xx are logged at error level.
func Logger(log *logging.Logger) fiber.Handler {
	if log == nil {
		log = logging.Default()
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// The error handler runs after the chain, so derive the final status here
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		entry := map[string]any{
			"request_id": GetRequestID(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if status >= fiber.StatusInternalServerError {
			entry["level"] = "error"
			if err != nil {
				entry["error"] = err.Error()
			}
		}
		log.Log(entry)

		return err
	}
}

// LoggerWithWriter is Logger with a dedicated writer and time zone.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logging.New(w, loc))
}
