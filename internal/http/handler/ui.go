package handler

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed ui/index.html
var indexHTML []byte

// Index serves the single-page upload and conversion UI.
func Index() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	}
}
