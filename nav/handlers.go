package nav

import (
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// Handler answers GET ?path= with the Decision for the caller.
func Handler(authenticated func(c fiber.Ctx) bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(Resolve(c.Query("path", "/"), authenticated(c)))
	}
}
