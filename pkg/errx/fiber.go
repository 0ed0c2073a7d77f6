package errx

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FiberErrorHandler converts errors bubbling out of handlers into the
// standard JSON error body. Install it as the app-level ErrorHandler.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error":  e.Message,
			"code":   "HTTP_ERROR",
			"status": e.Code,
			"detail": e.Message,
		})
	}

	var e *Error
	if errors.As(err, &e) {
		body := fiber.Map{
			"error":  e.Message,
			"code":   e.Code,
			"type":   string(e.Type),
			"status": e.HTTPStatus,
			"detail": e.Message,
		}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		return c.Status(e.HTTPStatus).JSON(body)
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":  "Internal Server Error",
		"code":   "INTERNAL_ERROR",
		"type":   string(TypeInternal),
		"status": fiber.StatusInternalServerError,
		"detail": "An unexpected error occurred",
	})
}
