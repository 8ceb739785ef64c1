package handler

import (
	"github.com/gofiber/fiber/v2"
)

// errorResponse is the flat error body used across the API, e.g.
// {"error": "File not found"}.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError writes a standardized JSON error response without leaking
// internal details. The request ID travels in the X-Request-ID header set by
// the middleware, not in the body.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(errorResponse{Error: message})
}

// ErrorHandler returns a Fiber global error handler that standardizes error
// responses for errors that escape the route handlers (unknown routes, wrong
// methods, oversized bodies, panics).
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal server error"
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
			message = e.Message
		}

		switch status {
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "Method not allowed")
		case fiber.StatusNotFound:
			return writeError(c, status, "Not found")
		case fiber.StatusInternalServerError:
			return writeError(c, status, "Internal server error")
		default:
			return writeError(c, status, message)
		}
	}
}
