package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger logs every request once it has been handled.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		attrs := []any{
			"method", c.Method(),
			"url", c.OriginalURL(),
			"status", status,
			"duration", time.Since(start),
			"ip", c.IP(),
		}
		if requestID, ok := c.Locals("requestid").(string); ok {
			attrs = append(attrs, "request_id", requestID)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.ErrorContext(c.UserContext(), "Request", attrs...)
		case status >= fiber.StatusBadRequest:
			logger.WarnContext(c.UserContext(), "Request", attrs...)
		default:
			logger.InfoContext(c.UserContext(), "Request", attrs...)
		}
		return err
	}
}
