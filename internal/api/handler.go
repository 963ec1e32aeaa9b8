package api

import (
	"errors"
	"log/slog"

	"norwegianopen/internal/repository"
	"norwegianopen/internal/service"
	"norwegianopen/internal/storage"
	"norwegianopen/internal/validator"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// Services are the domain services the HTTP surface calls into.
type Services struct {
	Registrations *service.RegistrationService
	Hotels        *service.HotelService
	Mail          *service.MailService
	Auth          *service.AuthService
	Dashboard     *service.DashboardService
	Exports       *service.ExportService
}

type Handler struct {
	store    *session.Store
	repo     repository.Repository
	services Services
	logger   *slog.Logger
	version  string
}

func NewHandler(store *session.Store, repo repository.Repository, services Services, logger *slog.Logger, version string) *Handler {
	return &Handler{
		store:    store,
		repo:     repo,
		services: services,
		logger:   logger,
		version:  version,
	}
}

const msgInternal = "Internal server error"

// fail writes the JSON error response for err. Field rejections become a 400
// naming the first offending field.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	if rejections, ok := validator.AsRejections(err); ok {
		primary := rejections.Primary()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      primary.Reason,
			"field":      primary.Field,
			"rejections": rejections,
		})
	}

	switch {
	case errors.Is(err, service.ErrRegistrationClosed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Registration is not open yet."})
	case errors.Is(err, repository.ErrRegistrationNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Registration not found"})
	case errors.Is(err, repository.ErrHotelBookingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Hotel booking not found"})
	case errors.Is(err, storage.ErrFileNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "File not found"})
	case errors.Is(err, storage.ErrPathTraversal):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid file path"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	case errors.Is(err, service.ErrNotAdmin):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": service.ErrNotAdmin.Error()})
	case errors.Is(err, service.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many login attempts. Please try again later."})
	case errors.Is(err, service.ErrExportTargetUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrContactFailed):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": service.ErrContactFailed.Error()})
	}

	h.logger.ErrorContext(c.UserContext(), "Request failed",
		"method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgInternal})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func render(c *fiber.Ctx, component templ.Component) error {
	c.Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.UserContext(), c.Response().BodyWriter())
}
