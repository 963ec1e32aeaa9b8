package api

import (
	"errors"
	"log/slog"
	"time"

	"norwegianopen/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/utils"
)

type AppConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Middleware runs before every route, after recovery and request logging.
	Middleware []fiber.Handler
}

// NewApp creates the Fiber app with recovery, request logging and security
// headers installed.
func NewApp(cfg AppConfig, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Norwegian Open",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			if code >= fiber.StatusInternalServerError {
				logger.ErrorContext(c.UserContext(), "Unhandled error", "path", c.Path(), "error", err)
				return c.Status(code).JSON(fiber.Map{"error": msgInternal})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(recover.New())
	app.Use(middleware.Logger(logger))
	app.Use(middleware.SecurityHeaders())
	for _, handler := range cfg.Middleware {
		app.Use(handler)
	}
	return app
}

// CSRF protects the admin API with a double submit cookie. Clients echo the
// csrf_ cookie in the X-Csrf-Token header.
func CSRF(secure bool) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "header:X-Csrf-Token",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		Expiration:     1 * time.Hour,
		KeyGenerator:   utils.UUIDv4,
		ContextKey:     "token",
	})
}

// RegisterRoutes mounts the public and admin routes. A nil csrfHandler leaves
// the admin API unprotected against cross site requests.
func (h *Handler) RegisterRoutes(app *fiber.App, security *middleware.SecurityMiddleware, csrfHandler fiber.Handler) {
	app.Get("/health", h.Health)

	// Public forms
	forms := []fiber.Handler{security.ProtectForm(), security.FormLimiter()}
	app.Post("/register", append(forms, h.Register)...)
	app.Post("/register/hotel", append(forms, h.RegisterHotel)...)
	app.Post("/mail-list", append(forms, h.JoinMailList)...)
	app.Post("/contact", append(forms, h.Contact)...)

	app.Get("/participants/:userID", h.Participant)
	app.Get("/pricing", h.PriceList)
	app.Get("/pricing/quote", h.Quote)

	// Admin sign in
	app.Get(middleware.LoginPath, h.ShowLogin)
	app.Post(middleware.LoginPath, h.Login)
	app.Post("/admin/logout", h.Logout)

	admin := app.Group(middleware.AdminHome, middleware.AdminSession(h.store, h.logger))
	if csrfHandler != nil {
		admin.Use(csrfHandler)
	}

	admin.Get("", h.Dashboard)
	admin.Get("/dashboard", h.Dashboard)
	admin.Get("/dashboard/hotels", h.HotelDashboard)
	admin.Post("/dashboard/hotels/status", h.UpdateHotelStatuses)

	admin.Get("/registrations", h.ListRegistrations)
	admin.Get("/registrations/search", h.SearchRegistrations)
	admin.Post("/registrations/reminders", h.SendPaymentReminders)
	admin.Get("/registrations/:userID", h.GetRegistration)
	admin.Patch("/registrations/:userID", h.UpdateRegistration)
	admin.Delete("/registrations/:userID", h.DeleteRegistration)
	admin.Post("/registrations/:userID/status", h.UpdateRegistrationStatus)
	admin.Post("/registrations/:userID/check-in", h.CheckIn)
	admin.Post("/registrations/:userID/reminder", h.SendPaymentReminder)
	admin.Get("/registrations/:userID/email/:kind", h.PreviewEmail)

	admin.Get("/mail", h.ShowMail)
	admin.Post("/mail", h.SendMassMail)

	admin.Post("/exports/:dataset", h.Export)
	admin.Get("/exports/files/*", h.DownloadExport)
}
