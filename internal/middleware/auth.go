package middleware

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	// SessionAdminID holds the admin user id in the session.
	SessionAdminID = "admin_id"
	// SessionAdminEmail holds the admin email in the session.
	SessionAdminEmail = "admin_email"

	LoginPath = "/admin/login"
	AdminHome = "/admin"
)

// AdminSession lets requests with an admin session through and sends everything
// else to the login page, remembering where they were going.
func AdminSession(sessionStore *session.Store, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessionStore.Get(c)
		if err != nil {
			logger.ErrorContext(c.UserContext(), "Failed to load session", "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Session error"})
		}

		adminID, _ := sess.Get(SessionAdminID).(string)
		if adminID == "" {
			target := LoginPath + "?redirectTo=" + url.QueryEscape(c.OriginalURL())
			return c.Redirect(target, fiber.StatusSeeOther)
		}

		c.Locals(SessionAdminID, adminID)
		if email, ok := sess.Get(SessionAdminEmail).(string); ok {
			c.Locals(SessionAdminEmail, email)
		}
		return c.Next()
	}
}

// SafeRedirect returns target when it stays inside the admin area, AdminHome
// otherwise. The login page itself is never a target.
func SafeRedirect(target string) string {
	inAdmin := target == AdminHome ||
		strings.HasPrefix(target, AdminHome+"/") ||
		strings.HasPrefix(target, AdminHome+"?")
	if !inAdmin || strings.Contains(target, "\\") {
		return AdminHome
	}
	if target == LoginPath || strings.HasPrefix(target, LoginPath+"?") || strings.HasPrefix(target, LoginPath+"/") {
		return AdminHome
	}
	return target
}
