package api

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"norwegianopen/internal/export"
	"norwegianopen/internal/middleware"
	"norwegianopen/internal/model"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/service"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) ShowLogin(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Session error"})
	}
	if adminID, _ := sess.Get(middleware.SessionAdminID).(string); adminID != "" {
		return c.Redirect(middleware.AdminHome, fiber.StatusSeeOther)
	}
	return render(c, loginPage(c.Query("redirectTo")))
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Email      string `json:"email" form:"email"`
		Password   string `json:"password" form:"password"`
		RedirectTo string `json:"redirect_to" form:"redirectTo"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RedirectTo == "" {
		req.RedirectTo = c.Query("redirectTo")
	}

	admin, err := h.services.Auth.Login(c.UserContext(), service.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		return h.fail(c, err)
	}

	sess, err := h.store.Get(c)
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}
	if err := sess.Regenerate(); err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to regenerate session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create session"})
	}
	sess.Set(middleware.SessionAdminID, admin.ID.String())
	sess.Set(middleware.SessionAdminEmail, admin.Email)
	if err := sess.Save(); err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to save session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save session"})
	}

	h.logger.InfoContext(c.UserContext(), "Admin session started", "user_id", admin.ID, "ip", c.IP())
	return c.Redirect(middleware.SafeRedirect(req.RedirectTo), fiber.StatusSeeOther)
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, err := h.store.Get(c)
	if err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to get session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Session error"})
	}

	adminID := sess.Get(middleware.SessionAdminID)
	if err := sess.Destroy(); err != nil {
		h.logger.ErrorContext(c.UserContext(), "Failed to destroy session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Session error"})
	}
	if adminID != nil {
		h.logger.InfoContext(c.UserContext(), "Admin logged out", "user_id", adminID, "ip", c.IP())
	}
	return c.Redirect(middleware.LoginPath, fiber.StatusSeeOther)
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	summary, err := h.services.Dashboard.Summary(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) HotelDashboard(c *fiber.Ctx) error {
	overview, err := h.services.Hotels.Overview(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(overview)
}

func (h *Handler) UpdateHotelStatuses(c *fiber.Ctx) error {
	var body struct {
		Changes []service.StatusChange `json:"changes"`
		Notify  bool                   `json:"notify"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if len(body.Changes) == 0 {
		return badRequest(c, "No status changes given")
	}

	bookings, err := h.services.Hotels.UpdateStatuses(c.UserContext(), body.Changes, body.Notify)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"bookings": bookings})
}

// registrationFilter reads comma separated status, level, pass_option and email
// query values.
func registrationFilter(c *fiber.Ctx) model.RegistrationFilter {
	return model.RegistrationFilter{
		Statuses:    splitQuery[model.RegistrationStatus](c.Query("status")),
		Levels:      splitQuery[pricing.Level](c.Query("level")),
		PassOptions: splitQuery[pricing.PassOption](c.Query("pass_option")),
		Emails:      splitQuery[string](c.Query("email")),
	}
}

func splitQuery[T ~string](value string) []T {
	var values []T
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, T(part))
		}
	}
	return values
}

func (h *Handler) ListRegistrations(c *fiber.Ctx) error {
	registrations, err := h.services.Registrations.List(c.UserContext(), service.ListRegistrationsParams{
		Filter: registrationFilter(c),
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"registrations": registrations, "count": len(registrations)})
}

func (h *Handler) SearchRegistrations(c *fiber.Ctx) error {
	registrations, err := h.services.Registrations.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"registrations": registrations})
}

func (h *Handler) GetRegistration(c *fiber.Ctx) error {
	participant, err := h.services.Registrations.Participant(c.UserContext(), c.Params("userID"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(participant)
}

func (h *Handler) UpdateRegistration(c *fiber.Ctx) error {
	var params repository.UpdateRegistrationParams
	if err := c.BodyParser(&params); err != nil {
		return badRequest(c, "Invalid request body")
	}

	registration, err := h.services.Registrations.Update(c.UserContext(), c.Params("userID"), params)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(registration)
}

func (h *Handler) UpdateRegistrationStatus(c *fiber.Ctx) error {
	var body struct {
		Status model.RegistrationStatus `json:"status" form:"status"`
		Notify bool                     `json:"notify" form:"notify"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	registration, err := h.services.Registrations.UpdateStatus(c.UserContext(), c.Params("userID"), body.Status, body.Notify)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(registration)
}

func (h *Handler) DeleteRegistration(c *fiber.Ctx) error {
	if err := h.services.Registrations.Delete(c.UserContext(), c.Params("userID")); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) CheckIn(c *fiber.Ctx) error {
	registration, err := h.services.Registrations.CheckIn(c.UserContext(), c.Params("userID"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(registration)
}

func (h *Handler) SendPaymentReminder(c *fiber.Ctx) error {
	sent, err := h.services.Registrations.SendPaymentReminder(c.UserContext(), c.Params("userID"))
	if err != nil {
		return h.fail(c, err)
	}
	if !sent {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Failed to send the payment reminder"})
	}
	return c.JSON(fiber.Map{"sent": true})
}

func (h *Handler) SendPaymentReminders(c *fiber.Ctx) error {
	result, err := h.services.Registrations.SendPaymentReminders(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// PreviewEmail renders an email for a registration as HTML, or as JSON with
// ?format=json.
func (h *Handler) PreviewEmail(c *fiber.Ctx) error {
	kind, ok := notification.ParseKind(c.Params("kind"))
	if !ok {
		return badRequest(c, fmt.Sprintf("Unknown email kind '%s'", c.Params("kind")))
	}

	email, err := h.services.Registrations.Preview(c.UserContext(), c.Params("userID"), kind)
	if err != nil {
		return h.fail(c, err)
	}

	if c.Query("format") == "json" {
		return c.JSON(fiber.Map{"subject": email.Subject, "html": email.HTML, "text": email.Text})
	}
	return render(c, templ.Raw(email.HTML))
}

func (h *Handler) ShowMail(c *fiber.Ctx) error {
	audience, err := h.services.Mail.Audience(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(audience)
}

func (h *Handler) SendMassMail(c *fiber.Ctx) error {
	var msg service.MassMail
	if err := c.BodyParser(&msg); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.services.Mail.SendMass(c.UserContext(), msg)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

func (h *Handler) Export(c *fiber.Ctx) error {
	dataset, ok := export.ParseDataset(c.Params("dataset"))
	if !ok {
		return badRequest(c, fmt.Sprintf("Unknown dataset '%s'", c.Params("dataset")))
	}
	target, ok := service.ParseExportTarget(c.Query("target"))
	if !ok {
		return badRequest(c, fmt.Sprintf("Unknown export target '%s'", c.Query("target")))
	}

	result, err := h.services.Exports.Export(c.UserContext(), dataset, target)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// DownloadExport streams a stored export file.
func (h *Handler) DownloadExport(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return badRequest(c, "Missing file key")
	}

	file, err := h.services.Exports.Open(c.UserContext(), key)
	if err != nil {
		return h.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	return c.SendStream(file)
}

// loginPage is the admin sign-in form.
func loginPage(redirectTo string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Admin login | Norwegian Open</title></head>
<body>
<h1>Admin login</h1>
<form method="post" action="`+middleware.LoginPath+`">
<input type="hidden" name="redirectTo" value="`+templ.EscapeString(redirectTo)+`">
<label>Email <input type="email" name="email" required></label>
<label>Password <input type="password" name="password" required></label>
<button type="submit">Log in</button>
</form>
</body>
</html>`)
		return err
	})
}
