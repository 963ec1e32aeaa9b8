package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"", "/admin"},
		{"/admin", "/admin"},
		{"/admin/dashboard", "/admin/dashboard"},
		{"/admin?tab=hotels", "/admin?tab=hotels"},
		{"/admin/login", "/admin"},
		{"/admin/login?redirectTo=/admin", "/admin"},
		{"/administrator", "/admin"},
		{"https://evil.example/admin", "/admin"},
		{"//evil.example", "/admin"},
		{"/register", "/admin"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeRedirect(tt.target))
		})
	}
}

func TestAdminSession(t *testing.T) {
	store := session.New()
	app := fiber.New()
	app.Get("/login-as-admin", func(c *fiber.Ctx) error {
		sess, err := store.Get(c)
		if err != nil {
			return err
		}
		sess.Set(SessionAdminID, "3f1c")
		return sess.Save()
	})
	app.Get("/admin/dashboard", AdminSession(store, discard()), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals(SessionAdminID).(string))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/dashboard?tab=1", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login?redirectTo="+url.QueryEscape("/admin/dashboard?tab=1"), resp.Header.Get("Location"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/login-as-admin", nil))
	require.NoError(t, err)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(cookies[0])
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "3f1c", string(body))
}

func TestProtectForm(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{BlockDuration: time.Hour}, discard())
	app := fiber.New()
	app.Post("/contact", sm.ProtectForm(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	post := func(form string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	assert.Equal(t, fiber.StatusNoContent, post("name=Ola").StatusCode)
	assert.Equal(t, fiber.StatusBadRequest, post("name=Ola&website=spam.example").StatusCode)
	assert.Equal(t, fiber.StatusTooManyRequests, post("name=Ola").StatusCode)

	sm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.Equal(t, fiber.StatusNoContent, post("name=Ola").StatusCode)
}

func TestFormLimiter(t *testing.T) {
	sm := NewSecurityMiddleware(SecurityConfig{FormRateLimit: 2, FormRateWindow: time.Minute}, discard())
	app := fiber.New()
	app.Post("/mail-list", sm.FormLimiter(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for range 2 {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/mail-list", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/mail-list", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(SecurityHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
}
