package testutil

import (
	"context"
	"log/slog"
	"net/mail"
	"testing"
	"time"

	"norwegianopen/internal/logger"
	"norwegianopen/internal/mailer"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func NewClock(t time.Time) *Clock { return &Clock{T: t} }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Oslo returns the event timezone.
func Oslo(t testing.TB) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	return loc
}

// Midgard is a moment inside the regular tier of the default table.
func Midgard(t testing.TB) time.Time {
	return time.Date(2025, 6, 21, 12, 0, 0, 0, Oslo(t))
}

// Renderer builds the email renderer with test settings.
func Renderer(t testing.TB) *notification.Renderer {
	t.Helper()
	r, err := notification.NewRenderer(notification.Settings{
		EventName: "Norwegian Open",
		BaseURL:   "https://norwegianopen.test",
		Organiser: "post@norwegianopen.test",
		Location:  Oslo(t),
	})
	require.NoError(t, err)
	return r
}

// Mailer is a console sender that records every message.
func Mailer() *mailer.ConsoleSender {
	return mailer.NewConsoleSender(logger.Discard(), mail.Address{Name: "Norwegian Open", Address: "post@norwegianopen.test"})
}

func Logger() *slog.Logger {
	return logger.Discard()
}

// Table is the default price table.
func Table() *pricing.Table {
	return pricing.DefaultTable()
}

// AdminPassword is the password of accounts created by SeedAdmin.
const AdminPassword = "Secret123"

// SeedAdmin creates an account with AdminPassword, granting it the admin
// relation when admin is set.
func SeedAdmin(t testing.TB, repo *MemoryRepository, email string, admin bool) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(AdminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := repo.CreateAdminUser(context.Background(), repository.CreateAdminUserParams{
		Name:         "Admin",
		Email:        email,
		PasswordHash: string(hash),
	})
	require.NoError(t, err)
	if admin {
		require.NoError(t, repo.GrantAdmin(context.Background(), user.ID))
	}
}
