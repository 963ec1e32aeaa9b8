package notification

import (
	"testing"
	"time"

	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	r, err := NewRenderer(Settings{
		EventName: "Norwegian Open",
		BaseURL:   "https://norwegianopen.test/",
		Organiser: "post@norwegianopen.test",
		Location:  oslo,
	})
	require.NoError(t, err)
	return r
}

func approvedRegistration() model.Registration {
	return model.Registration{
		UserID:          "AB12CD34",
		FullName:        "Kari Nordmann",
		Email:           "kari@example.com",
		Level:           pricing.LevelIntermediate,
		Role:            model.RoleFollower,
		PassOption:      pricing.PassRegular,
		AddedIntensive:  true,
		PriceTier:       pricing.TierMidgard,
		AmountDue:       2600,
		PaymentDeadline: time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
		Status:          model.RegistrationStatusApproved,
	}
}

func TestRender_RegistrationApproved(t *testing.T) {
	r := newTestRenderer(t)
	now := time.Date(2025, 6, 21, 10, 0, 0, 0, time.UTC)

	email, err := r.Render(KindRegistrationApproved, approvedRegistration(), now)
	require.NoError(t, err)

	assert.Equal(t, "Norwegian Open: your registration is approved", email.Subject)
	assert.Contains(t, email.HTML, "2600 NOK")
	assert.Contains(t, email.HTML, "5 July 2025")
	assert.Contains(t, email.HTML, "AB12CD34")
	assert.Contains(t, email.HTML, "Regular Pass + Intensive")
	assert.Contains(t, email.HTML, "https://norwegianopen.test/participants/AB12CD34")
	assert.Contains(t, email.Text, "2600 NOK")
	assert.Contains(t, email.Text, "5 July 2025")
}

func TestRender_Deterministic(t *testing.T) {
	r := newTestRenderer(t)
	now := time.Date(2025, 6, 21, 10, 0, 0, 0, time.UTC)

	first, err := r.Render(KindPaymentReminder, approvedRegistration(), now)
	require.NoError(t, err)
	second, err := r.Render(KindPaymentReminder, approvedRegistration(), now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first.Text, "14 days left")
}

func TestRender_MissingValuesFallBack(t *testing.T) {
	r := newTestRenderer(t)
	now := time.Date(2025, 6, 21, 10, 0, 0, 0, time.UTC)

	email, err := r.Render(KindRegistrationReceived, model.Registration{FullName: "Ola"}, now)
	require.NoError(t, err)

	assert.Contains(t, email.Text, "Ola")
	assert.Contains(t, email.Text, NotAvailable)
	assert.NotContains(t, email.Text, "<no value>")
	assert.NotContains(t, email.HTML, "<no value>")
}

func TestRender_HotelConfirmation(t *testing.T) {
	r := newTestRenderer(t)
	oslo := r.settings.Location
	booking := model.HotelBooking{
		FullName:        "Kari Nordmann",
		Email:           "kari@example.com",
		Option:          pricing.HotelTwin,
		CheckIn:         util.Some(time.Date(2025, 10, 2, 0, 0, 0, 0, oslo)),
		CheckOut:        util.Some(time.Date(2025, 10, 5, 0, 0, 0, 0, oslo)),
		Nights:          3,
		AmountDue:       4470,
		Roommates:       []string{"Ola Nordmann"},
		PaymentDeadline: time.Date(2025, 9, 1, 0, 0, 0, 0, oslo),
		Status:          model.HotelStatusConfirmed,
	}

	email, err := r.Render(KindHotelConfirmation, booking, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "Norwegian Open: hotel booking confirmed", email.Subject)
	assert.Contains(t, email.Text, "Room: Twin")
	assert.Contains(t, email.Text, "Check-in: 2 October 2025")
	assert.Contains(t, email.Text, "Check-out: 5 October 2025")
	assert.Contains(t, email.Text, "Nights: 3")
	assert.Contains(t, email.Text, "Roommates: Ola Nordmann")
	assert.Contains(t, email.Text, "Special requests: N/A")
	assert.Contains(t, email.Text, "4470 NOK")
}

func TestRender_ContactMessage(t *testing.T) {
	r := newTestRenderer(t)

	email, err := r.Render(KindContactMessage, model.ContactMessage{
		Name:    "Ola",
		Email:   "ola@example.com",
		Subject: "Parking",
		Message: "Is there <parking> at the venue?",
	}, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "Contact Form: Parking (from Ola)", email.Subject)
	assert.Contains(t, email.HTML, "&lt;parking&gt;")
	assert.Contains(t, email.Text, "<parking>")
}

func TestRender_Errors(t *testing.T) {
	r := newTestRenderer(t)
	now := time.Now()

	tests := []struct {
		name   string
		kind   Kind
		record any
		want   error
	}{
		{"unknown kind", Kind("newsletter"), model.Registration{}, ErrUnknownKind},
		{"registration kind with booking", KindRegistrationApproved, model.HotelBooking{}, ErrUnsupportedRecord},
		{"hotel kind with registration", KindHotelConfirmation, model.Registration{}, ErrUnsupportedRecord},
		{"contact kind with pointer", KindContactMessage, &model.ContactMessage{}, ErrUnsupportedRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Render(tt.kind, tt.record, now)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDaysLeft(t *testing.T) {
	r := newTestRenderer(t)
	deadline := time.Date(2025, 7, 5, 0, 0, 0, 0, r.settings.Location)

	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2025, 7, 1, 12, 0, 0, 0, r.settings.Location), "4 days left"},
		{time.Date(2025, 7, 4, 23, 0, 0, 0, r.settings.Location), "1 day left"},
		{time.Date(2025, 7, 5, 20, 0, 0, 0, r.settings.Location), "due today"},
		{time.Date(2025, 7, 6, 0, 30, 0, 0, r.settings.Location), "overdue"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.daysLeft(deadline, tt.now), tt.now.String())
	}
	assert.Empty(t, r.daysLeft(time.Time{}, time.Now()))
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind("hotel-confirmation")
	assert.True(t, ok)
	assert.Equal(t, KindHotelConfirmation, kind)

	_, ok = ParseKind("HOTEL-CONFIRMATION")
	assert.False(t, ok)
}
