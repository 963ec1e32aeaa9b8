package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"norwegianopen/internal/model"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/testutil"
	"norwegianopen/internal/util"
	"norwegianopen/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAlerts struct {
	texts []string
	err   error
}

func (r *recordingAlerts) Notify(ctx context.Context, text string) error {
	r.texts = append(r.texts, text)
	return r.err
}

func validInput() RegistrationInput {
	return RegistrationInput{
		Email:         "kari@example.com",
		FullName:      "Kari Nordmann",
		Level:         "Intermediate",
		PassOption:    "Regular Pass",
		Role:          "Follower",
		Country:       "Norway",
		AcceptedRules: true,
		AcceptedToC:   true,
	}
}

func TestRegistrationService_Submit(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)

	in := validInput()
	in.AddedIntensive = true
	registration, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Len(t, registration.UserID, 8)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, registration.UserID)
	assert.Equal(t, pricing.RegionNordic, registration.Region)
	assert.Equal(t, pricing.TierMidgard, registration.PriceTier)
	assert.Equal(t, 1700, registration.BasePrice)
	assert.Equal(t, 2700, registration.AmountDue)
	assert.Equal(t, model.RegistrationStatusWaitingList, registration.Status)
	assert.Equal(t, time.Date(2025, 7, 5, 0, 0, 0, 0, f.deps.Table.Location), registration.PaymentDeadline)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"kari@example.com"}, sent[0].To)
	assert.Equal(t, "Norwegian Open: registration received", sent[0].Subject)
	require.Len(t, f.alerts.texts, 1)
	assert.Contains(t, f.alerts.texts[0], registration.UserID)
}

// A judge discount for an Advanced dancer takes 20% off the tier base price.
func TestRegistrationService_Submit_JudgeDiscount(t *testing.T) {
	f := newFixture(t)
	f.deps.Table.BasePrices[pricing.TierMidgard][pricing.RegionNordic] = 2000
	svc := NewRegistrationService(f.deps)

	in := validInput()
	in.Level = "Advanced"
	in.PassOption = "Judge (20% Discount)"
	in.Region = "Nordic"
	in.Country = "Germany"

	registration, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, pricing.RegionNordic, registration.Region)
	assert.Equal(t, 2000, registration.BasePrice)
	assert.Equal(t, 1600, registration.AmountDue)
	assert.Equal(t, model.RegistrationStatusWaitingList, registration.Status)
}

func TestRegistrationService_Submit_InitialStatus(t *testing.T) {
	tests := []struct {
		name        string
		hasPartner  bool
		partnerName string
		want        model.RegistrationStatus
	}{
		{"no partner", false, "", model.RegistrationStatusWaitingList},
		{"partner flag", true, "", model.RegistrationStatusPendingApproval},
		{"partner name only", false, "Ola Nordmann", model.RegistrationStatusPendingApproval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := NewRegistrationService(f.deps)

			in := validInput()
			in.HasPartner = tt.hasPartner
			in.PartnerName = tt.partnerName
			registration, err := svc.Submit(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, registration.Status)
		})
	}
}

func TestRegistrationService_Submit_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*RegistrationInput)
		wantField string
		wantMsg   string
	}{
		{"missing email", func(in *RegistrationInput) { in.Email = "" }, "Email", "Email is required."},
		{"malformed email", func(in *RegistrationInput) { in.Email = "kari@example" }, "Email", "Please enter a valid email address."},
		{"missing name", func(in *RegistrationInput) { in.FullName = "  " }, "FullName", "Full name is required."},
		{"unknown level", func(in *RegistrationInput) { in.Level = "Expert" }, "Level", "Please select a valid level."},
		{"bad role", func(in *RegistrationInput) { in.Role = "Both" }, "Role", "Invalid role selection."},
		{"terms not accepted", func(in *RegistrationInput) { in.AcceptedToC = false }, "Terms", "You must accept the rules and the terms and conditions."},
		{"pass not allowed for level", func(in *RegistrationInput) { in.PassOption = "Judge (Free Pass)" }, "PassOption", "Selected pass option 'Judge (Free Pass)' is not valid for level 'Intermediate'."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := NewRegistrationService(f.deps)

			in := validInput()
			tt.modify(&in)
			_, err := svc.Submit(context.Background(), in)

			rejections, ok := validator.AsRejections(err)
			require.True(t, ok, "expected rejections, got %v", err)
			assert.Equal(t, tt.wantField, rejections.Primary().Field)
			assert.Equal(t, tt.wantMsg, rejections.Primary().Reason)

			registrations, err := f.repo.ListRegistrations(context.Background(), repository.ListRegistrationsParams{})
			require.NoError(t, err)
			assert.Empty(t, registrations)
			assert.Empty(t, f.mail.Sent())
		})
	}
}

func TestRegistrationService_Submit_CollectsAllRejections(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*RegistrationInput)
		fields  []string
		primary string
	}{
		{
			name:    "empty form",
			modify:  func(in *RegistrationInput) { *in = RegistrationInput{} },
			fields:  []string{"Email", "FullName", "Level", "PassOption", "Role", "Country", "Terms"},
			primary: "Email",
		},
		{
			name: "pass option not allowed alongside another rejection",
			modify: func(in *RegistrationInput) {
				in.Country = ""
				in.Level = "Newcomer"
				in.PassOption = "Judge (Free Pass)"
			},
			fields:  []string{"Country", "PassOption"},
			primary: "Country",
		},
		{
			name: "allow-list skipped when level is invalid",
			modify: func(in *RegistrationInput) {
				in.Country = ""
				in.Level = "Expert"
				in.PassOption = "Judge (Free Pass)"
			},
			fields:  []string{"Level", "Country"},
			primary: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := NewRegistrationService(f.deps)

			in := validInput()
			tt.modify(&in)
			_, err := svc.Submit(context.Background(), in)

			rejections, ok := validator.AsRejections(err)
			require.True(t, ok)
			assert.Equal(t, tt.fields, rejections.Fields())
			assert.Equal(t, tt.primary, rejections.Primary().Field)
		})
	}
}

// takenUserIDs reports every public id as already in use.
type takenUserIDs struct {
	*testutil.MemoryRepository
}

func (takenUserIDs) UserIDExists(context.Context, string) (bool, error) { return true, nil }

func TestRegistrationService_Submit_UserIDExhausted(t *testing.T) {
	f := newFixture(t)
	f.deps.Repo = takenUserIDs{f.repo}
	svc := NewRegistrationService(f.deps)

	_, err := svc.Submit(context.Background(), validInput())
	require.ErrorIs(t, err, ErrUserIDExhausted)

	_, isRejection := validator.AsRejections(err)
	assert.False(t, isRejection)

	stored, err := f.repo.ListRegistrations(context.Background(), repository.ListRegistrationsParams{})
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Empty(t, f.mail.Sent())
	assert.Empty(t, f.alerts.texts)
}

func TestRegistrationService_Submit_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)

	first, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)

	in := validInput()
	in.Email = "KARI@example.com"
	_, err = svc.Submit(context.Background(), in)
	rejections, ok := validator.AsRejections(err)
	require.True(t, ok)
	assert.Equal(t, "Email", rejections.Primary().Field)

	_, err = svc.UpdateStatus(context.Background(), first.UserID, model.RegistrationStatusCancelled, false)
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), in)
	assert.NoError(t, err)
}

func TestRegistrationService_Submit_Closed(t *testing.T) {
	f := newFixture(t)
	f.clock.T = time.Date(2025, 5, 1, 12, 0, 0, 0, f.deps.Table.Location)
	svc := NewRegistrationService(f.deps)

	_, err := svc.Submit(context.Background(), validInput())
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegistrationService_Submit_EmailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.mail.Fail = errors.New("relay down")
	f.alerts.err = errors.New("telegram down")
	svc := NewRegistrationService(f.deps)

	registration, err := svc.Submit(context.Background(), validInput())
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), registration.UserID)
	require.NoError(t, err)
	assert.Equal(t, registration.ID, stored.ID)
}

func TestRegistrationService_Submit_RepositoryError(t *testing.T) {
	f := newFixture(t)
	f.repo.Err = errors.New("connection refused")
	svc := NewRegistrationService(f.deps)

	_, err := svc.Submit(context.Background(), validInput())
	require.Error(t, err)
	_, ok := validator.AsRejections(err)
	assert.False(t, ok)
}

// Approving with notify persists the status, mails the approval once and
// records that it was sent.
func TestRegistrationService_UpdateStatus_Approve(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	registration, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)
	f.mail.Reset()

	updated, err := svc.UpdateStatus(ctx, registration.UserID, model.RegistrationStatusApproved, true)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationStatusApproved, updated.Status)
	assert.True(t, updated.ApprovalEmailSent)

	stored, err := svc.Get(ctx, registration.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationStatusApproved, stored.Status)
	assert.True(t, stored.ApprovalEmailSent)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Norwegian Open: your registration is approved", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "1700 NOK")
	assert.Contains(t, sent[0].HTML, "5 July 2025")
	assert.Contains(t, sent[0].HTML, registration.UserID)

	_, err = svc.UpdateStatus(ctx, registration.UserID, model.RegistrationStatusApproved, true)
	require.NoError(t, err)
	assert.Len(t, f.mail.Sent(), 1)
}

func TestRegistrationService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	registration, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)
	f.mail.Reset()

	t.Run("without notify", func(t *testing.T) {
		updated, err := svc.UpdateStatus(ctx, registration.UserID, model.RegistrationStatusApproved, false)
		require.NoError(t, err)
		assert.False(t, updated.ApprovalEmailSent)
		assert.Empty(t, f.mail.Sent())
	})

	t.Run("send failure leaves flag unset", func(t *testing.T) {
		f.mail.Fail = errors.New("relay down")
		defer func() { f.mail.Fail = nil }()

		updated, err := svc.UpdateStatus(ctx, registration.UserID, model.RegistrationStatusApproved, true)
		require.NoError(t, err)
		assert.Equal(t, model.RegistrationStatusApproved, updated.Status)
		assert.False(t, updated.ApprovalEmailSent)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, registration.UserID, "paid", false)
		_, ok := validator.AsRejections(err)
		assert.True(t, ok)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, "ZZZZZZZZ", model.RegistrationStatusApproved, false)
		assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)
	})
}

func TestRegistrationService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	in := validInput()
	in.PassOption = string(pricing.PassZeroToHero)
	registration, err := svc.Submit(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 1300, registration.AmountDue)

	updated, err := svc.Update(ctx, registration.UserID, repository.UpdateRegistrationParams{
		FullName:  util.Some("Kari O. Nordmann"),
		AmountDue: util.Some(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, "Kari O. Nordmann", updated.FullName)
	assert.Equal(t, 1500, updated.AmountDue)
	assert.Equal(t, registration.Email, updated.Email)

	_, err = svc.Update(ctx, registration.UserID, repository.UpdateRegistrationParams{
		Level: util.Some(pricing.LevelAllStar),
	})
	rejections, ok := validator.AsRejections(err)
	require.True(t, ok)
	assert.Equal(t, "PassOption", rejections.Primary().Field)

	updated, err = svc.Update(ctx, registration.UserID, repository.UpdateRegistrationParams{
		Level:      util.Some(pricing.LevelAllStar),
		PassOption: util.Some(pricing.PassJudgeFree),
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.PassJudgeFree, updated.PassOption)
}

func TestRegistrationService_SearchAndCheckIn(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	registration, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)

	byName, err := svc.Search(ctx, "nordm")
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byID, err := svc.Search(ctx, registration.UserID)
	require.NoError(t, err)
	require.Len(t, byID, 1)

	none, err := svc.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, none)

	checkedIn, err := svc.CheckIn(ctx, registration.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationStatusCheckedIn, checkedIn.Status)
}

func TestRegistrationService_Delete(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	registration, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, registration.UserID))
	_, err = svc.Get(ctx, registration.UserID)
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, registration.UserID), repository.ErrRegistrationNotFound)
}

func TestRegistrationService_PaymentReminders(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		in := validInput()
		in.Email = email
		registration, err := svc.Submit(ctx, in)
		require.NoError(t, err)
		if email != "c@example.com" {
			_, err = svc.UpdateStatus(ctx, registration.UserID, model.RegistrationStatusApproved, false)
			require.NoError(t, err)
		}
	}
	f.mail.Reset()

	result, err := svc.SendPaymentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, SendResult{Sent: 2}, result)

	sent := f.mail.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Norwegian Open: payment reminder", sent[0].Subject)
	assert.Contains(t, sent[0].Text, "14 days left")
}

func TestRegistrationService_Participant(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	hotels := NewHotelService(f.deps)
	ctx := context.Background()

	registration, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)

	participant, err := svc.Participant(ctx, registration.UserID)
	require.NoError(t, err)
	assert.False(t, participant.Hotel.IsSet)

	_, err = hotels.Submit(ctx, HotelBookingInput{
		FullName: "Kari Nordmann",
		Email:    "kari@example.com",
		Option:   string(pricing.HotelSingle),
		CheckIn:  "2025-10-02",
		CheckOut: "2025-10-04",
	})
	require.NoError(t, err)

	participant, err = svc.Participant(ctx, registration.UserID)
	require.NoError(t, err)
	require.True(t, participant.Hotel.IsSet)
	assert.Equal(t, 2580, participant.Hotel.Val.AmountDue)

	_, err = svc.Participant(ctx, "NOPE0000")
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)
}

func TestRegistrationService_Preview(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)
	ctx := context.Background()

	registration, err := svc.Submit(ctx, validInput())
	require.NoError(t, err)
	f.mail.Reset()

	email, err := svc.Preview(ctx, registration.UserID, notification.KindPaymentReminder)
	require.NoError(t, err)
	assert.Equal(t, "Norwegian Open: payment reminder", email.Subject)
	assert.Empty(t, f.mail.Sent())

	_, err = svc.Preview(ctx, registration.UserID, notification.KindHotelConfirmation)
	assert.ErrorIs(t, err, repository.ErrHotelBookingNotFound)
}

func TestRegistrationService_Quote(t *testing.T) {
	f := newFixture(t)
	svc := NewRegistrationService(f.deps)

	quote, err := svc.Quote(pricing.LevelAdvanced, pricing.PassJudgeDiscount, pricing.RegionWorld, true)
	require.NoError(t, err)
	assert.Equal(t, 2000, quote.BasePrice)
	assert.Equal(t, 1600, quote.PassPrice)
	assert.Equal(t, 2600, quote.AmountDue)

	_, err = svc.Quote(pricing.LevelNovice, pricing.PassJudgeDiscount, pricing.RegionWorld, false)
	assert.ErrorIs(t, err, pricing.ErrInvalidPassOption)
}
