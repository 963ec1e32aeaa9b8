package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"norwegianopen/internal/alert"
	"norwegianopen/internal/mailer"
	"norwegianopen/internal/model"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/util"
	"norwegianopen/internal/validator"
)

const (
	userIDLength      = 8
	maxUserIDAttempts = 5
)

// RegistrationInput is the public sign-up form. Fields are validated in
// declaration order, so the first rejection is the one shown to the submitter.
type RegistrationInput struct {
	Email      string `json:"email" form:"email" validate:"required,basic_email" field:"Email" msg:"Email is required."`
	FullName   string `json:"full_name" form:"full_name" validate:"required,max=200" field:"FullName" msg:"Full name is required."`
	Level      string `json:"level" form:"level" validate:"required,level" field:"Level" msg:"Please select your level."`
	PassOption string `json:"pass_option" form:"pass_option" validate:"required" field:"PassOption" msg:"Please select a pass option."`
	Role       string `json:"role" form:"role" validate:"required,oneof=Leader Follower" field:"Role" msg:"Please select your role."`
	Country    string `json:"country" form:"country" validate:"required,max=100" field:"Country" msg:"Country is required."`

	AcceptedRules bool `json:"accepted_rules" form:"accepted_rules" validate:"eq=true" field:"Terms" msg:"You must accept the rules and the terms and conditions."`
	AcceptedToC   bool `json:"accepted_toc" form:"accepted_toc" validate:"eq=true" field:"Terms" msg:"You must accept the rules and the terms and conditions."`

	Region         string `json:"region" form:"region" validate:"region" field:"Region"`
	WSDCID         string `json:"wsdc_id" form:"wsdc_id" validate:"max=20" field:"WSDCID"`
	Competing      bool   `json:"competing" form:"competing"`
	AddedIntensive bool   `json:"added_intensive" form:"added_intensive"`
	PromoCode      string `json:"promo_code" form:"promo_code" validate:"max=50" field:"PromoCode"`
	HasPartner     bool   `json:"has_partner" form:"has_partner"`
	PartnerName    string `json:"partner_name" form:"partner_name" validate:"max=200" field:"PartnerName"`
	PartnerEmail   string `json:"partner_email" form:"partner_email" validate:"omitempty,basic_email" field:"PartnerEmail"`
}

func (in *RegistrationInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Level = strings.TrimSpace(in.Level)
	in.PassOption = strings.TrimSpace(in.PassOption)
	in.Role = strings.TrimSpace(in.Role)
	in.Country = strings.TrimSpace(in.Country)
	in.Region = strings.TrimSpace(in.Region)
	in.WSDCID = strings.TrimSpace(in.WSDCID)
	in.PromoCode = strings.TrimSpace(in.PromoCode)
	in.PartnerName = strings.TrimSpace(in.PartnerName)
	in.PartnerEmail = strings.TrimSpace(in.PartnerEmail)
}

type RegistrationService struct {
	deps     Deps
	notifier notifier
}

func NewRegistrationService(deps Deps) *RegistrationService {
	deps = deps.withDefaults()
	return &RegistrationService{deps: deps, notifier: newNotifier(deps)}
}

// Quote prices a selection without storing anything.
func (s *RegistrationService) Quote(level pricing.Level, option pricing.PassOption, region pricing.Region, addedIntensive bool) (pricing.Quote, error) {
	return s.deps.Table.Quote(level, option, region, addedIntensive, s.deps.Now())
}

// PriceList is the public view of the current prices.
func (s *RegistrationService) PriceList() pricing.PriceList {
	return s.deps.Table.PriceList(s.deps.Now())
}

// Submit validates, prices and stores a registration. Field problems are
// returned as validator.Rejections.
func (s *RegistrationService) Submit(ctx context.Context, in RegistrationInput) (model.Registration, error) {
	now := s.deps.Now()
	if !s.deps.Table.IsOpen(now) {
		return model.Registration{}, ErrRegistrationClosed
	}

	in.normalize()
	rejections := s.deps.Validator.Check(in)

	level := pricing.Level(in.Level)
	option := pricing.PassOption(in.PassOption)
	fields := rejections.Fields()
	checkable := !slices.Contains(fields, "Level") && !slices.Contains(fields, "PassOption")
	if checkable && !s.deps.Table.IsPassOptionAllowed(level, option) {
		rejections.Add("PassOption", fmt.Sprintf("Selected pass option '%s' is not valid for level '%s'.", option, level))
	}
	if len(rejections) > 0 {
		s.deps.Metrics.RecordRegistration(ctx, in.Level, false)
		return model.Registration{}, rejections
	}

	region, ok := pricing.ParseRegion(in.Region)
	if !ok {
		region = pricing.RegionForCountry(in.Country)
	}

	quote, err := s.deps.Table.Quote(level, option, region, in.AddedIntensive, now)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidPassOption) {
			return model.Registration{}, validator.Rejections{{Field: "PassOption", Reason: fmt.Sprintf("Selected pass option '%s' is not valid for level '%s'.", option, level)}}
		}
		return model.Registration{}, fmt.Errorf("failed to price registration: %w", err)
	}

	exists, err := s.deps.Repo.ActiveEmailExists(ctx, in.Email)
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		s.deps.Metrics.RecordRegistration(ctx, in.Level, false)
		return model.Registration{}, validator.Rejections{{Field: "Email", Reason: "This email is already registered."}}
	}

	params := repository.CreateRegistrationParams{
		FullName:        in.FullName,
		Email:           in.Email,
		WSDCID:          in.WSDCID,
		Country:         in.Country,
		Region:          region,
		Level:           level,
		Role:            model.Role(in.Role),
		Competing:       in.Competing,
		PassOption:      option,
		AddedIntensive:  in.AddedIntensive,
		PromoCode:       in.PromoCode,
		HasPartner:      in.HasPartner,
		PartnerName:     in.PartnerName,
		PartnerEmail:    in.PartnerEmail,
		BasePrice:       quote.BasePrice,
		AmountDue:       quote.AmountDue,
		PriceTier:       quote.Tier,
		PaymentDeadline: s.deps.Table.PaymentDeadline(now),
		Status:          model.InitialStatus(in.HasPartner, in.PartnerName),
		AcceptedRules:   in.AcceptedRules,
		AcceptedToC:     in.AcceptedToC,
	}

	registration, err := s.create(ctx, params)
	if err != nil {
		s.deps.Metrics.RecordRegistration(ctx, in.Level, false)
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return model.Registration{}, validator.Rejections{{Field: "Email", Reason: "This email is already registered."}}
		}
		return model.Registration{}, err
	}
	s.deps.Metrics.RecordRegistration(ctx, in.Level, true)

	s.deps.Logger.InfoContext(ctx, "Registration created",
		"user_id", registration.UserID, "level", registration.Level, "status", registration.Status)

	s.notifier.send(ctx, notification.KindRegistrationReceived, registration, mailer.Message{To: []string{registration.Email}})
	s.notifier.alert(ctx, s.deps.Alerts, alert.RegistrationText(registration))

	return registration, nil
}

// create draws public ids until one is free, giving up after maxUserIDAttempts.
func (s *RegistrationService) create(ctx context.Context, params repository.CreateRegistrationParams) (model.Registration, error) {
	for attempt := 1; attempt <= maxUserIDAttempts; attempt++ {
		userID, err := util.RandomAlphanumeric(userIDLength)
		if err != nil {
			return model.Registration{}, fmt.Errorf("failed to generate user id: %w", err)
		}

		taken, err := s.deps.Repo.UserIDExists(ctx, userID)
		if err != nil {
			return model.Registration{}, fmt.Errorf("failed to check user id: %w", err)
		}
		if taken {
			continue
		}

		params.UserID = userID
		registration, err := s.deps.Repo.CreateRegistration(ctx, params)
		if errors.Is(err, repository.ErrDuplicateUserID) {
			continue
		}
		if err != nil {
			return model.Registration{}, fmt.Errorf("failed to create registration: %w", err)
		}
		return registration, nil
	}

	s.deps.Logger.ErrorContext(ctx, "Exhausted user id attempts", "attempts", maxUserIDAttempts)
	return model.Registration{}, ErrUserIDExhausted
}

type ListRegistrationsParams struct {
	Filter model.RegistrationFilter
	Limit  int
	Offset int
}

// List returns registrations newest first.
func (s *RegistrationService) List(ctx context.Context, params ListRegistrationsParams) ([]model.Registration, error) {
	registrations, err := s.deps.Repo.ListRegistrations(ctx, repository.ListRegistrationsParams{
		Filter: params.Filter,
		Order:  repository.OrderByDESC,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return registrations, nil
}

func (s *RegistrationService) Get(ctx context.Context, userID string) (model.Registration, error) {
	registration, err := s.deps.Repo.GetRegistration(ctx, repository.GetRegistrationParams{
		UserID: util.Some(strings.ToUpper(strings.TrimSpace(userID))),
	})
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to get registration: %w", err)
	}
	return registration, nil
}

// Participant is what a registrant sees on their own page.
type Participant struct {
	Registration model.Registration                `json:"registration"`
	Hotel        util.Optional[model.HotelBooking] `json:"hotel"`
}

// Participant looks up a registration by public id together with the hotel
// booking made with the same email, if any.
func (s *RegistrationService) Participant(ctx context.Context, userID string) (Participant, error) {
	registration, err := s.Get(ctx, userID)
	if err != nil {
		return Participant{}, err
	}

	participant := Participant{Registration: registration}
	booking, err := s.deps.Repo.GetHotelBookingByEmail(ctx, registration.Email)
	switch {
	case err == nil:
		participant.Hotel = util.Some(booking)
	case errors.Is(err, repository.ErrHotelBookingNotFound):
	default:
		return Participant{}, fmt.Errorf("failed to get hotel booking: %w", err)
	}
	return participant, nil
}

// Update applies an admin edit. A changed level or pass option is checked
// against the allow-list of the resulting combination.
func (s *RegistrationService) Update(ctx context.Context, userID string, params repository.UpdateRegistrationParams) (model.Registration, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return model.Registration{}, err
	}

	var rejections validator.Rejections
	if params.Email.IsSet && !validator.IsEmail(strings.TrimSpace(params.Email.Val)) {
		rejections.Add("Email", "Please enter a valid email address.")
	}
	if params.FullName.IsSet && strings.TrimSpace(params.FullName.Val) == "" {
		rejections.Add("FullName", "Full name is required.")
	}
	if params.Status.IsSet && !params.Status.Val.Valid() {
		rejections.Add("Status", "Invalid status selection.")
	}
	if params.Region.IsSet {
		if _, ok := pricing.ParseRegion(string(params.Region.Val)); !ok {
			rejections.Add("Region", "Please select a valid region.")
		}
	}
	if params.Level.IsSet || params.PassOption.IsSet {
		level := params.Level.UnwrapOr(current.Level)
		option := params.PassOption.UnwrapOr(current.PassOption)
		if _, ok := pricing.CategoryOf(level); !ok {
			rejections.Add("Level", "Please select a valid level.")
		} else if !s.deps.Table.IsPassOptionAllowed(level, option) {
			rejections.Add("PassOption", fmt.Sprintf("Selected pass option '%s' is not valid for level '%s'.", option, level))
		}
	}
	if len(rejections) > 0 {
		return model.Registration{}, rejections
	}

	updated, err := s.deps.Repo.UpdateRegistration(ctx, current.ID, params)
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to update registration: %w", err)
	}
	return updated, nil
}

// UpdateStatus moves a registration to status. Approving with notify sends the
// approval email, once per registration.
func (s *RegistrationService) UpdateStatus(ctx context.Context, userID string, status model.RegistrationStatus, notify bool) (model.Registration, error) {
	if !status.Valid() {
		return model.Registration{}, validator.Rejections{{Field: "Status", Reason: "Invalid status selection."}}
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return model.Registration{}, err
	}

	updated, err := s.deps.Repo.UpdateRegistration(ctx, current.ID, repository.UpdateRegistrationParams{
		Status: util.Some(status),
	})
	if err != nil {
		return model.Registration{}, fmt.Errorf("failed to update status: %w", err)
	}
	s.deps.Logger.InfoContext(ctx, "Registration status updated",
		"user_id", updated.UserID, "from", current.Status, "to", status)

	if status != model.RegistrationStatusApproved || !notify || updated.ApprovalEmailSent {
		return updated, nil
	}

	if !s.notifier.send(ctx, notification.KindRegistrationApproved, updated, mailer.Message{To: []string{updated.Email}}) {
		return updated, nil
	}
	flagged, err := s.deps.Repo.UpdateRegistration(ctx, updated.ID, repository.UpdateRegistrationParams{
		ApprovalEmailSent: util.Some(true),
	})
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "Failed to record approval email", "user_id", updated.UserID, "error", err)
		updated.ApprovalEmailSent = true
		return updated, nil
	}
	return flagged, nil
}

func (s *RegistrationService) Delete(ctx context.Context, userID string) error {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.deps.Repo.DeleteRegistration(ctx, current.ID); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}
	s.deps.Logger.InfoContext(ctx, "Registration deleted", "user_id", current.UserID)
	return nil
}

// Search finds registrations for the check-in desk by name or public id.
func (s *RegistrationService) Search(ctx context.Context, query string) ([]model.Registration, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Registration{}, nil
	}
	registrations, err := s.deps.Repo.SearchRegistrations(ctx, query, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to search registrations: %w", err)
	}
	return registrations, nil
}

func (s *RegistrationService) CheckIn(ctx context.Context, userID string) (model.Registration, error) {
	return s.UpdateStatus(ctx, userID, model.RegistrationStatusCheckedIn, false)
}

// SendPaymentReminder mails the payment reminder to one registrant and reports
// whether it was delivered.
func (s *RegistrationService) SendPaymentReminder(ctx context.Context, userID string) (bool, error) {
	registration, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.notifier.send(ctx, notification.KindPaymentReminder, registration, mailer.Message{To: []string{registration.Email}}), nil
}

// SendResult counts delivered and failed emails.
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// SendPaymentReminders reminds every approved registration that has not paid.
func (s *RegistrationService) SendPaymentReminders(ctx context.Context) (SendResult, error) {
	registrations, err := s.List(ctx, ListRegistrationsParams{
		Filter: model.RegistrationFilter{Statuses: []model.RegistrationStatus{model.RegistrationStatusApproved}},
	})
	if err != nil {
		return SendResult{}, err
	}

	var result SendResult
	for _, registration := range registrations {
		if s.notifier.send(ctx, notification.KindPaymentReminder, registration, mailer.Message{To: []string{registration.Email}}) {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	s.deps.Logger.InfoContext(ctx, "Payment reminders sent", "sent", result.Sent, "failed", result.Failed)
	return result, nil
}

// Preview renders the email of kind for a stored registration without sending it.
func (s *RegistrationService) Preview(ctx context.Context, userID string, kind notification.Kind) (notification.Email, error) {
	if s.deps.Renderer == nil {
		return notification.Email{}, errors.New("email renderer is not configured")
	}
	registration, err := s.Get(ctx, userID)
	if err != nil {
		return notification.Email{}, err
	}

	var record any = registration
	if kind == notification.KindHotelConfirmation {
		booking, err := s.deps.Repo.GetHotelBookingByEmail(ctx, registration.Email)
		if err != nil {
			return notification.Email{}, fmt.Errorf("failed to get hotel booking: %w", err)
		}
		record = booking
	}
	return s.deps.Renderer.Render(kind, record, s.deps.Now())
}
