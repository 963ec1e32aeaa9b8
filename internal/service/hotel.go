package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"norwegianopen/internal/alert"
	"norwegianopen/internal/dashboard"
	"norwegianopen/internal/mailer"
	"norwegianopen/internal/model"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/util"
	"norwegianopen/internal/validator"

	"github.com/google/uuid"
)

const (
	msgRoomsFull      = "Sorry, all rooms are currently booked."
	msgLargeRoomsFull = "Sorry, all triple and quadro rooms are currently booked."
)

// HotelBookingInput is the public hotel form. Dates are YYYY-MM-DD.
type HotelBookingInput struct {
	FullName        string   `json:"full_name" form:"full_name" validate:"required,max=200" field:"FullName" msg:"Full name is required."`
	Email           string   `json:"email" form:"email" validate:"required,basic_email" field:"Email" msg:"Email is required."`
	Option          string   `json:"option" form:"option" validate:"required,hotel_option" field:"HotelOption" msg:"Please select a hotel option."`
	CheckIn         string   `json:"check_in" form:"check_in"`
	CheckOut        string   `json:"check_out" form:"check_out"`
	Roommates       []string `json:"roommates" form:"roommates"`
	SpecialRequests string   `json:"special_requests" form:"special_requests" validate:"max=2000" field:"SpecialRequests"`
}

type HotelService struct {
	deps     Deps
	notifier notifier
}

func NewHotelService(deps Deps) *HotelService {
	deps = deps.withDefaults()
	return &HotelService{deps: deps, notifier: newNotifier(deps)}
}

func (s *HotelService) limits() repository.HotelLimits {
	return repository.HotelLimits{MaxRooms: s.deps.Table.MaxRooms, MaxLargeRooms: s.deps.Table.MaxLargeRooms}
}

// Submit validates and prices a booking and stores it if the room caps allow.
func (s *HotelService) Submit(ctx context.Context, in HotelBookingInput) (model.HotelBooking, error) {
	now := s.deps.Now()

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.SpecialRequests = strings.TrimSpace(in.SpecialRequests)

	rejections := s.deps.Validator.Check(in)
	if len(rejections) > 0 {
		s.deps.Metrics.RecordHotelBooking(ctx, in.Option, false)
		return model.HotelBooking{}, rejections
	}

	option, _ := pricing.ParseHotelOption(in.Option)
	roommates := cleanRoommates(in.Roommates)

	params := repository.CreateHotelBookingParams{
		FullName:        in.FullName,
		Email:           in.Email,
		Option:          option,
		SpecialRequests: in.SpecialRequests,
		PaymentDeadline: s.deps.Table.PaymentDeadline(now),
	}

	if option.IsRoom() {
		checkIn, checkOut, rejection := s.stay(in.CheckIn, in.CheckOut)
		if rejection != nil {
			rejections.Add(rejection.Field, rejection.Reason)
		} else if reason := roommateRule(option, len(roommates)); reason != "" {
			rejections.Add("Roommates", reason)
		}
		if len(rejections) > 0 {
			s.deps.Metrics.RecordHotelBooking(ctx, string(option), false)
			return model.HotelBooking{}, rejections
		}

		quote := s.deps.Table.HotelPrice(option, checkIn, checkOut)
		params.CheckIn = util.Some(checkIn)
		params.CheckOut = util.Some(checkOut)
		params.Nights = quote.Nights
		params.AmountDue = quote.Amount
		if option.Occupancy() > 1 {
			params.Roommates = roommates
		}
	}

	booking, err := s.deps.Repo.CreateHotelBooking(ctx, params, s.limits())
	if err != nil {
		s.deps.Metrics.RecordHotelBooking(ctx, string(option), false)
		switch {
		case errors.Is(err, repository.ErrRoomCapReached):
			return model.HotelBooking{}, validator.Rejections{{Field: "HotelOption", Reason: msgRoomsFull}}
		case errors.Is(err, repository.ErrLargeRoomCapReached):
			return model.HotelBooking{}, validator.Rejections{{Field: "HotelOption", Reason: msgLargeRoomsFull}}
		}
		return model.HotelBooking{}, fmt.Errorf("failed to create hotel booking: %w", err)
	}
	s.deps.Metrics.RecordHotelBooking(ctx, string(option), true)

	s.deps.Logger.InfoContext(ctx, "Hotel booking created",
		"booking_id", booking.ID, "option", booking.Option, "nights", booking.Nights)
	s.notifier.alert(ctx, s.deps.Alerts, alert.HotelBookingText(booking))

	return booking, nil
}

// stay parses and checks the dates of a room booking.
func (s *HotelService) stay(checkInValue, checkOutValue string) (time.Time, time.Time, *validator.Rejection) {
	if strings.TrimSpace(checkInValue) == "" {
		return time.Time{}, time.Time{}, &validator.Rejection{Field: "CheckIn", Reason: "Check-in date is required."}
	}
	if strings.TrimSpace(checkOutValue) == "" {
		return time.Time{}, time.Time{}, &validator.Rejection{Field: "CheckOut", Reason: "Check-out date is required."}
	}
	checkIn, err := s.deps.Table.ParseDate(checkInValue)
	if err != nil {
		return time.Time{}, time.Time{}, &validator.Rejection{Field: "CheckIn", Reason: "Please enter a valid check-in date."}
	}
	checkOut, err := s.deps.Table.ParseDate(checkOutValue)
	if err != nil {
		return time.Time{}, time.Time{}, &validator.Rejection{Field: "CheckOut", Reason: "Please enter a valid check-out date."}
	}

	if !checkOut.After(checkIn) {
		return time.Time{}, time.Time{}, &validator.Rejection{Field: "CheckOut", Reason: "Check-in date must be before check-out date."}
	}
	window := s.deps.Table.HotelWindow
	if !window.Contains(checkIn) || !window.Contains(checkOut) {
		return time.Time{}, time.Time{}, &validator.Rejection{
			Field:  "CheckIn",
			Reason: fmt.Sprintf("Hotel dates must be between %s and %s.", window.First.Format(time.DateOnly), window.Last.Format(time.DateOnly)),
		}
	}
	return checkIn, checkOut, nil
}

// roommateRule returns the rejection reason when count does not fill the room.
func roommateRule(option pricing.HotelOption, count int) string {
	switch option {
	case pricing.HotelTwin:
		if count != 1 {
			return "Twin room requires one roommate name."
		}
	case pricing.HotelTriple:
		if count != 2 {
			return "Triple room requires two roommate names."
		}
	case pricing.HotelQuatro:
		if count != 3 {
			return "Quatro room requires three roommate names."
		}
	}
	return ""
}

func cleanRoommates(names []string) []string {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}

// List returns every booking, oldest first.
func (s *HotelService) List(ctx context.Context, statuses ...model.HotelStatus) ([]model.HotelBooking, error) {
	bookings, err := s.deps.Repo.ListHotelBookings(ctx, repository.ListHotelBookingsParams{
		Statuses: statuses,
		Order:    repository.OrderByASC,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list hotel bookings: %w", err)
	}
	return bookings, nil
}

// StatusChange is one entry of a bulk status update.
type StatusChange struct {
	ID     uuid.UUID         `json:"id"`
	Status model.HotelStatus `json:"status"`
}

// UpdateStatuses applies changes in order and stops at the first failure.
// Confirming with notify sends the confirmation email once per booking.
func (s *HotelService) UpdateStatuses(ctx context.Context, changes []StatusChange, notify bool) ([]model.HotelBooking, error) {
	for _, change := range changes {
		if !change.Status.Valid() {
			return nil, validator.Rejections{{Field: "Status", Reason: "Invalid status selection."}}
		}
	}

	updated := make([]model.HotelBooking, 0, len(changes))
	for _, change := range changes {
		booking, err := s.deps.Repo.UpdateHotelBooking(ctx, change.ID, repository.UpdateHotelBookingParams{
			Status: util.Some(change.Status),
		})
		if err != nil {
			return updated, fmt.Errorf("failed to update hotel booking %s: %w", change.ID, err)
		}

		if change.Status == model.HotelStatusConfirmed && notify && !booking.ConfirmationEmailSent {
			if s.notifier.send(ctx, notification.KindHotelConfirmation, booking, mailer.Message{To: []string{booking.Email}}) {
				flagged, err := s.deps.Repo.UpdateHotelBooking(ctx, booking.ID, repository.UpdateHotelBookingParams{
					ConfirmationEmailSent: util.Some(true),
				})
				if err != nil {
					s.deps.Logger.ErrorContext(ctx, "Failed to record hotel confirmation email", "booking_id", booking.ID, "error", err)
					booking.ConfirmationEmailSent = true
				} else {
					booking = flagged
				}
			}
		}
		updated = append(updated, booking)
	}

	s.deps.Logger.InfoContext(ctx, "Hotel statuses updated", "count", len(updated), "notify", notify)
	return updated, nil
}

// HotelOverview is the hotel dashboard.
type HotelOverview struct {
	Bookings []model.HotelBooking   `json:"bookings"`
	Summary  dashboard.HotelSummary `json:"summary"`
}

func (s *HotelService) Overview(ctx context.Context) (HotelOverview, error) {
	bookings, err := s.List(ctx)
	if err != nil {
		return HotelOverview{}, err
	}
	return HotelOverview{
		Bookings: bookings,
		Summary:  dashboard.SummarizeHotel(bookings, s.deps.Table.MaxRooms, s.deps.Table.MaxLargeRooms),
	}, nil
}
