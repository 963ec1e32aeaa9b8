package model

import (
	"fmt"
	"time"

	"norwegianopen/internal/pricing"
	"norwegianopen/internal/util"

	"github.com/google/uuid"
)

type HotelStatus string

const (
	HotelStatusPending   HotelStatus = "pending"
	HotelStatusConfirmed HotelStatus = "confirmed"
	HotelStatusPaid      HotelStatus = "paid"
	HotelStatusCancelled HotelStatus = "cancelled"
)

var HotelStatuses = []HotelStatus{HotelStatusPending, HotelStatusConfirmed, HotelStatusPaid, HotelStatusCancelled}

func (s HotelStatus) String() string {
	return string(s)
}

func (s HotelStatus) Valid() bool {
	for _, status := range HotelStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s *HotelStatus) Scan(value any) error {
	if str, ok := value.(string); ok {
		*s = HotelStatus(str)
		return nil
	}
	return fmt.Errorf("cannot scan %T into HotelStatus", value)
}

type HotelBooking struct {
	ID              uuid.UUID                `json:"id"`
	FullName        string                   `json:"full_name"`
	Email           string                   `json:"email"`
	Option          pricing.HotelOption      `json:"option"`
	CheckIn         util.Optional[time.Time] `json:"check_in"`
	CheckOut        util.Optional[time.Time] `json:"check_out"`
	Nights          int                      `json:"nights"`
	AmountDue       int                      `json:"amount_due"`
	Roommates       []string                 `json:"roommates"`
	SpecialRequests string                   `json:"special_requests"`
	PaymentDeadline time.Time                `json:"payment_deadline"`
	Status          HotelStatus              `json:"status"`

	ConfirmationEmailSent bool `json:"confirmation_email_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasRoom reports whether the booking occupies a room.
func (b HotelBooking) HasRoom() bool {
	return b.Option.IsRoom() && b.Status != HotelStatusCancelled
}

// HasLargeRoom reports whether the booking counts against the large room cap.
func (b HotelBooking) HasLargeRoom() bool {
	return b.Option.IsLargeRoom() && b.Status != HotelStatusCancelled
}

// HotelOccupancy is the number of active bookings holding rooms.
type HotelOccupancy struct {
	Rooms      int
	LargeRooms int
}
