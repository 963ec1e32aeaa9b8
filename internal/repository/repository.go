package repository

import (
	"context"
	"errors"
	"time"

	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/util"

	"github.com/google/uuid"
)

var (
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrHotelBookingNotFound = errors.New("hotel booking not found")
	ErrAdminNotFound        = errors.New("admin user not found")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateUserID      = errors.New("user id already taken")
	ErrRoomCapReached       = errors.New("all rooms are booked")
	ErrLargeRoomCapReached  = errors.New("all large rooms are booked")
)

type OrderBy int

const (
	OrderByDESC OrderBy = iota
	OrderByASC
)

// Repository is the persistence contract of the registration site. Every write
// is visible to the next read.
type Repository interface {
	// Registration operations
	CreateRegistration(ctx context.Context, params CreateRegistrationParams) (model.Registration, error)
	GetRegistration(ctx context.Context, params GetRegistrationParams) (model.Registration, error)
	ListRegistrations(ctx context.Context, params ListRegistrationsParams) ([]model.Registration, error)
	SearchRegistrations(ctx context.Context, query string, limit int) ([]model.Registration, error)
	UserIDExists(ctx context.Context, userID string) (bool, error)
	ActiveEmailExists(ctx context.Context, email string) (bool, error)
	UpdateRegistration(ctx context.Context, id uuid.UUID, params UpdateRegistrationParams) (model.Registration, error)
	DeleteRegistration(ctx context.Context, id uuid.UUID) error

	// Hotel operations
	CreateHotelBooking(ctx context.Context, params CreateHotelBookingParams, limits HotelLimits) (model.HotelBooking, error)
	GetHotelBooking(ctx context.Context, id uuid.UUID) (model.HotelBooking, error)
	GetHotelBookingByEmail(ctx context.Context, email string) (model.HotelBooking, error)
	ListHotelBookings(ctx context.Context, params ListHotelBookingsParams) ([]model.HotelBooking, error)
	UpdateHotelBooking(ctx context.Context, id uuid.UUID, params UpdateHotelBookingParams) (model.HotelBooking, error)
	CountHotelOccupancy(ctx context.Context) (model.HotelOccupancy, error)

	// Mailing list operations
	AddMailListEntry(ctx context.Context, email string) (model.MailListEntry, bool, error)
	ListMailList(ctx context.Context) ([]model.MailListEntry, error)

	// Admin operations
	CreateAdminUser(ctx context.Context, params CreateAdminUserParams) (model.AdminUser, error)
	GetAdminUserByEmail(ctx context.Context, email string) (model.AdminUser, error)
	GrantAdmin(ctx context.Context, userID uuid.UUID) error
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)

	HealthCheck(ctx context.Context) error
}

type CreateRegistrationParams struct {
	UserID          string
	FullName        string
	Email           string
	WSDCID          string
	Country         string
	Region          pricing.Region
	Level           pricing.Level
	Role            model.Role
	Competing       bool
	PassOption      pricing.PassOption
	AddedIntensive  bool
	PromoCode       string
	HasPartner      bool
	PartnerName     string
	PartnerEmail    string
	BasePrice       int
	AmountDue       int
	PriceTier       pricing.Tier
	PaymentDeadline time.Time
	Status          model.RegistrationStatus
	AcceptedRules   bool
	AcceptedToC     bool
}

type GetRegistrationParams struct {
	ID     util.Optional[uuid.UUID]
	UserID util.Optional[string]
}

type ListRegistrationsParams struct {
	Filter model.RegistrationFilter
	Order  OrderBy
	Limit  int
	Offset int
}

// UpdateRegistrationParams changes only the fields that are set.
type UpdateRegistrationParams struct {
	FullName          util.Optional[string]                   `json:"full_name"`
	Email             util.Optional[string]                   `json:"email"`
	WSDCID            util.Optional[string]                   `json:"wsdc_id"`
	Country           util.Optional[string]                   `json:"country"`
	Region            util.Optional[pricing.Region]           `json:"region"`
	Level             util.Optional[pricing.Level]            `json:"level"`
	Role              util.Optional[model.Role]               `json:"role"`
	Competing         util.Optional[bool]                     `json:"competing"`
	PassOption        util.Optional[pricing.PassOption]       `json:"pass_option"`
	AddedIntensive    util.Optional[bool]                     `json:"added_intensive"`
	PromoCode         util.Optional[string]                   `json:"promo_code"`
	HasPartner        util.Optional[bool]                     `json:"has_partner"`
	PartnerName       util.Optional[string]                   `json:"partner_name"`
	PartnerEmail      util.Optional[string]                   `json:"partner_email"`
	BasePrice         util.Optional[int]                      `json:"base_price"`
	AmountDue         util.Optional[int]                      `json:"amount_due"`
	PaymentDeadline   util.Optional[time.Time]                `json:"payment_deadline"`
	Status            util.Optional[model.RegistrationStatus] `json:"status"`
	ApprovalEmailSent util.Optional[bool]                     `json:"approval_email_sent"`
}

// HotelLimits caps the active bookings holding rooms.
type HotelLimits struct {
	MaxRooms      int
	MaxLargeRooms int
}

type CreateHotelBookingParams struct {
	FullName        string
	Email           string
	Option          pricing.HotelOption
	CheckIn         util.Optional[time.Time]
	CheckOut        util.Optional[time.Time]
	Nights          int
	AmountDue       int
	Roommates       []string
	SpecialRequests string
	PaymentDeadline time.Time
}

type ListHotelBookingsParams struct {
	Statuses []model.HotelStatus
	Order    OrderBy
}

type UpdateHotelBookingParams struct {
	Status                util.Optional[model.HotelStatus]
	ConfirmationEmailSent util.Optional[bool]
	SpecialRequests       util.Optional[string]
}

type CreateAdminUserParams struct {
	Name         string
	Email        string
	PasswordHash string
}

// CheckHotelLimits reports which cap a new booking for option would exceed
// given the current occupancy. The total room cap is checked first.
func CheckHotelLimits(occupancy model.HotelOccupancy, option pricing.HotelOption, limits HotelLimits) error {
	if !option.IsRoom() {
		return nil
	}
	if occupancy.Rooms >= limits.MaxRooms {
		return ErrRoomCapReached
	}
	if option.IsLargeRoom() && occupancy.LargeRooms >= limits.MaxLargeRooms {
		return ErrLargeRoomCapReached
	}
	return nil
}
