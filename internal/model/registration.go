package model

import (
	"fmt"
	"time"

	"norwegianopen/internal/pricing"

	"github.com/google/uuid"
)

type RegistrationStatus string

const (
	RegistrationStatusPendingApproval RegistrationStatus = "pendingApproval"
	RegistrationStatusWaitingList     RegistrationStatus = "waitingList"
	RegistrationStatusApproved        RegistrationStatus = "approved"
	RegistrationStatusPaymentReceived RegistrationStatus = "paymentReceived"
	RegistrationStatusCheckedIn       RegistrationStatus = "checkedIn"
	RegistrationStatusCancelled       RegistrationStatus = "cancelled"
)

var RegistrationStatuses = []RegistrationStatus{
	RegistrationStatusPendingApproval,
	RegistrationStatusWaitingList,
	RegistrationStatusApproved,
	RegistrationStatusPaymentReceived,
	RegistrationStatusCheckedIn,
	RegistrationStatusCancelled,
}

func (s RegistrationStatus) String() string {
	return string(s)
}

func (s RegistrationStatus) Valid() bool {
	for _, status := range RegistrationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Confirmed reports whether money for the registration has been received.
func (s RegistrationStatus) Confirmed() bool {
	return s == RegistrationStatusPaymentReceived || s == RegistrationStatusCheckedIn
}

func (s *RegistrationStatus) Scan(value any) error {
	if str, ok := value.(string); ok {
		*s = RegistrationStatus(str)
		return nil
	}
	return fmt.Errorf("cannot scan %T into RegistrationStatus", value)
}

type Role string

const (
	RoleLeader   Role = "Leader"
	RoleFollower Role = "Follower"
)

type Registration struct {
	ID       uuid.UUID `json:"id"`
	UserID   string    `json:"user_id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
	WSDCID   string    `json:"wsdc_id"`
	Country  string    `json:"country"`

	Region    pricing.Region `json:"region"`
	Level     pricing.Level  `json:"level"`
	Role      Role           `json:"role"`
	Competing bool           `json:"competing"`

	PassOption     pricing.PassOption `json:"pass_option"`
	AddedIntensive bool               `json:"added_intensive"`
	PromoCode      string             `json:"promo_code"`
	HasPartner     bool               `json:"has_partner"`
	PartnerName    string             `json:"partner_name"`
	PartnerEmail   string             `json:"partner_email"`

	BasePrice       int          `json:"base_price"`
	AmountDue       int          `json:"amount_due"`
	PriceTier       pricing.Tier `json:"price_tier"`
	PaymentDeadline time.Time    `json:"payment_deadline"`

	Status            RegistrationStatus `json:"status"`
	ApprovalEmailSent bool               `json:"approval_email_sent"`
	AcceptedRules     bool               `json:"accepted_rules"`
	AcceptedToC       bool               `json:"accepted_toc"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InitialStatus is the status a new registration starts in. A declared partner
// goes straight to approval, everyone else joins the waiting list.
func InitialStatus(hasPartner bool, partnerName string) RegistrationStatus {
	if hasPartner || partnerName != "" {
		return RegistrationStatusPendingApproval
	}
	return RegistrationStatusWaitingList
}

// RegistrationFilter narrows a registration listing. Empty fields match all.
type RegistrationFilter struct {
	Statuses    []RegistrationStatus
	Levels      []pricing.Level
	PassOptions []pricing.PassOption
	Emails      []string
}

// Match applies the filter in memory.
func (f RegistrationFilter) Match(r Registration) bool {
	return matchAny(f.Statuses, r.Status) &&
		matchAny(f.Levels, r.Level) &&
		matchAny(f.PassOptions, r.PassOption) &&
		matchAny(f.Emails, r.Email)
}

func matchAny[T comparable](values []T, v T) bool {
	if len(values) == 0 {
		return true
	}
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
