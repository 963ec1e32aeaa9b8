// Package alert pings the organisers about new sign-ups.
package alert

import (
	"context"
	"fmt"
	"strings"

	"norwegianopen/internal/model"
)

// Notifier delivers a short text to the organisers.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every alert. It is used when no channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// RegistrationText describes a new registration in one short message.
func RegistrationText(r model.Registration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New registration %s\n", r.UserID)
	fmt.Fprintf(&b, "%s (%s)\n", r.FullName, r.Email)
	fmt.Fprintf(&b, "%s %s, %s, %s\n", r.Level, r.Role, r.Country, r.Region)
	pass := string(r.PassOption)
	if r.AddedIntensive {
		pass += " + Intensive"
	}
	fmt.Fprintf(&b, "%s, %d NOK (%s)\n", pass, r.AmountDue, r.PriceTier.Label())
	if r.PartnerName != "" {
		fmt.Fprintf(&b, "Partner: %s\n", r.PartnerName)
	}
	fmt.Fprintf(&b, "Status: %s", r.Status)
	return b.String()
}

// HotelBookingText describes a new hotel booking in one short message.
func HotelBookingText(h model.HotelBooking) string {
	var b strings.Builder
	b.WriteString("New hotel booking\n")
	fmt.Fprintf(&b, "%s (%s)\n", h.FullName, h.Email)
	b.WriteString(h.Option.RoomName())
	if h.Option.IsRoom() {
		fmt.Fprintf(&b, ", %d nights, %d NOK", h.Nights, h.AmountDue)
	}
	if len(h.Roommates) > 0 {
		fmt.Fprintf(&b, "\nRoommates: %s", strings.Join(h.Roommates, ", "))
	}
	return b.String()
}
