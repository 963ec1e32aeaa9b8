// Package dashboard reduces registration and hotel records into the read-only
// rollups shown on the admin dashboards.
package dashboard

import (
	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"
)

// RegionSummary counts and sums the registrations of one region.
type RegionSummary struct {
	Registrations int `json:"registrations"`

	ByLevel  map[pricing.Level]int            `json:"by_level"`
	ByRole   map[model.Role]int               `json:"by_role"`
	ByPass   map[pricing.PassLabel]int        `json:"by_pass"`
	ByTier   map[pricing.Tier]int             `json:"by_tier"`
	ByStatus map[model.RegistrationStatus]int `json:"by_status"`

	IncomeByPass map[pricing.PassLabel]int `json:"income_by_pass"`
	IncomeByTier map[pricing.Tier]int      `json:"income_by_tier"`

	ConfirmedIncome int `json:"confirmed_income"`
	PotentialIncome int `json:"potential_income"`
}

type Summary struct {
	Registrations   int `json:"registrations"`
	Active          int `json:"active"`
	Confirmed       int `json:"confirmed"`
	CheckedIn       int `json:"checked_in"`
	Cancelled       int `json:"cancelled"`
	ConfirmedIncome int `json:"confirmed_income"`
	PotentialIncome int `json:"potential_income"`

	ByStatus map[model.RegistrationStatus]int  `json:"by_status"`
	Regions  map[pricing.Region]*RegionSummary `json:"regions"`
}

func newRegionSummary() *RegionSummary {
	return &RegionSummary{
		ByLevel:      make(map[pricing.Level]int),
		ByRole:       make(map[model.Role]int),
		ByPass:       make(map[pricing.PassLabel]int),
		ByTier:       make(map[pricing.Tier]int),
		ByStatus:     make(map[model.RegistrationStatus]int),
		IncomeByPass: make(map[pricing.PassLabel]int),
		IncomeByTier: make(map[pricing.Tier]int),
	}
}

// Summarize groups registrations by region. Confirmed income is the amount due of
// paid and checked in registrations, potential income that of every other
// registration except cancelled ones, which carry no income.
func Summarize(registrations []model.Registration) Summary {
	s := Summary{
		ByStatus: make(map[model.RegistrationStatus]int),
		Regions:  make(map[pricing.Region]*RegionSummary, len(pricing.Regions)),
	}
	for _, region := range pricing.Regions {
		s.Regions[region] = newRegionSummary()
	}

	for _, r := range registrations {
		s.Registrations++
		s.ByStatus[r.Status]++

		region := r.Region
		if region == "" {
			region = pricing.RegionForCountry(r.Country)
		}
		rs, ok := s.Regions[region]
		if !ok {
			rs = newRegionSummary()
			s.Regions[region] = rs
		}

		rs.Registrations++
		rs.ByLevel[r.Level]++
		rs.ByRole[r.Role]++
		label := pricing.Canonical(string(r.PassOption))
		rs.ByPass[label]++
		rs.ByTier[r.PriceTier]++
		rs.ByStatus[r.Status]++

		switch {
		case r.Status == model.RegistrationStatusCancelled:
			s.Cancelled++
			continue
		case r.Status.Confirmed():
			s.Confirmed++
			s.ConfirmedIncome += r.AmountDue
			rs.ConfirmedIncome += r.AmountDue
		default:
			s.PotentialIncome += r.AmountDue
			rs.PotentialIncome += r.AmountDue
		}
		if r.Status == model.RegistrationStatusCheckedIn {
			s.CheckedIn++
		}
		s.Active++
		rs.IncomeByPass[label] += r.AmountDue
		rs.IncomeByTier[r.PriceTier] += r.AmountDue
	}

	return s
}

type HotelSummary struct {
	Bookings   int `json:"bookings"`
	Rooms      int `json:"rooms"`
	LargeRooms int `json:"large_rooms"`
	Nights     int `json:"nights"`
	Guests     int `json:"guests"`

	ByOption       map[pricing.HotelOption]int `json:"by_option"`
	ByStatus       map[model.HotelStatus]int   `json:"by_status"`
	IncomeByStatus map[model.HotelStatus]int   `json:"income_by_status"`
	IncomeByOption map[pricing.HotelOption]int `json:"income_by_option"`

	MaxRooms      int `json:"max_rooms"`
	MaxLargeRooms int `json:"max_large_rooms"`
}

// RoomsLeft is the number of rooms that can still be booked.
func (h HotelSummary) RoomsLeft() int {
	return max(h.MaxRooms-h.Rooms, 0)
}

// LargeRoomsLeft is bounded by both caps.
func (h HotelSummary) LargeRoomsLeft() int {
	return max(min(h.MaxLargeRooms-h.LargeRooms, h.RoomsLeft()), 0)
}

// SummarizeHotel counts rooms the same way the capacity check does: cancelled
// bookings and no-hotel options hold no room.
func SummarizeHotel(bookings []model.HotelBooking, maxRooms, maxLargeRooms int) HotelSummary {
	h := HotelSummary{
		ByOption:       make(map[pricing.HotelOption]int),
		ByStatus:       make(map[model.HotelStatus]int),
		IncomeByStatus: make(map[model.HotelStatus]int),
		IncomeByOption: make(map[pricing.HotelOption]int),
		MaxRooms:       maxRooms,
		MaxLargeRooms:  maxLargeRooms,
	}

	for _, b := range bookings {
		h.Bookings++
		h.ByStatus[b.Status]++
		h.ByOption[b.Option]++
		if b.HasRoom() {
			h.Rooms++
			h.Nights += b.Nights
			h.Guests += b.Option.Occupancy()
		}
		if b.HasLargeRoom() {
			h.LargeRooms++
		}
		if b.Status != model.HotelStatusCancelled {
			h.IncomeByOption[b.Option] += b.AmountDue
		}
		h.IncomeByStatus[b.Status] += b.AmountDue
	}

	return h
}
