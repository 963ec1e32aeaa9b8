package dashboard

import (
	"testing"

	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"

	"github.com/stretchr/testify/assert"
)

func registration(region pricing.Region, status model.RegistrationStatus, option pricing.PassOption, amount int) model.Registration {
	return model.Registration{
		Region:     region,
		Level:      pricing.LevelIntermediate,
		Role:       model.RoleLeader,
		PassOption: option,
		PriceTier:  pricing.TierMidgard,
		AmountDue:  amount,
		Status:     status,
	}
}

func TestSummarize(t *testing.T) {
	registrations := []model.Registration{
		registration(pricing.RegionNordic, model.RegistrationStatusPaymentReceived, pricing.PassRegular, 1700),
		registration(pricing.RegionNordic, model.RegistrationStatusCheckedIn, "Full pass", 1700),
		registration(pricing.RegionNordic, model.RegistrationStatusApproved, pricing.PassParty, 1200),
		registration(pricing.RegionWorld, model.RegistrationStatusWaitingList, pricing.PassRegular, 2000),
		registration(pricing.RegionWorld, model.RegistrationStatusCancelled, pricing.PassRegular, 2000),
	}

	s := Summarize(registrations)

	assert.Equal(t, 5, s.Registrations)
	assert.Equal(t, 4, s.Active)
	assert.Equal(t, 2, s.Confirmed)
	assert.Equal(t, 1, s.CheckedIn)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 3400, s.ConfirmedIncome)
	assert.Equal(t, 3200, s.PotentialIncome)

	nordic := s.Regions[pricing.RegionNordic]
	assert.Equal(t, 3, nordic.Registrations)
	assert.Equal(t, 2, nordic.ByPass[pricing.LabelFullPass])
	assert.Equal(t, 1, nordic.ByPass[pricing.LabelPartyPass])
	assert.Equal(t, 3400, nordic.IncomeByPass[pricing.LabelFullPass])
	assert.Equal(t, 4600, nordic.IncomeByTier[pricing.TierMidgard])
	assert.Equal(t, 3400, nordic.ConfirmedIncome)
	assert.Equal(t, 1200, nordic.PotentialIncome)

	world := s.Regions[pricing.RegionWorld]
	assert.Equal(t, 2, world.Registrations)
	assert.Equal(t, 2, world.ByPass[pricing.LabelFullPass])
	assert.Equal(t, 2000, world.IncomeByPass[pricing.LabelFullPass])
	assert.Equal(t, 1, world.ByStatus[model.RegistrationStatusCancelled])
}

func TestSummarize_DerivesMissingRegion(t *testing.T) {
	r := registration("", model.RegistrationStatusApproved, pricing.PassRegular, 1700)
	r.Country = "Norway"

	s := Summarize([]model.Registration{r})

	assert.Equal(t, 1, s.Regions[pricing.RegionNordic].Registrations)
	assert.Equal(t, 0, s.Regions[pricing.RegionWorld].Registrations)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.Zero(t, s.Registrations)
	assert.Len(t, s.Regions, 2)
	assert.NotNil(t, s.Regions[pricing.RegionNordic].ByLevel)
}

func TestSummarizeHotel(t *testing.T) {
	bookings := []model.HotelBooking{
		{Option: pricing.HotelSingle, Nights: 2, AmountDue: 2580, Status: model.HotelStatusPaid},
		{Option: pricing.HotelQuatro, Nights: 3, AmountDue: 5670, Status: model.HotelStatusConfirmed},
		{Option: pricing.HotelTriple, Nights: 1, AmountDue: 1690, Status: model.HotelStatusCancelled},
		{Option: pricing.HotelNone, Status: model.HotelStatusPending},
	}

	h := SummarizeHotel(bookings, 90, 70)

	assert.Equal(t, 4, h.Bookings)
	assert.Equal(t, 2, h.Rooms)
	assert.Equal(t, 1, h.LargeRooms)
	assert.Equal(t, 5, h.Nights)
	assert.Equal(t, 5, h.Guests)
	assert.Equal(t, 2580, h.IncomeByStatus[model.HotelStatusPaid])
	assert.Equal(t, 1690, h.IncomeByStatus[model.HotelStatusCancelled])
	assert.Equal(t, 0, h.IncomeByOption[pricing.HotelTriple])
	assert.Equal(t, 88, h.RoomsLeft())
	assert.Equal(t, 69, h.LargeRoomsLeft())
}

func TestHotelSummary_Left(t *testing.T) {
	tests := []struct {
		name           string
		summary        HotelSummary
		wantRooms      int
		wantLargeRooms int
	}{
		{"room cap binds large rooms", HotelSummary{Rooms: 89, LargeRooms: 10, MaxRooms: 90, MaxLargeRooms: 70}, 1, 1},
		{"large cap reached", HotelSummary{Rooms: 70, LargeRooms: 70, MaxRooms: 90, MaxLargeRooms: 70}, 20, 0},
		{"over booked", HotelSummary{Rooms: 95, LargeRooms: 75, MaxRooms: 90, MaxLargeRooms: 70}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRooms, tt.summary.RoomsLeft())
			assert.Equal(t, tt.wantLargeRooms, tt.summary.LargeRoomsLeft())
		})
	}
}
