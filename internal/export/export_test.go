package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"norwegianopen/internal/model"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrations_CSV(t *testing.T) {
	registrations := []model.Registration{
		{
			UserID:          "AB12CD34",
			FullName:        "Nordmann, Kari",
			Email:           "kari@example.com",
			Country:         "Norway",
			Region:          pricing.RegionNordic,
			Level:           pricing.LevelAdvanced,
			Role:            model.RoleFollower,
			PassOption:      pricing.PassJudgeDiscount,
			PriceTier:       pricing.TierMidgard,
			BasePrice:       2000,
			AmountDue:       1600,
			PaymentDeadline: time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC),
			Status:          model.RegistrationStatusWaitingList,
		},
	}

	table := Registrations(registrations, time.UTC)
	data, err := table.CSV()
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, registrationHeader, records[0])
	assert.Equal(t, "Nordmann, Kari", records[1][1])
	assert.Equal(t, "1600", records[1][16])
	assert.Equal(t, "2025-07-05", records[1][17])
	assert.Equal(t, "waitingList", records[1][18])
	assert.Equal(t, "", records[1][20])
}

func TestHotels(t *testing.T) {
	bookings := []model.HotelBooking{
		{
			FullName:  "Ola",
			Option:    pricing.HotelTriple,
			CheckIn:   util.Some(time.Date(2025, 10, 2, 0, 0, 0, 0, time.UTC)),
			CheckOut:  util.Some(time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC)),
			Nights:    2,
			AmountDue: 3380,
			Roommates: []string{"Kari", "Per"},
			Status:    model.HotelStatusPending,
		},
		{FullName: "Per", Option: pricing.HotelNone, Status: model.HotelStatusPending},
	}

	table := Hotels(bookings, time.UTC)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Ola", "", "Triple", "2025-10-02", "2025-10-04", "2", "3380", "Kari, Per", "", "", "pending", "no", ""}, table.Rows[0])
	assert.Equal(t, "No hotel", table.Rows[1][2])
	assert.Equal(t, "", table.Rows[1][3])

	values := table.Values()
	assert.Len(t, values, 3)
	assert.Equal(t, "Full name", values[0][0])
}

func TestParseDataset(t *testing.T) {
	tests := []struct {
		in   string
		want Dataset
		ok   bool
	}{
		{"registrations", DatasetRegistrations, true},
		{" Hotels ", DatasetHotels, true},
		{"users", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseDataset(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
