package pricing

import (
	"strings"
	"time"
)

type HotelOption string

const (
	HotelSingle   HotelOption = "HotelOptionOne"
	HotelTwin     HotelOption = "HotelOptionTwo"
	HotelTriple   HotelOption = "HotelOptionThree"
	HotelQuatro   HotelOption = "HotelOptionFour"
	HotelNone     HotelOption = "None"
	HotelDeclined HotelOption = "HotelOptionNo"
)

// RoomOptions are the options that occupy a hotel room.
var RoomOptions = []HotelOption{HotelSingle, HotelTwin, HotelTriple, HotelQuatro}

// LargeRoomOptions count against the large room cap as well as the room cap.
var LargeRoomOptions = []HotelOption{HotelTriple, HotelQuatro}

var hotelOptions = []HotelOption{HotelSingle, HotelTwin, HotelTriple, HotelQuatro, HotelNone, HotelDeclined}

func ParseHotelOption(s string) (HotelOption, bool) {
	s = strings.TrimSpace(s)
	for _, o := range hotelOptions {
		if strings.EqualFold(s, string(o)) {
			return o, true
		}
	}
	return "", false
}

// IsRoom reports whether the option books a room.
func (o HotelOption) IsRoom() bool {
	for _, r := range RoomOptions {
		if o == r {
			return true
		}
	}
	return false
}

func (o HotelOption) IsLargeRoom() bool {
	return o == HotelTriple || o == HotelQuatro
}

// Occupancy is the number of guests a room holds, zero for no hotel.
func (o HotelOption) Occupancy() int {
	switch o {
	case HotelSingle:
		return 1
	case HotelTwin:
		return 2
	case HotelTriple:
		return 3
	case HotelQuatro:
		return 4
	}
	return 0
}

// RoomName is the human name of the room type.
func (o HotelOption) RoomName() string {
	switch o {
	case HotelSingle:
		return "Single"
	case HotelTwin:
		return "Twin"
	case HotelTriple:
		return "Triple"
	case HotelQuatro:
		return "Quatro"
	}
	return "No hotel"
}

// HotelQuote is the priced stay. A zero Nights means nothing was booked.
type HotelQuote struct {
	Amount int `json:"amount"`
	Nights int `json:"nights"`
}

// HotelWindow is the inclusive range of dates a stay may touch.
type HotelWindow struct {
	First time.Time
	Last  time.Time
}

// Contains reports whether d lies within the window, comparing calendar dates.
func (w HotelWindow) Contains(d time.Time) bool {
	d = dateOf(d)
	return !d.Before(dateOf(w.First)) && !d.After(dateOf(w.Last))
}

// NightsBetween counts whole days from checkIn to checkOut.
func NightsBetween(checkIn, checkOut time.Time) int {
	in := dateOf(checkIn)
	out := dateOf(checkOut)
	return int(out.Sub(in).Hours() / 24)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
