package pricing

import (
	"fmt"
	"slices"
	"time"
)

// ResolveTier returns the first tier whose deadline has not passed at now.
func ResolveTier(now, earlyDeadline, regularDeadline time.Time) Tier {
	if !now.After(earlyDeadline) {
		return TierYmir
	}
	if !now.After(regularDeadline) {
		return TierMidgard
	}
	return TierRagnarok
}

func (t *Table) ResolveTier(now time.Time) Tier {
	return ResolveTier(now, t.EarlyDeadline, t.RegularDeadline)
}

// IsPassOptionAllowed checks the option against the category allow-list of the
// level, then against the introductory exception list. Unknown levels never pass.
func (t *Table) IsPassOptionAllowed(level Level, option PassOption) bool {
	category, ok := CategoryOf(level)
	if !ok {
		return false
	}
	if slices.Contains(t.PassOptions[category], option) {
		return true
	}
	return slices.Contains(t.IntroductoryPasses, option)
}

func (t *Table) BasePrice(tier Tier, region Region) (int, error) {
	prices, ok := t.BasePrices[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, tier)
	}
	price, ok := prices[region]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	return price, nil
}

// PassPrice prices a pass from the tier base price. Judge passes are only valid
// for their own category; any mismatch or unknown option is ErrInvalidPassOption.
func (t *Table) PassPrice(basePrice int, level Level, option PassOption) (int, error) {
	category, _ := CategoryOf(level)

	switch option {
	case PassRegular:
		return basePrice, nil
	case PassJudgeFree:
		if category == CategoryAllStar {
			return 0, nil
		}
	case PassJudgeDiscount:
		if category == CategoryAdvanced {
			return Discount(basePrice, t.JudgeDiscountPercent), nil
		}
	case PassParty:
		return t.PartyPassPrice, nil
	case PassZeroToHero:
		return t.ZeroToHeroPrice, nil
	case PassIntensive:
		return t.IntensivePrice, nil
	}
	return 0, fmt.Errorf("%w: %q for %q", ErrInvalidPassOption, option, level)
}

// AddOnPrice is the price of the optional intensive workshop.
func (t *Table) AddOnPrice(addedIntensive bool) int {
	if addedIntensive {
		return t.IntensivePrice
	}
	return 0
}

// Discount takes percent off price, rounding half up.
func Discount(price, percent int) int {
	return (price*(100-percent) + 50) / 100
}

// HotelPrice prices a stay at rate per night. Dates outside the window or a
// check-out not after check-in yield the zero quote.
func HotelPrice(rate int, checkIn, checkOut time.Time, window HotelWindow) HotelQuote {
	if !window.Contains(checkIn) || !window.Contains(checkOut) {
		return HotelQuote{}
	}
	nights := NightsBetween(checkIn, checkOut)
	if nights <= 0 {
		return HotelQuote{}
	}
	return HotelQuote{Amount: rate * nights, Nights: nights}
}

func (t *Table) HotelPrice(option HotelOption, checkIn, checkOut time.Time) HotelQuote {
	rate, ok := t.HotelRates[option]
	if !ok || !option.IsRoom() {
		return HotelQuote{}
	}
	return HotelPrice(rate, checkIn, checkOut, t.HotelWindow)
}

// TotalDue sums the parts of an order.
func TotalDue(passPrice, addOnPrice, hotelAmount int) int {
	return passPrice + addOnPrice + hotelAmount
}
