package pricing

import (
	"time"
)

// Quote is the full price breakdown for one registration.
type Quote struct {
	Tier       Tier       `json:"tier"`
	Region     Region     `json:"region"`
	Level      Level      `json:"level"`
	PassOption PassOption `json:"pass_option"`
	BasePrice  int        `json:"base_price"`
	PassPrice  int        `json:"pass_price"`
	AddOnPrice int        `json:"add_on_price"`
	AmountDue  int        `json:"amount_due"`
}

// Quote resolves the tier at now and prices the pass, failing when the option is
// not allowed for the level.
func (t *Table) Quote(level Level, option PassOption, region Region, addedIntensive bool, now time.Time) (Quote, error) {
	if !t.IsPassOptionAllowed(level, option) {
		return Quote{}, ErrInvalidPassOption
	}

	tier := t.ResolveTier(now)
	base, err := t.BasePrice(tier, region)
	if err != nil {
		return Quote{}, err
	}
	passPrice, err := t.PassPrice(base, level, option)
	if err != nil {
		return Quote{}, err
	}
	addOn := t.AddOnPrice(addedIntensive)

	return Quote{
		Tier:       tier,
		Region:     region,
		Level:      level,
		PassOption: option,
		BasePrice:  base,
		PassPrice:  passPrice,
		AddOnPrice: addOn,
		AmountDue:  TotalDue(passPrice, addOn, 0),
	}, nil
}

// PriceList is the public view of the table at a point in time.
type PriceList struct {
	CurrentTier     Tier                    `json:"current_tier"`
	CurrentLabel    string                  `json:"current_label"`
	EarlyDeadline   time.Time               `json:"early_deadline"`
	RegularDeadline time.Time               `json:"regular_deadline"`
	Open            bool                    `json:"open"`
	BasePrices      map[Tier]map[Region]int `json:"base_prices"`
	PassOptions     map[Level][]PassOption  `json:"pass_options"`
	FlatPrices      map[PassOption]int      `json:"flat_prices"`
	HotelRates      map[HotelOption]int     `json:"hotel_rates"`
	HotelFirstDate  string                  `json:"hotel_first_date"`
	HotelLastDate   string                  `json:"hotel_last_date"`
}

func (t *Table) PriceList(now time.Time) PriceList {
	tier := t.ResolveTier(now)

	options := make(map[Level][]PassOption, len(Levels))
	for _, level := range Levels {
		options[level] = t.AllowedPassOptions(level)
	}

	return PriceList{
		CurrentTier:     tier,
		CurrentLabel:    tier.Label(),
		EarlyDeadline:   t.EarlyDeadline,
		RegularDeadline: t.RegularDeadline,
		Open:            t.IsOpen(now),
		BasePrices:      t.BasePrices,
		PassOptions:     options,
		FlatPrices: map[PassOption]int{
			PassParty:      t.PartyPassPrice,
			PassZeroToHero: t.ZeroToHeroPrice,
			PassIntensive:  t.IntensivePrice,
		},
		HotelRates:     t.HotelRates,
		HotelFirstDate: t.HotelWindow.First.Format(dateLayout),
		HotelLastDate:  t.HotelWindow.Last.Format(dateLayout),
	}
}
