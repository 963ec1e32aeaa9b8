package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// EventConfig holds the pricing and capacity settings of the event. Dates are
// YYYY-MM-DD in Timezone; deadlines are inclusive until 23:59:59 that day.
type EventConfig struct {
	Name              string `mapstructure:"name"`
	Timezone          string `mapstructure:"timezone"`
	RegistrationOpens string `mapstructure:"registration_opens"`
	EarlyDeadline     string `mapstructure:"early_deadline"`
	RegularDeadline   string `mapstructure:"regular_deadline"`
	PaymentWindowDays int    `mapstructure:"payment_window_days"`

	// BasePrices is keyed by tier, then region. Map keys read through viper are
	// lower-cased, so consumers match them case-insensitively.
	BasePrices map[string]map[string]int `mapstructure:"base_prices"`
	// PassOptions is keyed by level category.
	PassOptions        map[string][]string `mapstructure:"pass_options"`
	IntroductoryPasses []string            `mapstructure:"introductory_passes"`

	PartyPassPrice       int `mapstructure:"party_pass_price"`
	ZeroToHeroPrice      int `mapstructure:"zero_to_hero_price"`
	IntensivePrice       int `mapstructure:"intensive_price"`
	JudgeDiscountPercent int `mapstructure:"judge_discount_percent"`

	Hotel HotelConfig `mapstructure:"hotel"`
}

type HotelConfig struct {
	// Rates is the nightly rate per hotel option.
	Rates         map[string]int `mapstructure:"rates"`
	FirstDate     string         `mapstructure:"first_date"`
	LastDate      string         `mapstructure:"last_date"`
	MaxRooms      int            `mapstructure:"max_rooms"`
	MaxLargeRooms int            `mapstructure:"max_large_rooms"`
}

func DefaultEventConfig() EventConfig {
	return EventConfig{
		Name:              "Norwegian Open",
		Timezone:          "Europe/Oslo",
		RegistrationOpens: "2025-05-22",
		EarlyDeadline:     "2025-05-29",
		RegularDeadline:   "2025-08-22",
		PaymentWindowDays: 14,
		BasePrices: map[string]map[string]int{
			"Ymir":     {"Nordic": 1500, "World": 1800},
			"Midgard":  {"Nordic": 1700, "World": 2000},
			"Ragnarok": {"Nordic": 1900, "World": 2200},
		},
		PassOptions: map[string][]string{
			"All-Star": {"Regular Pass", "Judge (Free Pass)", "Party Pass"},
			"Advanced": {"Regular Pass", "Judge (20% Discount)", "Party Pass"},
			"Other":    {"Zero to Hero", "Regular Pass", "Party Pass"},
		},
		PartyPassPrice:       1200,
		ZeroToHeroPrice:      1300,
		IntensivePrice:       1000,
		JudgeDiscountPercent: 20,
		Hotel: HotelConfig{
			Rates: map[string]int{
				"HotelOptionOne":   1290,
				"HotelOptionTwo":   1490,
				"HotelOptionThree": 1690,
				"HotelOptionFour":  1890,
			},
			FirstDate:     "2025-10-01",
			LastDate:      "2025-10-06",
			MaxRooms:      90,
			MaxLargeRooms: 70,
		},
	}
}

// LoadEventFile overlays the settings found in path on top of base. Keys absent
// from the file keep their base value; a map present in the file replaces the
// base map as a whole.
func LoadEventFile(path string, base EventConfig) (EventConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return base, fmt.Errorf("failed to read event config: %w", err)
	}

	event := base
	if v.IsSet("base_prices") {
		event.BasePrices = nil
	}
	if v.IsSet("pass_options") {
		event.PassOptions = nil
	}
	if v.IsSet("hotel.rates") {
		event.Hotel.Rates = nil
	}
	if err := v.Unmarshal(&event); err != nil {
		return base, fmt.Errorf("failed to decode event config: %w", err)
	}
	return event, nil
}
