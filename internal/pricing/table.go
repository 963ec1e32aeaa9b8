package pricing

import (
	"fmt"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"

	"norwegianopen/internal/config"
)

const dateLayout = "2006-01-02"

// Table is the authoritative price and eligibility table. It is built once from
// configuration and shared read-only by validation, pricing and the public price list.
type Table struct {
	Location          *time.Location
	RegistrationOpens time.Time
	EarlyDeadline     time.Time
	RegularDeadline   time.Time
	PaymentWindow     int

	BasePrices         map[Tier]map[Region]int
	PassOptions        map[Category][]PassOption
	IntroductoryPasses []PassOption

	PartyPassPrice       int
	ZeroToHeroPrice      int
	IntensivePrice       int
	JudgeDiscountPercent int

	HotelRates    map[HotelOption]int
	HotelWindow   HotelWindow
	MaxRooms      int
	MaxLargeRooms int
}

// DefaultTable returns the table built from the compiled-in event settings.
func DefaultTable() *Table {
	t, err := NewTable(config.DefaultEventConfig())
	if err != nil {
		panic(err)
	}
	return t
}

func NewTable(cfg config.EventConfig) (*Table, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pricing: invalid timezone %q: %w", cfg.Timezone, err)
	}

	t := &Table{
		Location:             loc,
		PaymentWindow:        cfg.PaymentWindowDays,
		BasePrices:           make(map[Tier]map[Region]int),
		PassOptions:          make(map[Category][]PassOption),
		PartyPassPrice:       cfg.PartyPassPrice,
		ZeroToHeroPrice:      cfg.ZeroToHeroPrice,
		IntensivePrice:       cfg.IntensivePrice,
		JudgeDiscountPercent: cfg.JudgeDiscountPercent,
		HotelRates:           make(map[HotelOption]int),
		MaxRooms:             cfg.Hotel.MaxRooms,
		MaxLargeRooms:        cfg.Hotel.MaxLargeRooms,
	}

	if t.RegistrationOpens, err = parseDate(cfg.RegistrationOpens, loc); err != nil {
		return nil, fmt.Errorf("pricing: registration_opens: %w", err)
	}
	if t.EarlyDeadline, err = parseDeadline(cfg.EarlyDeadline, loc); err != nil {
		return nil, fmt.Errorf("pricing: early_deadline: %w", err)
	}
	if t.RegularDeadline, err = parseDeadline(cfg.RegularDeadline, loc); err != nil {
		return nil, fmt.Errorf("pricing: regular_deadline: %w", err)
	}
	if t.RegularDeadline.Before(t.EarlyDeadline) {
		return nil, fmt.Errorf("pricing: regular deadline %s is before early deadline %s", cfg.RegularDeadline, cfg.EarlyDeadline)
	}

	for tierKey, regions := range cfg.BasePrices {
		tier, ok := parseTier(tierKey)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTier, tierKey)
		}
		t.BasePrices[tier] = make(map[Region]int)
		for regionKey, price := range regions {
			region, ok := ParseRegion(regionKey)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownRegion, regionKey)
			}
			t.BasePrices[tier][region] = price
		}
	}
	for _, tier := range Tiers {
		for _, region := range Regions {
			if _, ok := t.BasePrices[tier][region]; !ok {
				return nil, fmt.Errorf("pricing: missing base price for %s/%s", tier, region)
			}
		}
	}

	for categoryKey, options := range cfg.PassOptions {
		category, ok := parseCategory(categoryKey)
		if !ok {
			return nil, fmt.Errorf("pricing: unknown level category %q", categoryKey)
		}
		for _, o := range options {
			t.PassOptions[category] = append(t.PassOptions[category], PassOption(strings.TrimSpace(o)))
		}
	}
	for _, o := range cfg.IntroductoryPasses {
		t.IntroductoryPasses = append(t.IntroductoryPasses, PassOption(strings.TrimSpace(o)))
	}

	for optionKey, rate := range cfg.Hotel.Rates {
		option, ok := ParseHotelOption(optionKey)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownHotelOption, optionKey)
		}
		t.HotelRates[option] = rate
	}
	if t.HotelWindow.First, err = parseDate(cfg.Hotel.FirstDate, loc); err != nil {
		return nil, fmt.Errorf("pricing: hotel first_date: %w", err)
	}
	if t.HotelWindow.Last, err = parseDate(cfg.Hotel.LastDate, loc); err != nil {
		return nil, fmt.Errorf("pricing: hotel last_date: %w", err)
	}

	return t, nil
}

// ParseDate parses a YYYY-MM-DD form value in the event timezone.
func (t *Table) ParseDate(s string) (time.Time, error) {
	return parseDate(s, t.Location)
}

// Today truncates now to midnight in the event timezone.
func (t *Table) Today(now time.Time) time.Time {
	y, m, d := now.In(t.Location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location)
}

// PaymentDeadline is the submission date plus the payment window.
func (t *Table) PaymentDeadline(now time.Time) time.Time {
	return t.Today(now).AddDate(0, 0, t.PaymentWindow)
}

// IsOpen reports whether registration has opened at now.
func (t *Table) IsOpen(now time.Time) bool {
	return !now.Before(t.RegistrationOpens)
}

// AllowedPassOptions lists the options a level may buy, introductory passes last.
func (t *Table) AllowedPassOptions(level Level) []PassOption {
	category, ok := CategoryOf(level)
	if !ok {
		return nil
	}
	options := slices.Clone(t.PassOptions[category])
	for _, o := range t.IntroductoryPasses {
		if !slices.Contains(options, o) {
			options = append(options, o)
		}
	}
	return options
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// parseDeadline places the deadline at 23:59:59 so the date itself still belongs
// to the earlier tier.
func parseDeadline(s string, loc *time.Location) (time.Time, error) {
	d, err := parseDate(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(23*time.Hour + 59*time.Minute + 59*time.Second), nil
}
