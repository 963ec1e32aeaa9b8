package pricing_test

import (
	"testing"
	"time"

	"norwegianopen/internal/config"
	"norwegianopen/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oslo(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	return loc
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		level    pricing.Level
		category pricing.Category
		ok       bool
	}{
		{pricing.LevelAllStar, pricing.CategoryAllStar, true},
		{pricing.LevelAdvanced, pricing.CategoryAdvanced, true},
		{pricing.LevelIntermediate, pricing.CategoryOther, true},
		{pricing.LevelNovice, pricing.CategoryOther, true},
		{pricing.LevelNewcomer, pricing.CategoryOther, true},
		{"Champion", "", false},
		{"", "", false},
		{"advanced", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			category, ok := pricing.CategoryOf(tt.level)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.category, category)
		})
	}
}

func TestTable_IsPassOptionAllowed(t *testing.T) {
	table := pricing.DefaultTable()

	options := []pricing.PassOption{
		pricing.PassRegular,
		pricing.PassJudgeFree,
		pricing.PassJudgeDiscount,
		pricing.PassParty,
		pricing.PassZeroToHero,
		pricing.PassIntensive,
	}

	allowed := map[pricing.Level][]pricing.PassOption{
		pricing.LevelAllStar:      {pricing.PassRegular, pricing.PassJudgeFree, pricing.PassParty},
		pricing.LevelAdvanced:     {pricing.PassRegular, pricing.PassJudgeDiscount, pricing.PassParty},
		pricing.LevelIntermediate: {pricing.PassZeroToHero, pricing.PassRegular, pricing.PassParty},
		pricing.LevelNovice:       {pricing.PassZeroToHero, pricing.PassRegular, pricing.PassParty},
		pricing.LevelNewcomer:     {pricing.PassZeroToHero, pricing.PassRegular, pricing.PassParty},
	}

	for _, level := range pricing.Levels {
		for _, option := range options {
			t.Run(string(level)+"/"+string(option), func(t *testing.T) {
				assert.Equal(t, contains(allowed[level], option), table.IsPassOptionAllowed(level, option))
			})
		}
	}

	assert.False(t, table.IsPassOptionAllowed("Unknown", pricing.PassRegular))
	assert.False(t, table.IsPassOptionAllowed(pricing.LevelAdvanced, "Regular pass"))
}

func TestTable_IntroductoryPasses(t *testing.T) {
	cfg := config.DefaultEventConfig()
	cfg.IntroductoryPasses = []string{"Zero to Hero"}
	table, err := pricing.NewTable(cfg)
	require.NoError(t, err)

	for _, level := range pricing.Levels {
		assert.True(t, table.IsPassOptionAllowed(level, pricing.PassZeroToHero), level)
	}
	assert.False(t, table.IsPassOptionAllowed("Unknown", pricing.PassZeroToHero))
	assert.Equal(t,
		[]pricing.PassOption{pricing.PassRegular, pricing.PassJudgeFree, pricing.PassParty, pricing.PassZeroToHero},
		table.AllowedPassOptions(pricing.LevelAllStar))
}

func TestResolveTier(t *testing.T) {
	table := pricing.DefaultTable()
	loc := oslo(t)

	tests := []struct {
		name string
		now  time.Time
		tier pricing.Tier
	}{
		{"before opening", time.Date(2025, 5, 1, 12, 0, 0, 0, loc), pricing.TierYmir},
		{"early deadline day", time.Date(2025, 5, 29, 23, 59, 59, 0, loc), pricing.TierYmir},
		{"one second after early deadline", time.Date(2025, 5, 30, 0, 0, 0, 0, loc), pricing.TierMidgard},
		{"summer", time.Date(2025, 7, 15, 9, 0, 0, 0, loc), pricing.TierMidgard},
		{"regular deadline day", time.Date(2025, 8, 22, 23, 59, 59, 0, loc), pricing.TierMidgard},
		{"after regular deadline", time.Date(2025, 8, 23, 0, 0, 0, 0, loc), pricing.TierRagnarok},
		{"event week", time.Date(2025, 10, 3, 18, 0, 0, 0, loc), pricing.TierRagnarok},
		{"deadline in another zone", time.Date(2025, 5, 29, 21, 59, 59, 0, time.UTC), pricing.TierYmir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tier, table.ResolveTier(tt.now))
		})
	}
}

func TestResolveTier_Monotonic(t *testing.T) {
	table := pricing.DefaultTable()
	rank := map[pricing.Tier]int{pricing.TierYmir: 0, pricing.TierMidgard: 1, pricing.TierRagnarok: 2}

	start := time.Date(2025, 5, 1, 0, 0, 0, 0, table.Location)
	previous := table.ResolveTier(start)
	changes := 0
	for now := start; now.Before(time.Date(2025, 10, 10, 0, 0, 0, 0, table.Location)); now = now.Add(time.Hour) {
		tier := table.ResolveTier(now)
		require.GreaterOrEqual(t, rank[tier], rank[previous], now)
		if tier != previous {
			changes++
			boundary := now.Add(-time.Hour)
			assert.True(t, boundary.Equal(table.EarlyDeadline.Add(-59*time.Minute-59*time.Second)) ||
				boundary.Equal(table.RegularDeadline.Add(-59*time.Minute-59*time.Second)), now)
		}
		previous = tier
	}
	assert.Equal(t, 2, changes)
}

func TestTable_BasePrice(t *testing.T) {
	table := pricing.DefaultTable()

	tests := []struct {
		tier   pricing.Tier
		region pricing.Region
		price  int
	}{
		{pricing.TierYmir, pricing.RegionNordic, 1500},
		{pricing.TierYmir, pricing.RegionWorld, 1800},
		{pricing.TierMidgard, pricing.RegionNordic, 1700},
		{pricing.TierMidgard, pricing.RegionWorld, 2000},
		{pricing.TierRagnarok, pricing.RegionNordic, 1900},
		{pricing.TierRagnarok, pricing.RegionWorld, 2200},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier)+"/"+string(tt.region), func(t *testing.T) {
			price, err := table.BasePrice(tt.tier, tt.region)
			require.NoError(t, err)
			assert.Equal(t, tt.price, price)
		})
	}

	_, err := table.BasePrice(pricing.TierYmir, "Asia")
	assert.ErrorIs(t, err, pricing.ErrUnknownRegion)
}

func TestTable_PassPrice(t *testing.T) {
	table := pricing.DefaultTable()

	tests := []struct {
		name    string
		base    int
		level   pricing.Level
		option  pricing.PassOption
		price   int
		invalid bool
	}{
		{"regular keeps base", 1700, pricing.LevelNovice, pricing.PassRegular, 1700, false},
		{"free judge all-star", 2200, pricing.LevelAllStar, pricing.PassJudgeFree, 0, false},
		{"free judge advanced", 2200, pricing.LevelAdvanced, pricing.PassJudgeFree, 0, true},
		{"free judge newcomer", 1500, pricing.LevelNewcomer, pricing.PassJudgeFree, 0, true},
		{"discount advanced", 2000, pricing.LevelAdvanced, pricing.PassJudgeDiscount, 1600, false},
		{"discount rounds half up", 1857, pricing.LevelAdvanced, pricing.PassJudgeDiscount, 1486, false},
		{"discount all-star", 2000, pricing.LevelAllStar, pricing.PassJudgeDiscount, 0, true},
		{"party flat", 2200, pricing.LevelAllStar, pricing.PassParty, 1200, false},
		{"zero to hero flat", 1900, pricing.LevelNewcomer, pricing.PassZeroToHero, 1300, false},
		{"intensive flat", 1900, pricing.LevelIntermediate, pricing.PassIntensive, 1000, false},
		{"unknown option", 1900, pricing.LevelIntermediate, "VIP", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := table.PassPrice(tt.base, tt.level, tt.option)
			if tt.invalid {
				assert.ErrorIs(t, err, pricing.ErrInvalidPassOption)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.price, price)
		})
	}
}

func TestTable_PassPrice_FreeJudgeIgnoresBase(t *testing.T) {
	table := pricing.DefaultTable()
	for _, base := range []int{0, 1, 999, 1500, 2200, 100000} {
		price, err := table.PassPrice(base, pricing.LevelAllStar, pricing.PassJudgeFree)
		require.NoError(t, err)
		assert.Zero(t, price)
	}
}

func TestDiscount(t *testing.T) {
	assert.Equal(t, 1600, pricing.Discount(2000, 20))
	assert.Equal(t, 1360, pricing.Discount(1700, 20))
	assert.Equal(t, 1, pricing.Discount(1, 20))
	assert.Equal(t, 2, pricing.Discount(3, 20))
	assert.Equal(t, 1500, pricing.Discount(1500, 0))
}

func TestHotelPrice(t *testing.T) {
	table := pricing.DefaultTable()
	day := func(d int) time.Time { return time.Date(2025, 10, d, 0, 0, 0, 0, table.Location) }

	tests := []struct {
		name     string
		option   pricing.HotelOption
		checkIn  time.Time
		checkOut time.Time
		quote    pricing.HotelQuote
	}{
		{"two nights single", pricing.HotelSingle, day(2), day(4), pricing.HotelQuote{Amount: 2580, Nights: 2}},
		{"one night quatro", pricing.HotelQuatro, day(3), day(4), pricing.HotelQuote{Amount: 1890, Nights: 1}},
		{"whole window twin", pricing.HotelTwin, day(1), day(6), pricing.HotelQuote{Amount: 7450, Nights: 5}},
		{"same day", pricing.HotelTwin, day(3), day(3), pricing.HotelQuote{}},
		{"reversed", pricing.HotelTwin, day(4), day(2), pricing.HotelQuote{}},
		{"check-in before window", pricing.HotelTriple, time.Date(2025, 9, 30, 0, 0, 0, 0, table.Location), day(2), pricing.HotelQuote{}},
		{"check-out after window", pricing.HotelTriple, day(5), day(7), pricing.HotelQuote{}},
		{"no hotel", pricing.HotelNone, day(2), day(4), pricing.HotelQuote{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quote, table.HotelPrice(tt.option, tt.checkIn, tt.checkOut))
		})
	}
}

func TestHotelOption(t *testing.T) {
	tests := []struct {
		option    pricing.HotelOption
		occupancy int
		room      bool
		large     bool
	}{
		{pricing.HotelSingle, 1, true, false},
		{pricing.HotelTwin, 2, true, false},
		{pricing.HotelTriple, 3, true, true},
		{pricing.HotelQuatro, 4, true, true},
		{pricing.HotelNone, 0, false, false},
		{pricing.HotelDeclined, 0, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			assert.Equal(t, tt.occupancy, tt.option.Occupancy())
			assert.Equal(t, tt.room, tt.option.IsRoom())
			assert.Equal(t, tt.large, tt.option.IsLargeRoom())

			parsed, ok := pricing.ParseHotelOption(string(tt.option))
			assert.True(t, ok)
			assert.Equal(t, tt.option, parsed)
		})
	}

	_, ok := pricing.ParseHotelOption("Penthouse")
	assert.False(t, ok)
}

func TestTotalDue(t *testing.T) {
	assert.Equal(t, 1700+1000+2580, pricing.TotalDue(1700, 1000, 2580))
	assert.Equal(t, 0, pricing.TotalDue(0, 0, 0))
}

func TestTable_Quote(t *testing.T) {
	table := pricing.DefaultTable()
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, table.Location)

	quote, err := table.Quote(pricing.LevelAdvanced, pricing.PassJudgeDiscount, pricing.RegionWorld, true, now)
	require.NoError(t, err)
	assert.Equal(t, pricing.TierMidgard, quote.Tier)
	assert.Equal(t, 2000, quote.BasePrice)
	assert.Equal(t, 1600, quote.PassPrice)
	assert.Equal(t, 1000, quote.AddOnPrice)
	assert.Equal(t, 2600, quote.AmountDue)

	_, err = table.Quote(pricing.LevelNovice, pricing.PassJudgeDiscount, pricing.RegionWorld, false, now)
	assert.ErrorIs(t, err, pricing.ErrInvalidPassOption)
}

func TestTable_PaymentDeadline(t *testing.T) {
	table := pricing.DefaultTable()
	now := time.Date(2025, 6, 20, 23, 30, 0, 0, time.UTC)

	deadline := table.PaymentDeadline(now)
	assert.Equal(t, "2025-07-05", deadline.Format("2006-01-02"))
}

func TestNewTable_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.EventConfig)
	}{
		{"bad timezone", func(c *config.EventConfig) { c.Timezone = "Mars/Olympus" }},
		{"bad deadline", func(c *config.EventConfig) { c.EarlyDeadline = "29.05.2025" }},
		{"deadlines reversed", func(c *config.EventConfig) { c.RegularDeadline = "2025-05-01" }},
		{"unknown tier", func(c *config.EventConfig) { c.BasePrices["Asgard"] = map[string]int{"Nordic": 1} }},
		{"missing region", func(c *config.EventConfig) { delete(c.BasePrices["Ymir"], "World") }},
		{"unknown category", func(c *config.EventConfig) { c.PassOptions["Pro"] = []string{"Regular Pass"} }},
		{"unknown hotel option", func(c *config.EventConfig) { c.Hotel.Rates["Suite"] = 5000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultEventConfig()
			tt.mutate(&cfg)
			_, err := pricing.NewTable(cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewTable_CaseInsensitiveKeys(t *testing.T) {
	cfg := config.DefaultEventConfig()
	cfg.BasePrices = map[string]map[string]int{
		"ymir":     {"nordic": 1, "world": 2},
		"midgard":  {"nordic": 3, "world": 4},
		"ragnarok": {"nordic": 5, "world": 6},
	}
	cfg.PassOptions = map[string][]string{"all-star": {"Regular Pass"}}
	cfg.Hotel.Rates = map[string]int{"hoteloptionone": 100}

	table, err := pricing.NewTable(cfg)
	require.NoError(t, err)

	price, err := table.BasePrice(pricing.TierRagnarok, pricing.RegionWorld)
	require.NoError(t, err)
	assert.Equal(t, 6, price)
	assert.True(t, table.IsPassOptionAllowed(pricing.LevelAllStar, pricing.PassRegular))
	assert.Equal(t, 100, table.HotelRates[pricing.HotelSingle])
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in  string
		out pricing.PassLabel
	}{
		{"Full pass", pricing.LabelFullPass},
		{"Full Pass", pricing.LabelFullPass},
		{"Regular pass", pricing.LabelFullPass},
		{" Regular Pass ", pricing.LabelFullPass},
		{"Judge (20% Discount)", pricing.LabelJudgeDiscount},
		{"Judge 20% off", pricing.LabelJudgeDiscount},
		{"Judge (Free Pass)", pricing.LabelJudgeFree},
		{"Judge - Free", pricing.LabelJudgeFree},
		{"Party Pass", pricing.LabelPartyPass},
		{"Zero to Hero", pricing.LabelZeroToHero},
		{"Intensive", pricing.LabelIntensive},
		{"dummyReg", pricing.LabelOther},
		{"", pricing.LabelUnknown},
		{"   ", pricing.LabelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.out, pricing.Canonical(tt.in))
		})
	}
}

func TestRegionForCountry(t *testing.T) {
	assert.Equal(t, pricing.RegionNordic, pricing.RegionForCountry("Norway"))
	assert.Equal(t, pricing.RegionNordic, pricing.RegionForCountry(" sweden "))
	assert.Equal(t, pricing.RegionNordic, pricing.RegionForCountry("Åland"))
	assert.Equal(t, pricing.RegionWorld, pricing.RegionForCountry("Germany"))
	assert.Equal(t, pricing.RegionWorld, pricing.RegionForCountry(""))

	region, ok := pricing.ParseRegion("nordic")
	assert.True(t, ok)
	assert.Equal(t, pricing.RegionNordic, region)
	_, ok = pricing.ParseRegion("Asia")
	assert.False(t, ok)
}

func contains(options []pricing.PassOption, option pricing.PassOption) bool {
	for _, o := range options {
		if o == option {
			return true
		}
	}
	return false
}
