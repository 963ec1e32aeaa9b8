// Package pricing holds the single authoritative price table of the event and the
// pure functions that resolve tiers, check pass eligibility and compute amounts due.
// All amounts are whole NOK.
package pricing

import (
	"errors"
	"strings"
)

var (
	ErrUnknownRegion      = errors.New("pricing: unknown region")
	ErrUnknownTier        = errors.New("pricing: unknown tier")
	ErrInvalidPassOption  = errors.New("pricing: pass option not valid for level")
	ErrUnknownHotelOption = errors.New("pricing: unknown hotel option")
)

type Tier string

const (
	TierYmir     Tier = "Ymir"
	TierMidgard  Tier = "Midgard"
	TierRagnarok Tier = "Ragnarok"
)

// Tiers lists the tiers in chronological order.
var Tiers = []Tier{TierYmir, TierMidgard, TierRagnarok}

func (t Tier) String() string { return string(t) }

// Label returns the customer facing name of the tier.
func (t Tier) Label() string {
	switch t {
	case TierYmir:
		return "Early Bird"
	case TierMidgard:
		return "Regular"
	case TierRagnarok:
		return "Late Bird"
	}
	return string(t)
}

type Region string

const (
	RegionNordic Region = "Nordic"
	RegionWorld  Region = "World"
)

var Regions = []Region{RegionNordic, RegionWorld}

func ParseRegion(s string) (Region, bool) {
	for _, r := range Regions {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

var nordicCountries = []string{
	"norway", "norge", "sweden", "sverige", "denmark", "danmark", "finland", "suomi",
	"iceland", "ísland", "faroe islands", "greenland", "åland", "aland",
}

// RegionForCountry places a country in one of the two pricing regions.
func RegionForCountry(country string) Region {
	c := strings.ToLower(strings.TrimSpace(country))
	for _, nordic := range nordicCountries {
		if c == nordic {
			return RegionNordic
		}
	}
	return RegionWorld
}

type Level string

const (
	LevelAllStar      Level = "All-Star"
	LevelAdvanced     Level = "Advanced"
	LevelIntermediate Level = "Intermediate"
	LevelNovice       Level = "Novice"
	LevelNewcomer     Level = "Newcomer"
)

var Levels = []Level{LevelAllStar, LevelAdvanced, LevelIntermediate, LevelNovice, LevelNewcomer}

type Category string

const (
	CategoryAllStar  Category = "All-Star"
	CategoryAdvanced Category = "Advanced"
	CategoryOther    Category = "Other"
)

var Categories = []Category{CategoryAllStar, CategoryAdvanced, CategoryOther}

// CategoryOf maps a level to its category. The boolean is false for unknown
// levels, which callers must reject.
func CategoryOf(level Level) (Category, bool) {
	switch level {
	case LevelAllStar:
		return CategoryAllStar, true
	case LevelAdvanced:
		return CategoryAdvanced, true
	case LevelIntermediate, LevelNovice, LevelNewcomer:
		return CategoryOther, true
	}
	return "", false
}

type PassOption string

const (
	PassRegular       PassOption = "Regular Pass"
	PassJudgeFree     PassOption = "Judge (Free Pass)"
	PassJudgeDiscount PassOption = "Judge (20% Discount)"
	PassParty         PassOption = "Party Pass"
	PassZeroToHero    PassOption = "Zero to Hero"
	PassIntensive     PassOption = "Intensive"
)

func parseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

func parseTier(s string) (Tier, bool) {
	for _, t := range Tiers {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}
