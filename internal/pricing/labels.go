package pricing

import "strings"

// PassLabel is the canonical pass name used when grouping stored registrations,
// which carry labels from several generations of the sign-up form.
type PassLabel string

const (
	LabelFullPass      PassLabel = "Full Pass"
	LabelJudgeDiscount PassLabel = "Judge (20% Discount)"
	LabelJudgeFree     PassLabel = "Judge (Free Pass)"
	LabelPartyPass     PassLabel = "Party Pass"
	LabelZeroToHero    PassLabel = "Zero to Hero"
	LabelIntensive     PassLabel = "Intensive"
	LabelOther         PassLabel = "Other"
	LabelUnknown       PassLabel = "Unknown"
)

// Canonical maps a stored pass option to its PassLabel.
func Canonical(option string) PassLabel {
	normalized := strings.TrimSpace(option)
	if normalized == "" {
		return LabelUnknown
	}

	lower := strings.ToLower(normalized)
	switch lower {
	case "full pass", "regular pass":
		return LabelFullPass
	case "party pass":
		return LabelPartyPass
	case "zero to hero":
		return LabelZeroToHero
	case "intensive":
		return LabelIntensive
	}

	if strings.Contains(lower, "judge") {
		if strings.Contains(lower, "20%") {
			return LabelJudgeDiscount
		}
		if strings.Contains(lower, "free") {
			return LabelJudgeFree
		}
	}
	return LabelOther
}
