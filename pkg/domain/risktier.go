package domain

import dErrors "fieldsafe/pkg/domain-errors"

// RiskTier classifies a worksite by hazard level. The tier drives the
// per-employee minute multipliers for required service time.
type RiskTier string

const (
	RiskTierLow           RiskTier = "low"
	RiskTierDangerous     RiskTier = "dangerous"
	RiskTierVeryDangerous RiskTier = "very_dangerous"
)

// ParseRiskTier validates a risk tier string.
func ParseRiskTier(s string) (RiskTier, error) {
	t := RiskTier(s)
	switch t {
	case RiskTierLow, RiskTierDangerous, RiskTierVeryDangerous:
		return t, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown risk tier: %q", s)
}

func (t RiskTier) String() string { return string(t) }

// Valid reports whether the tier is one of the known tiers.
func (t RiskTier) Valid() bool {
	_, err := ParseRiskTier(string(t))
	return err == nil
}
