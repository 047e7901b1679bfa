// Package requirement is the single authoritative source of the
// per-role/per-risk-tier service-minute table. It is pure domain logic:
// no I/O, no side effects, and every call site gets the same arithmetic.
package requirement

import (
	"fieldsafe/pkg/domain"
)

// safetySupportMinEmployees is the exclusive lower bound for the
// safety-support role: the worksite must have strictly more employees.
const safetySupportMinEmployees = 10

// perEmployeeMinutes maps role and risk tier to the monthly minutes owed
// per employee. Safety support is handled separately because its rate only
// applies when the worksite profile makes the role eligible.
var perEmployeeMinutes = map[domain.Role]map[domain.RiskTier]int{
	domain.RoleFieldExpert: {
		domain.RiskTierLow:           10,
		domain.RiskTierDangerous:     20,
		domain.RiskTierVeryDangerous: 40,
	},
	domain.RolePhysician: {
		domain.RiskTierLow:           5,
		domain.RiskTierDangerous:     10,
		domain.RiskTierVeryDangerous: 15,
	},
	domain.RoleSafetySupport: {
		domain.RiskTierVeryDangerous: 5,
	},
}

// Eligible reports whether a role may be assigned to a worksite profile at
// all. Field experts and physicians fit every profile; safety support only
// fits very dangerous worksites with more than ten employees.
func Eligible(role domain.Role, tier domain.RiskTier, employeeCount int) bool {
	if role != domain.RoleSafetySupport {
		return true
	}
	return tier == domain.RiskTierVeryDangerous && employeeCount > safetySupportMinEmployees
}

// Minutes computes the required service minutes for one assignment:
// per-employee rate times employee count. Ineligible profiles and a zero
// employee count both yield zero. Callers reject negative employee counts
// before calling; the table lookup is undefined for them.
func Minutes(role domain.Role, tier domain.RiskTier, employeeCount int) int {
	if !Eligible(role, tier, employeeCount) {
		return 0
	}
	return perEmployeeMinutes[role][tier] * employeeCount
}
