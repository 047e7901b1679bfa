package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fieldsafe/pkg/domain"
)

// TestMinutes_Table pins the authoritative rate table. Any edit to the table
// must update these expectations deliberately.
func TestMinutes_Table(t *testing.T) {
	tests := []struct {
		name      string
		role      domain.Role
		tier      domain.RiskTier
		employees int
		want      int
	}{
		{"field expert low", domain.RoleFieldExpert, domain.RiskTierLow, 10, 100},
		{"field expert dangerous", domain.RoleFieldExpert, domain.RiskTierDangerous, 50, 1000},
		{"field expert very dangerous", domain.RoleFieldExpert, domain.RiskTierVeryDangerous, 7, 280},
		{"physician low", domain.RolePhysician, domain.RiskTierLow, 20, 100},
		{"physician dangerous", domain.RolePhysician, domain.RiskTierDangerous, 30, 300},
		{"physician very dangerous", domain.RolePhysician, domain.RiskTierVeryDangerous, 15, 225},
		{"safety support above threshold", domain.RoleSafetySupport, domain.RiskTierVeryDangerous, 11, 55},
		{"safety support well above threshold", domain.RoleSafetySupport, domain.RiskTierVeryDangerous, 15, 75},
		{"safety support at threshold is ineligible", domain.RoleSafetySupport, domain.RiskTierVeryDangerous, 10, 0},
		{"safety support below threshold", domain.RoleSafetySupport, domain.RiskTierVeryDangerous, 8, 0},
		{"safety support dangerous tier", domain.RoleSafetySupport, domain.RiskTierDangerous, 100, 0},
		{"safety support low tier", domain.RoleSafetySupport, domain.RiskTierLow, 100, 0},
		{"zero employees", domain.RoleFieldExpert, domain.RiskTierVeryDangerous, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Minutes(tt.role, tt.tier, tt.employees))
		})
	}
}

// TestMinutes_Deterministic verifies repeated calls agree.
func TestMinutes_Deterministic(t *testing.T) {
	first := Minutes(domain.RoleFieldExpert, domain.RiskTierDangerous, 50)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Minutes(domain.RoleFieldExpert, domain.RiskTierDangerous, 50))
	}
	assert.Equal(t, 1000, first)
}

func TestEligible(t *testing.T) {
	t.Run("field expert and physician fit any profile", func(t *testing.T) {
		for _, tier := range []domain.RiskTier{domain.RiskTierLow, domain.RiskTierDangerous, domain.RiskTierVeryDangerous} {
			assert.True(t, Eligible(domain.RoleFieldExpert, tier, 1))
			assert.True(t, Eligible(domain.RolePhysician, tier, 1))
		}
	})

	t.Run("safety support needs very dangerous and more than ten employees", func(t *testing.T) {
		assert.True(t, Eligible(domain.RoleSafetySupport, domain.RiskTierVeryDangerous, 11))
		assert.False(t, Eligible(domain.RoleSafetySupport, domain.RiskTierVeryDangerous, 10))
		assert.False(t, Eligible(domain.RoleSafetySupport, domain.RiskTierDangerous, 11))
		assert.False(t, Eligible(domain.RoleSafetySupport, domain.RiskTierLow, 500))
	})
}
