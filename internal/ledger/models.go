// Package ledger owns each person's granted service minutes and the minutes
// consumed by active assignments. usedMinutes is mutated only through
// committed reserve/release operations; nothing else in the codebase writes
// it.
package ledger

import (
	"strings"
	"time"

	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
)

// MaxGrantedMinutes caps a person's monthly granted capacity.
const MaxGrantedMinutes = 11900

// Person is the ledger aggregate.
//
// Invariants:
//   - 0 <= AssignedMinutes <= MaxGrantedMinutes
//   - 0 <= UsedMinutes <= AssignedMinutes after every committed operation
//   - Version increases by one per persisted update
type Person struct {
	ID              domain.PersonID `json:"id"`
	Role            domain.Role     `json:"role"`
	Name            string          `json:"name"`
	AssignedMinutes int             `json:"assigned_minutes"`
	UsedMinutes     int             `json:"used_minutes"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NewPerson validates and constructs a Person with no consumed capacity.
func NewPerson(id domain.PersonID, role domain.Role, name string, assignedMinutes int, now time.Time) (*Person, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "person name cannot be empty")
	}
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown role: %q", role)
	}
	if assignedMinutes < 0 || assignedMinutes > MaxGrantedMinutes {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation,
			"granted minutes must be between 0 and %d, got %d", MaxGrantedMinutes, assignedMinutes)
	}
	return &Person{
		ID:              id,
		Role:            role,
		Name:            name,
		AssignedMinutes: assignedMinutes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// RemainingMinutes is the capacity still available for new assignments.
func (p *Person) RemainingMinutes() int {
	return p.AssignedMinutes - p.UsedMinutes
}

// CanReserve checks whether the person can absorb an additional requirement.
// The error message carries the numeric breakdown so the operator never has
// to re-derive the arithmetic.
func (p *Person) CanReserve(minutes int) error {
	if minutes < 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot reserve negative minutes: %d", minutes)
	}
	if remaining := p.RemainingMinutes(); remaining < minutes {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"insufficient capacity: required %d, available %d", minutes, remaining)
	}
	return nil
}

// ApplyReserve consumes minutes. Call CanReserve first.
func (p *Person) ApplyReserve(minutes int, now time.Time) {
	p.UsedMinutes += minutes
	p.UpdatedAt = now
}

// CanRelease checks whether minutes can be handed back without driving
// usedMinutes negative.
func (p *Person) CanRelease(minutes int) error {
	if minutes < 0 {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "cannot release negative minutes: %d", minutes)
	}
	if p.UsedMinutes < minutes {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"cannot release %d minutes, only %d in use", minutes, p.UsedMinutes)
	}
	return nil
}

// ApplyRelease returns minutes to the pool. Call CanRelease first.
func (p *Person) ApplyRelease(minutes int, now time.Time) {
	p.UsedMinutes -= minutes
	p.UpdatedAt = now
}

// CanAdjustGrant checks a new granted-minutes total against the cap and the
// minutes already committed to worksites.
func (p *Person) CanAdjustGrant(minutes int) error {
	if minutes < 0 || minutes > MaxGrantedMinutes {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"granted minutes must be between 0 and %d, got %d", MaxGrantedMinutes, minutes)
	}
	if minutes < p.UsedMinutes {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"granted minutes %d would fall below %d minutes already committed", minutes, p.UsedMinutes)
	}
	return nil
}

// ApplyAdjustGrant sets the granted total. Call CanAdjustGrant first.
func (p *Person) ApplyAdjustGrant(minutes int, now time.Time) {
	p.AssignedMinutes = minutes
	p.UpdatedAt = now
}

// Clone returns a deep copy so stores never hand out shared state.
func (p *Person) Clone() *Person {
	cp := *p
	return &cp
}
