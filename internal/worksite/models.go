// Package worksite owns client worksites: their risk profile, their three
// personnel slots, and the approval workflow that gates operational
// visibility. Assignment commits run through this package so that the slot
// write and the ledger mutation share one transaction.
package worksite

import (
	"strings"
	"time"

	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
)

// ApprovalStatus is the three-state workflow flag. Transitions are
// operator-triggered and deliberately unordered: administrators may move a
// worksite between any two states, including reverting Approved. The only
// behavioral consequence is visibility in the confirmed-worksite view and
// visit-calendar eligibility.
type ApprovalStatus string

const (
	StatusPendingAssignment ApprovalStatus = "pending_assignment"
	StatusPendingApproval   ApprovalStatus = "pending_approval"
	StatusApproved          ApprovalStatus = "approved"
)

// ParseApprovalStatus validates a status string.
func ParseApprovalStatus(s string) (ApprovalStatus, error) {
	st := ApprovalStatus(s)
	switch st {
	case StatusPendingAssignment, StatusPendingApproval, StatusApproved:
		return st, nil
	}
	return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown approval status: %q", s)
}

func (s ApprovalStatus) String() string { return string(s) }

// Assignment records a committed slot: who holds it and the minutes that
// were reserved at commit time. The minutes are never recomputed when the
// worksite profile later changes; re-validation requires an explicit
// re-assign.
type Assignment struct {
	PersonID domain.PersonID `json:"person_id"`
	Minutes  int             `json:"minutes"`
}

// Worksite is the aggregate for one client site.
//
// Invariants:
//   - RiskTier is one of the known tiers
//   - EmployeeCount >= 0 (negative counts are precondition violations)
//   - a filled slot references a person whose role matches the slot
//   - Version increases by one per persisted update
type Worksite struct {
	ID            domain.WorksiteID                  `json:"id"`
	Name          string                             `json:"name"`
	RiskTier      domain.RiskTier                    `json:"risk_tier"`
	EmployeeCount int                                `json:"employee_count"`
	Status        ApprovalStatus                     `json:"status"`
	Assignments   map[domain.Role]*Assignment        `json:"assignments"`
	Version       int64                              `json:"version"`
	CreatedAt     time.Time                          `json:"created_at"`
	UpdatedAt     time.Time                          `json:"updated_at"`
}

// NewWorksite validates and constructs an unassigned worksite in the
// initial PendingAssignment state.
func NewWorksite(id domain.WorksiteID, name string, tier domain.RiskTier, employeeCount int, now time.Time) (*Worksite, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "worksite name cannot be empty")
	}
	if !tier.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown risk tier: %q", tier)
	}
	if employeeCount < 0 {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "employee count cannot be negative, got %d", employeeCount)
	}
	return &Worksite{
		ID:            id,
		Name:          name,
		RiskTier:      tier,
		EmployeeCount: employeeCount,
		Status:        StatusPendingAssignment,
		Assignments:   map[domain.Role]*Assignment{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Assignment returns the committed assignment for a slot, or nil.
func (w *Worksite) Assignment(role domain.Role) *Assignment {
	return w.Assignments[role]
}

// SetAssignment fills a slot with a committed reservation.
func (w *Worksite) SetAssignment(role domain.Role, personID domain.PersonID, minutes int, now time.Time) {
	if w.Assignments == nil {
		w.Assignments = map[domain.Role]*Assignment{}
	}
	w.Assignments[role] = &Assignment{PersonID: personID, Minutes: minutes}
	w.UpdatedAt = now
}

// ClearAssignment empties a slot.
func (w *Worksite) ClearAssignment(role domain.Role, now time.Time) {
	delete(w.Assignments, role)
	w.UpdatedAt = now
}

// CanSetStatus validates a target status. Every known state is reachable
// from every other; the check exists so a stricter workflow is a one-line
// change and so unknown states never persist.
func (w *Worksite) CanSetStatus(to ApprovalStatus) error {
	if _, err := ParseApprovalStatus(string(to)); err != nil {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown approval status: %q", to)
	}
	return nil
}

// ApplyStatus moves the worksite to the target state. Call CanSetStatus
// first. Status changes never touch the capacity ledger.
func (w *Worksite) ApplyStatus(to ApprovalStatus, now time.Time) {
	w.Status = to
	w.UpdatedAt = now
}

// IsApproved reports whether the worksite is visible in the confirmed view.
func (w *Worksite) IsApproved() bool {
	return w.Status == StatusApproved
}

// TrackedBy returns the field expert responsible for visit tracking, if one
// is assigned.
func (w *Worksite) TrackedBy() (domain.PersonID, bool) {
	a := w.Assignments[domain.RoleFieldExpert]
	if a == nil {
		return domain.PersonID{}, false
	}
	return a.PersonID, true
}

// UpdateProfile changes the risk tier and employee count. Committed
// assignment minutes are left as-is: the source of truth for consumed
// capacity is the reservation made at commit time.
func (w *Worksite) UpdateProfile(tier domain.RiskTier, employeeCount int, now time.Time) error {
	if !tier.Valid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown risk tier: %q", tier)
	}
	if employeeCount < 0 {
		return dErrors.Newf(dErrors.CodeBadRequest, "employee count cannot be negative, got %d", employeeCount)
	}
	w.RiskTier = tier
	w.EmployeeCount = employeeCount
	w.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so stores never hand out shared state.
func (w *Worksite) Clone() *Worksite {
	cp := *w
	cp.Assignments = make(map[domain.Role]*Assignment, len(w.Assignments))
	for role, a := range w.Assignments {
		ac := *a
		cp.Assignments[role] = &ac
	}
	return &cp
}
