package worksite

import (
	"context"
	"errors"
	"log/slog"

	"fieldsafe/internal/ledger"
	"fieldsafe/internal/platform/metrics"
	"fieldsafe/internal/requirement"
	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
	"fieldsafe/pkg/platform/sentinel"
	txcontext "fieldsafe/pkg/platform/tx"
	"fieldsafe/pkg/requestcontext"
)

// CapacityLedger is the slice of the ledger the assignment flow drives.
// Implemented by ledger.Service; every call made inside RunInTx joins the
// surrounding transaction.
type CapacityLedger interface {
	GetPerson(ctx context.Context, id domain.PersonID) (*ledger.Person, error)
	Reserve(ctx context.Context, id domain.PersonID, minutes int) (*ledger.Person, error)
	Release(ctx context.Context, id domain.PersonID, minutes int) (*ledger.Person, error)
	ReleaseThenReserve(ctx context.Context, id domain.PersonID, releaseMinutes, reserveMinutes int) (*ledger.Person, error)
}

// Service orchestrates the worksite lifecycle: profile management, the
// approval workflow, and assignment commits that pair a slot write with
// the matching ledger reservation in one transaction.
type Service struct {
	worksites Store
	ledger    CapacityLedger
	runner    txcontext.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(worksites Store, capacity CapacityLedger, runner txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		worksites: worksites,
		ledger:    capacity,
		runner:    runner,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateWorksite registers a new worksite in the pending-assignment state.
func (s *Service) CreateWorksite(ctx context.Context, name string, tier domain.RiskTier, employeeCount int) (*Worksite, error) {
	w, err := NewWorksite(domain.NewWorksiteID(), name, tier, employeeCount, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.worksites.Create(ctx, w); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "worksite already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create worksite")
	}

	s.logger.InfoContext(ctx, "worksite created",
		"worksite_id", w.ID,
		"risk_tier", w.RiskTier,
		"employee_count", w.EmployeeCount,
		"request_id", requestcontext.RequestID(ctx),
	)
	return w, nil
}

// GetWorksite returns one worksite with its committed assignments.
func (s *Service) GetWorksite(ctx context.Context, id domain.WorksiteID) (*Worksite, error) {
	w, err := s.worksites.FindByID(ctx, id)
	if err != nil {
		return nil, wrapWorksiteErr(err)
	}
	return w, nil
}

// ListWorksites lists all worksites, or only those in the given status
// when statusFilter is non-empty.
func (s *Service) ListWorksites(ctx context.Context, statusFilter string) ([]*Worksite, error) {
	var (
		worksites []*Worksite
		err       error
	)
	if statusFilter == "" {
		worksites, err = s.worksites.List(ctx)
	} else {
		status, parseErr := ParseApprovalStatus(statusFilter)
		if parseErr != nil {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown approval status: %q", statusFilter)
		}
		worksites, err = s.worksites.ListByStatus(ctx, status)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list worksites")
	}
	return worksites, nil
}

// ListConfirmed returns the approved worksites only. This is the view the
// operational calendar is built from.
func (s *Service) ListConfirmed(ctx context.Context) ([]*Worksite, error) {
	worksites, err := s.worksites.ListByStatus(ctx, StatusApproved)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list worksites")
	}
	return worksites, nil
}

// UpdateProfile changes a worksite's risk tier and employee count.
// Committed assignments keep the minutes reserved at commit time; the new
// profile only affects future validations. The write runs under the
// transaction runner so it cannot interleave with an in-flight assignment
// commit on the same worksite.
func (s *Service) UpdateProfile(ctx context.Context, id domain.WorksiteID, tier domain.RiskTier, employeeCount int) (*Worksite, error) {
	var committed *Worksite
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.worksites.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapWorksiteErr(err)
		}

		if err := w.UpdateProfile(tier, employeeCount, requestcontext.Now(ctx)); err != nil {
			if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
				return dErrors.New(dErrors.CodeValidation, err.Error())
			}
			return err
		}

		if err := s.worksites.Update(ctx, w); err != nil {
			return wrapWorksiteErr(err)
		}
		committed = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// SetApprovalStatus moves a worksite to the target workflow state. Status
// changes never touch the capacity ledger or the visit calendar; reverting
// an approved worksite hides its calendar but keeps every record.
func (s *Service) SetApprovalStatus(ctx context.Context, id domain.WorksiteID, to ApprovalStatus) (*Worksite, error) {
	var (
		committed *Worksite
		from      ApprovalStatus
	)
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.worksites.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapWorksiteErr(err)
		}

		if err := w.CanSetStatus(to); err != nil {
			return dErrors.New(dErrors.CodeValidation, err.Error())
		}
		from = w.Status
		w.ApplyStatus(to, requestcontext.Now(ctx))

		if err := s.worksites.Update(ctx, w); err != nil {
			return wrapWorksiteErr(err)
		}
		committed = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementApprovalTransition(string(to))
	s.logger.InfoContext(ctx, "approval status changed",
		"worksite_id", committed.ID,
		"from", from,
		"to", to,
		"actor_id", requestcontext.ActorID(ctx),
	)
	return committed, nil
}

// SlotPreview reports, for one role, whether the current worksite profile
// admits the role and what an assignment would cost.
type SlotPreview struct {
	Role            domain.Role `json:"role"`
	Eligible        bool        `json:"eligible"`
	RequiredMinutes int         `json:"required_minutes"`
	Assigned        *Assignment `json:"assigned,omitempty"`
}

// Preview evaluates every slot against the current profile without
// touching the ledger. Operators use it to see requirements before
// committing an assignment.
func (s *Service) Preview(ctx context.Context, id domain.WorksiteID) ([]SlotPreview, error) {
	w, err := s.worksites.FindByID(ctx, id)
	if err != nil {
		return nil, wrapWorksiteErr(err)
	}

	previews := make([]SlotPreview, 0, len(domain.Roles()))
	for _, role := range domain.Roles() {
		previews = append(previews, SlotPreview{
			Role:            role,
			Eligible:        requirement.Eligible(role, w.RiskTier, w.EmployeeCount),
			RequiredMinutes: requirement.Minutes(role, w.RiskTier, w.EmployeeCount),
			Assigned:        w.Assignment(role),
		})
	}
	return previews, nil
}

// Assign validates and commits one slot assignment. Validation runs in
// order: profile eligibility, person existence and role match, then
// capacity. The ledger reservation and the slot write share one
// transaction, and replacing a committed assignment frees the old
// reservation before the new one is checked.
func (s *Service) Assign(ctx context.Context, id domain.WorksiteID, role domain.Role, personID domain.PersonID) (*Worksite, error) {
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown role: %q", role)
	}

	var committed *Worksite
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		w, err := s.worksites.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapWorksiteErr(err)
		}

		if !requirement.Eligible(role, w.RiskTier, w.EmployeeCount) {
			s.metrics.IncrementAssignmentRejected(metrics.RejectReasonRoleNotApplicable)
			return dErrors.New(dErrors.CodeValidation, "role not applicable for this worksite profile")
		}

		person, err := s.ledger.GetPerson(ctx, personID)
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				s.metrics.IncrementAssignmentRejected(metrics.RejectReasonUnknownPerson)
				return dErrors.New(dErrors.CodeValidation, "unknown person")
			}
			return err
		}
		if person.Role != role {
			s.metrics.IncrementAssignmentRejected(metrics.RejectReasonRoleMismatch)
			return dErrors.Newf(dErrors.CodeValidation,
				"person holds role %q, cannot fill the %q slot", person.Role, role)
		}

		required := requirement.Minutes(role, w.RiskTier, w.EmployeeCount)
		existing := w.Assignment(role)

		switch {
		case existing != nil && existing.PersonID == personID:
			// Re-validation of the incumbent: the old hold is released
			// before the new requirement is checked, atomically.
			_, err = s.ledger.ReleaseThenReserve(ctx, personID, existing.Minutes, required)
		default:
			_, err = s.ledger.Reserve(ctx, personID, required)
		}
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeValidation) {
				s.metrics.IncrementAssignmentRejected(metrics.RejectReasonInsufficientCapacity)
			}
			return err
		}

		// Replacing a different holder: their reservation goes back to
		// the pool. The hold is known to exist, so this cannot fail.
		if existing != nil && existing.PersonID != personID {
			if _, err := s.ledger.Release(ctx, existing.PersonID, existing.Minutes); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release replaced assignment")
			}
		}

		w.SetAssignment(role, personID, required, now)
		if err := s.worksites.Update(ctx, w); err != nil {
			return wrapWorksiteErr(err)
		}
		committed = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementAssignmentCommitted()
	s.logger.InfoContext(ctx, "assignment committed",
		"worksite_id", id,
		"role", role,
		"person_id", personID,
		"minutes", committed.Assignment(role).Minutes,
		"actor_id", requestcontext.ActorID(ctx),
	)
	return committed, nil
}

// Unassign clears a slot and returns the reserved minutes to the person's
// ledger, in one transaction.
func (s *Service) Unassign(ctx context.Context, id domain.WorksiteID, role domain.Role) (*Worksite, error) {
	if !role.Valid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown role: %q", role)
	}

	var committed *Worksite
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		w, err := s.worksites.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapWorksiteErr(err)
		}

		existing := w.Assignment(role)
		if existing == nil {
			return dErrors.Newf(dErrors.CodeNotFound, "no %q assignment on this worksite", role)
		}

		if _, err := s.ledger.Release(ctx, existing.PersonID, existing.Minutes); err != nil {
			return err
		}

		w.ClearAssignment(role, now)
		if err := s.worksites.Update(ctx, w); err != nil {
			return wrapWorksiteErr(err)
		}
		committed = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "assignment cleared",
		"worksite_id", id,
		"role", role,
		"actor_id", requestcontext.ActorID(ctx),
	)
	return committed, nil
}

// DeleteWorksite removes a worksite. Every committed reservation is
// released first so no ledger minutes stay orphaned.
func (s *Service) DeleteWorksite(ctx context.Context, id domain.WorksiteID) error {
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		w, err := s.worksites.FindByIDForUpdate(ctx, id)
		if err != nil {
			return wrapWorksiteErr(err)
		}

		for _, a := range w.Assignments {
			if _, err := s.ledger.Release(ctx, a.PersonID, a.Minutes); err != nil {
				return err
			}
		}

		if err := s.worksites.Delete(ctx, id); err != nil {
			return wrapWorksiteErr(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "worksite deleted",
		"worksite_id", id,
		"actor_id", requestcontext.ActorID(ctx),
	)
	return nil
}

func wrapWorksiteErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "unknown worksite")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "worksite was modified concurrently, please retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "worksite store failure")
	}
}
