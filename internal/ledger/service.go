package ledger

import (
	"context"
	"errors"
	"log/slog"

	"fieldsafe/internal/events"
	"fieldsafe/internal/platform/metrics"
	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
	"fieldsafe/pkg/platform/sentinel"
	"fieldsafe/pkg/requestcontext"
)

// Service orchestrates person lifecycle and capacity mutations. Reserve and
// Release are the only entry points that change usedMinutes; the worksite
// assignment flow calls them inside its commit transaction.
type Service struct {
	persons   Store
	logger    *slog.Logger
	metrics   *metrics.Metrics
	publisher events.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(persons Store, opts ...Option) *Service {
	s := &Service{
		persons:   persons,
		logger:    slog.Default(),
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePerson registers a new person with a granted-minute budget and no
// consumed capacity.
func (s *Service) CreatePerson(ctx context.Context, role domain.Role, name string, assignedMinutes int) (*Person, error) {
	person, err := NewPerson(domain.NewPersonID(), role, name, assignedMinutes, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.persons.Create(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "person already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create person")
	}

	s.logger.InfoContext(ctx, "person created",
		"person_id", person.ID,
		"role", person.Role,
		"assigned_minutes", person.AssignedMinutes,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitCapacityChanged(ctx, person.ID)
	return person, nil
}

// GetPerson returns one person with derived remaining minutes.
func (s *Service) GetPerson(ctx context.Context, id domain.PersonID) (*Person, error) {
	person, err := s.persons.FindByID(ctx, id)
	if err != nil {
		return nil, wrapPersonErr(err)
	}
	return person, nil
}

// ListPersons lists all persons, or only those with the given role when
// role is non-empty.
func (s *Service) ListPersons(ctx context.Context, role domain.Role) ([]*Person, error) {
	var (
		persons []*Person
		err     error
	)
	if role == "" {
		persons, err = s.persons.List(ctx)
	} else {
		if !role.Valid() {
			return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown role: %q", role)
		}
		persons, err = s.persons.ListByRole(ctx, role)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list persons")
	}
	return persons, nil
}

// AdjustGrantedMinutes sets a person's granted total. The optimistic write
// is retried once after a concurrent update, then surfaced as a conflict.
func (s *Service) AdjustGrantedMinutes(ctx context.Context, id domain.PersonID, minutes int) (*Person, error) {
	now := requestcontext.Now(ctx)

	for attempt := 0; attempt < 2; attempt++ {
		person, err := s.persons.FindByID(ctx, id)
		if err != nil {
			return nil, wrapPersonErr(err)
		}

		if err := person.CanAdjustGrant(minutes); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		person.ApplyAdjustGrant(minutes, now)

		err = s.persons.Update(ctx, person)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, wrapPersonErr(err)
		}

		s.emitCapacityChanged(ctx, person.ID)
		return person, nil
	}
	return nil, dErrors.New(dErrors.CodeConflict, "person was modified concurrently, please retry")
}

// DeletePerson removes a person. Stores reject the delete while any
// committed assignment still holds the person's minutes.
func (s *Service) DeletePerson(ctx context.Context, id domain.PersonID) error {
	if err := s.persons.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeValidation, "person still has active assignments")
		}
		return wrapPersonErr(err)
	}
	return nil
}

// Reserve consumes minutes from a person's remaining capacity. The store
// serializes concurrent reservations per person, so two attempts whose sum
// exceeds the grant can never both succeed.
func (s *Service) Reserve(ctx context.Context, id domain.PersonID, minutes int) (*Person, error) {
	now := requestcontext.Now(ctx)
	person, err := s.persons.Execute(ctx, id,
		func(p *Person) error { return p.CanReserve(minutes) },
		func(p *Person) { p.ApplyReserve(minutes, now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, wrapPersonErr(err)
	}
	s.emitCapacityChanged(ctx, id)
	return person, nil
}

// ReleaseThenReserve atomically swaps a person's hold. The released
// minutes return to the pool before the new reservation is checked, so a
// re-assignment is validated against the capacity left once the old hold
// is gone, and a failed check leaves the old hold untouched.
func (s *Service) ReleaseThenReserve(ctx context.Context, id domain.PersonID, releaseMinutes, reserveMinutes int) (*Person, error) {
	now := requestcontext.Now(ctx)
	person, err := s.persons.Execute(ctx, id,
		func(p *Person) error {
			if err := p.CanRelease(releaseMinutes); err != nil {
				return err
			}
			released := p.Clone()
			released.ApplyRelease(releaseMinutes, now)
			return released.CanReserve(reserveMinutes)
		},
		func(p *Person) {
			p.ApplyRelease(releaseMinutes, now)
			p.ApplyReserve(reserveMinutes, now)
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, wrapPersonErr(err)
	}
	s.emitCapacityChanged(ctx, id)
	return person, nil
}

// Release returns previously reserved minutes to the pool.
func (s *Service) Release(ctx context.Context, id domain.PersonID, minutes int) (*Person, error) {
	now := requestcontext.Now(ctx)
	person, err := s.persons.Execute(ctx, id,
		func(p *Person) error { return p.CanRelease(minutes) },
		func(p *Person) { p.ApplyRelease(minutes, now) },
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, wrapPersonErr(err)
	}
	s.metrics.IncrementCapacityReleased()
	s.emitCapacityChanged(ctx, id)
	return person, nil
}

func (s *Service) emitCapacityChanged(ctx context.Context, id domain.PersonID) {
	event := events.CapacityChanged(id, requestcontext.Now(ctx))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "capacity event publish failed",
			"person_id", id,
			"error", err,
		)
	}
}

func wrapPersonErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "unknown person")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "person was modified concurrently, please retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "ledger store failure")
	}
}
