package ledger

import (
	"context"

	"fieldsafe/pkg/domain"
)

// Store is the persistence contract for the capacity ledger.
//
// Execute is the atomic validate-then-mutate primitive: the implementation
// holds the person locked (mutex or SELECT FOR UPDATE) across both callbacks
// so two concurrent reservations against the same person serialize. It
// returns the mutated person after a successful persist.
//
// Update is the plain optimistic path: the person's Version must match the
// stored row or the store returns sentinel.ErrConflict.
//
// Delete refuses with sentinel.ErrInvalidState while usedMinutes > 0.
type Store interface {
	Create(ctx context.Context, person *Person) error
	FindByID(ctx context.Context, id domain.PersonID) (*Person, error)
	List(ctx context.Context) ([]*Person, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*Person, error)
	Update(ctx context.Context, person *Person) error
	Delete(ctx context.Context, id domain.PersonID) error
	Execute(ctx context.Context, id domain.PersonID, validate func(*Person) error, mutate func(*Person)) (*Person, error)
}
