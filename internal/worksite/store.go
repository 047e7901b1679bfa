package worksite

import (
	"context"

	"fieldsafe/pkg/domain"
)

// Store is the persistence contract for worksites.
//
// FindByIDForUpdate is the commit-path read: in the postgres store it locks
// the row for the duration of the surrounding transaction; the memory store
// relies on the transaction runner's coarse lock instead.
//
// Update is optimistic: the worksite's Version must match the stored row or
// the store returns sentinel.ErrConflict.
type Store interface {
	Create(ctx context.Context, w *Worksite) error
	FindByID(ctx context.Context, id domain.WorksiteID) (*Worksite, error)
	FindByIDForUpdate(ctx context.Context, id domain.WorksiteID) (*Worksite, error)
	List(ctx context.Context) ([]*Worksite, error)
	ListByStatus(ctx context.Context, status ApprovalStatus) ([]*Worksite, error)
	Update(ctx context.Context, w *Worksite) error
	Delete(ctx context.Context, id domain.WorksiteID) error
}
