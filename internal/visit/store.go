package visit

import (
	"context"

	"fieldsafe/pkg/domain"
)

// Store persists calendar records.
//
// Upsert is idempotent: writing the value a cell already holds is a no-op
// at the data level, and writing a new value overwrites it. ListByYear
// returns only the months that have records; the service fills the gaps.
type Store interface {
	Upsert(ctx context.Context, record *Record) error
	Find(ctx context.Context, worksiteID domain.WorksiteID, month domain.Month) (*Record, error)
	ListByYear(ctx context.Context, worksiteID domain.WorksiteID, year int) ([]*Record, error)
}
