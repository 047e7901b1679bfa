package visit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/sentinel"
	txcontext "fieldsafe/pkg/platform/tx"
)

// Postgres is the pgx-backed calendar store. Upsert leans on the
// (worksite_id, month) primary key.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Postgres) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

func (s *Postgres) Upsert(ctx context.Context, record *Record) error {
	var recordedBy *uuid.UUID
	if !record.RecordedBy.IsNil() {
		id := uuid.UUID(record.RecordedBy)
		recordedBy = &id
	}

	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO visit_records (worksite_id, month, visited, recorded_by, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (worksite_id, month)
		DO UPDATE SET visited = EXCLUDED.visited,
		              recorded_by = EXCLUDED.recorded_by,
		              updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(record.WorksiteID), string(record.Month), record.Visited,
		recordedBy, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert visit record: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, worksiteID domain.WorksiteID, month domain.Month) (*Record, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT worksite_id, month, visited, recorded_by, updated_at
		FROM visit_records
		WHERE worksite_id = $1 AND month = $2
	`, uuid.UUID(worksiteID), string(month))
	return scanRecord(row)
}

func (s *Postgres) ListByYear(ctx context.Context, worksiteID domain.WorksiteID, year int) ([]*Record, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT worksite_id, month, visited, recorded_by, updated_at
		FROM visit_records
		WHERE worksite_id = $1 AND month >= $2 AND month <= $3
		ORDER BY month
	`, uuid.UUID(worksiteID), fmt.Sprintf("%04d-01", year), fmt.Sprintf("%04d-12", year))
	if err != nil {
		return nil, fmt.Errorf("query visit records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit records: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		record     Record
		worksiteID uuid.UUID
		month      string
		recordedBy *uuid.UUID
	)
	err := row.Scan(&worksiteID, &month, &record.Visited, &recordedBy, &record.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan visit record: %w", err)
	}
	record.WorksiteID = domain.WorksiteID(worksiteID)
	record.Month = domain.Month(month)
	if recordedBy != nil {
		record.RecordedBy = domain.PersonID(*recordedBy)
	}
	return &record, nil
}
