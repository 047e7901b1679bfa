package worksite

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/sentinel"
	txcontext "fieldsafe/pkg/platform/tx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// The three personnel slots are explicit column pairs rather than a jsonb
// blob so the slot layout shows up in the schema and in constraints.
const worksiteColumns = `id, name, risk_tier, employee_count, status,
	field_expert_id, field_expert_minutes,
	physician_id, physician_minutes,
	safety_support_id, safety_support_minutes,
	version, created_at, updated_at`

// Postgres is the pgx-backed worksite store.
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

func (s *Postgres) Create(ctx context.Context, w *Worksite) error {
	args := slotArgs(w)
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO worksites (id, name, risk_tier, employee_count, status,
			field_expert_id, field_expert_minutes,
			physician_id, physician_minutes,
			safety_support_id, safety_support_minutes,
			version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		uuid.UUID(w.ID), w.Name, string(w.RiskTier), w.EmployeeCount, string(w.Status),
		args.fieldExpertID, args.fieldExpertMinutes,
		args.physicianID, args.physicianMinutes,
		args.safetySupportID, args.safetySupportMinutes,
		w.Version, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert worksite: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.WorksiteID) (*Worksite, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+worksiteColumns+` FROM worksites WHERE id = $1`, uuid.UUID(id))
	return scanWorksite(row)
}

// FindByIDForUpdate locks the worksite row for the duration of the
// surrounding transaction. Callers must run inside one.
func (s *Postgres) FindByIDForUpdate(ctx context.Context, id domain.WorksiteID) (*Worksite, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+worksiteColumns+` FROM worksites WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	return scanWorksite(row)
}

func (s *Postgres) List(ctx context.Context) ([]*Worksite, error) {
	return s.list(ctx, psql.Select(worksiteColumns).From("worksites").OrderBy("created_at"))
}

func (s *Postgres) ListByStatus(ctx context.Context, status ApprovalStatus) ([]*Worksite, error) {
	return s.list(ctx, psql.Select(worksiteColumns).From("worksites").
		Where(sq.Eq{"status": string(status)}).OrderBy("created_at"))
}

func (s *Postgres) list(ctx context.Context, builder sq.SelectBuilder) ([]*Worksite, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build worksite query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query worksites: %w", err)
	}
	defer rows.Close()

	var out []*Worksite
	for rows.Next() {
		w, err := scanWorksite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate worksites: %w", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, w *Worksite) error {
	args := slotArgs(w)
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE worksites
		SET name = $1, risk_tier = $2, employee_count = $3, status = $4,
		    field_expert_id = $5, field_expert_minutes = $6,
		    physician_id = $7, physician_minutes = $8,
		    safety_support_id = $9, safety_support_minutes = $10,
		    version = version + 1, updated_at = $11
		WHERE id = $12 AND version = $13
	`,
		w.Name, string(w.RiskTier), w.EmployeeCount, string(w.Status),
		args.fieldExpertID, args.fieldExpertMinutes,
		args.physicianID, args.physicianMinutes,
		args.safetySupportID, args.safetySupportMinutes,
		w.UpdatedAt, uuid.UUID(w.ID), w.Version,
	)
	if err != nil {
		return fmt.Errorf("update worksite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.FindByID(ctx, w.ID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	w.Version++
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.WorksiteID) error {
	tag, err := s.q(ctx).Exec(ctx,
		`DELETE FROM worksites WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete worksite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// row args for the three nullable slot column pairs.
type slotColumns struct {
	fieldExpertID        *uuid.UUID
	fieldExpertMinutes   int
	physicianID          *uuid.UUID
	physicianMinutes     int
	safetySupportID      *uuid.UUID
	safetySupportMinutes int
}

func slotArgs(w *Worksite) slotColumns {
	var args slotColumns
	if a := w.Assignment(domain.RoleFieldExpert); a != nil {
		id := uuid.UUID(a.PersonID)
		args.fieldExpertID, args.fieldExpertMinutes = &id, a.Minutes
	}
	if a := w.Assignment(domain.RolePhysician); a != nil {
		id := uuid.UUID(a.PersonID)
		args.physicianID, args.physicianMinutes = &id, a.Minutes
	}
	if a := w.Assignment(domain.RoleSafetySupport); a != nil {
		id := uuid.UUID(a.PersonID)
		args.safetySupportID, args.safetySupportMinutes = &id, a.Minutes
	}
	return args
}

func scanWorksite(row pgx.Row) (*Worksite, error) {
	var (
		w      Worksite
		id     uuid.UUID
		tier   string
		status string
		slots  slotColumns
	)
	err := row.Scan(&id, &w.Name, &tier, &w.EmployeeCount, &status,
		&slots.fieldExpertID, &slots.fieldExpertMinutes,
		&slots.physicianID, &slots.physicianMinutes,
		&slots.safetySupportID, &slots.safetySupportMinutes,
		&w.Version, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan worksite: %w", err)
	}

	w.ID = domain.WorksiteID(id)
	w.RiskTier = domain.RiskTier(tier)
	w.Status = ApprovalStatus(status)
	w.Assignments = map[domain.Role]*Assignment{}
	if slots.fieldExpertID != nil {
		w.Assignments[domain.RoleFieldExpert] = &Assignment{
			PersonID: domain.PersonID(*slots.fieldExpertID), Minutes: slots.fieldExpertMinutes}
	}
	if slots.physicianID != nil {
		w.Assignments[domain.RolePhysician] = &Assignment{
			PersonID: domain.PersonID(*slots.physicianID), Minutes: slots.physicianMinutes}
	}
	if slots.safetySupportID != nil {
		w.Assignments[domain.RoleSafetySupport] = &Assignment{
			PersonID: domain.PersonID(*slots.safetySupportID), Minutes: slots.safetySupportMinutes}
	}
	return &w, nil
}
