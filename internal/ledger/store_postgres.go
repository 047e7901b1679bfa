package ledger

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

const personColumns = "id, role, name, assigned_minutes, used_minutes, version, created_at, updated_at"

// Postgres is the pgx-backed ledger store. Execute serializes per-person
// commits with SELECT ... FOR UPDATE; Update uses an optimistic version
// check for the non-contended paths.
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

func (s *Postgres) Create(ctx context.Context, person *Person) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO persons (id, role, name, assigned_minutes, used_minutes, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		uuid.UUID(person.ID), string(person.Role), person.Name,
		person.AssignedMinutes, person.UsedMinutes, person.Version,
		person.CreatedAt, person.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.PersonID) (*Person, error) {
	row := s.q(ctx).QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, uuid.UUID(id))
	return scanPerson(row)
}

func (s *Postgres) List(ctx context.Context) ([]*Person, error) {
	return s.list(ctx, psql.Select(personColumns).From("persons").OrderBy("created_at"))
}

func (s *Postgres) ListByRole(ctx context.Context, role domain.Role) ([]*Person, error) {
	return s.list(ctx, psql.Select(personColumns).From("persons").
		Where(sq.Eq{"role": string(role)}).OrderBy("created_at"))
}

func (s *Postgres) list(ctx context.Context, builder sq.SelectBuilder) ([]*Person, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build person query: %w", err)
	}
	rows, err := s.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query persons: %w", err)
	}
	defer rows.Close()

	var out []*Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return out, nil
}

func (s *Postgres) Update(ctx context.Context, person *Person) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE persons
		SET role = $1, name = $2, assigned_minutes = $3, used_minutes = $4,
		    version = version + 1, updated_at = $5
		WHERE id = $6 AND version = $7
	`,
		string(person.Role), person.Name, person.AssignedMinutes, person.UsedMinutes,
		person.UpdatedAt, uuid.UUID(person.ID), person.Version,
	)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a stale version from a missing row.
		if _, err := s.FindByID(ctx, person.ID); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	person.Version++
	return nil
}

// Delete removes a person only while no assignment holds their minutes.
func (s *Postgres) Delete(ctx context.Context, id domain.PersonID) error {
	tag, err := s.q(ctx).Exec(ctx,
		`DELETE FROM persons WHERE id = $1 AND used_minutes = 0`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.FindByID(ctx, id); errors.Is(err, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

// Execute locks the person row, runs validate then mutate on the loaded
// state, and persists the result. When the context already carries a
// transaction the lock joins it, so a multi-entity commit stays atomic.
func (s *Postgres) Execute(ctx context.Context, id domain.PersonID, validate func(*Person) error, mutate func(*Person)) (*Person, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeIn(ctx, tx, id, validate, mutate)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	person, err := s.executeIn(ctx, tx, id, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return person, nil
}

func (s *Postgres) executeIn(ctx context.Context, tx pgx.Tx, id domain.PersonID, validate func(*Person) error, mutate func(*Person)) (*Person, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1 FOR UPDATE`, uuid.UUID(id))
	person, err := scanPerson(row)
	if err != nil {
		return nil, err
	}

	if err := validate(person); err != nil {
		return nil, err
	}
	mutate(person)
	person.Version++

	_, err = tx.Exec(ctx, `
		UPDATE persons
		SET role = $1, name = $2, assigned_minutes = $3, used_minutes = $4,
		    version = $5, updated_at = $6
		WHERE id = $7
	`,
		string(person.Role), person.Name, person.AssignedMinutes, person.UsedMinutes,
		person.Version, person.UpdatedAt, uuid.UUID(person.ID),
	)
	if err != nil {
		return nil, fmt.Errorf("persist person mutation: %w", err)
	}
	return person, nil
}

func scanPerson(row pgx.Row) (*Person, error) {
	var (
		person Person
		id     uuid.UUID
		role   string
	)
	err := row.Scan(&id, &role, &person.Name, &person.AssignedMinutes, &person.UsedMinutes,
		&person.Version, &person.CreatedAt, &person.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	person.ID = domain.PersonID(id)
	person.Role = domain.Role(role)
	return &person, nil
}
