package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	txcontext "fieldsafe/pkg/platform/tx"
)

// OutboxEntry is a pending event row awaiting delivery.
type OutboxEntry struct {
	ID        uuid.UUID
	Event     Event
	CreatedAt time.Time
}

// OutboxStore persists events for asynchronous delivery. Append joins the
// caller's transaction when one is in context, which is what makes commit
// and notification atomic.
type OutboxStore interface {
	Append(ctx context.Context, event Event) error
	NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// OutboxRecorder implements Publisher by writing to the outbox instead of
// the wire. The outbox worker owns actual delivery.
type OutboxRecorder struct {
	store OutboxStore
}

func NewOutboxRecorder(store OutboxStore) *OutboxRecorder {
	return &OutboxRecorder{store: store}
}

func (r *OutboxRecorder) Publish(ctx context.Context, event Event) error {
	return r.store.Append(ctx, event)
}

// -----------------------------------------------------------------------------
// In-memory outbox
// -----------------------------------------------------------------------------

// MemoryOutbox is the single-process outbox used in tests and memory-backed
// deployments.
type MemoryOutbox struct {
	mu      sync.Mutex
	pending []OutboxEntry
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (o *MemoryOutbox) Append(_ context.Context, event Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, OutboxEntry{ID: uuid.New(), Event: event, CreatedAt: time.Now()})
	return nil
}

func (o *MemoryOutbox) NextBatch(_ context.Context, limit int) ([]OutboxEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if limit > len(o.pending) {
		limit = len(o.pending)
	}
	batch := make([]OutboxEntry, limit)
	copy(batch, o.pending[:limit])
	return batch, nil
}

func (o *MemoryOutbox) MarkPublished(_ context.Context, ids []uuid.UUID) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	published := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		published[id] = true
	}
	remaining := o.pending[:0]
	for _, entry := range o.pending {
		if !published[entry.ID] {
			remaining = append(remaining, entry)
		}
	}
	o.pending = remaining
	return nil
}

// -----------------------------------------------------------------------------
// Postgres outbox
// -----------------------------------------------------------------------------

// PostgresOutbox stores events in the outbox table. Rows stay until marked
// published, so a crash between publish and mark re-delivers; consumers
// tolerate duplicates.
type PostgresOutbox struct {
	pool *pgxpool.Pool
}

func NewPostgresOutbox(pool *pgxpool.Pool) *PostgresOutbox {
	return &PostgresOutbox{pool: pool}
}

func (o *PostgresOutbox) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}

	query := `
		INSERT INTO outbox (id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	args := []any{uuid.New(), string(event.Type), payload, time.Now()}

	if tx, ok := txcontext.From(ctx); ok {
		_, err = tx.Exec(ctx, query, args...)
	} else {
		_, err = o.pool.Exec(ctx, query, args...)
	}
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (o *PostgresOutbox) NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error) {
	query := `
		SELECT id, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := o.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var batch []OutboxEntry
	for rows.Next() {
		var (
			entry   OutboxEntry
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		if err := json.Unmarshal(payload, &entry.Event); err != nil {
			return nil, fmt.Errorf("unmarshal outbox payload: %w", err)
		}
		batch = append(batch, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outbox: %w", err)
	}
	return batch, nil
}

func (o *PostgresOutbox) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := o.pool.Exec(ctx,
		`UPDATE outbox SET published_at = $1 WHERE id = ANY($2)`,
		time.Now(), ids,
	)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
