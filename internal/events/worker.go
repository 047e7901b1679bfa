package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPollInterval = time.Second
	defaultBatchSize    = 100
)

// Worker drains the outbox to a downstream publisher. Entries are only
// marked published after a successful publish, so delivery is at-least-once.
type Worker struct {
	outbox    OutboxStore
	publisher Publisher
	logger    *slog.Logger

	pollInterval time.Duration
	batchSize    int
}

type WorkerOption func(*Worker)

func WithPollInterval(d time.Duration) WorkerOption {
	return func(w *Worker) { w.pollInterval = d }
}

func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) { w.batchSize = n }
}

func NewWorker(outbox OutboxStore, publisher Publisher, logger *slog.Logger, opts ...WorkerOption) *Worker {
	w := &Worker{
		outbox:       outbox,
		publisher:    publisher,
		logger:       logger,
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until the context is cancelled. Publish failures leave the entry
// in the outbox for the next tick rather than aborting the loop.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Drain(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// Drain publishes one batch. Exposed separately so tests and shutdown paths
// can flush without the ticker.
func (w *Worker) Drain(ctx context.Context) error {
	batch, err := w.outbox.NextBatch(ctx, w.batchSize)
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(batch))
	for _, entry := range batch {
		if err := w.publisher.Publish(ctx, entry.Event); err != nil {
			w.logger.WarnContext(ctx, "event publish failed, will retry",
				"event_type", entry.Event.Type,
				"error", err,
			)
			break
		}
		published = append(published, entry.ID)
	}
	return w.outbox.MarkPublished(ctx, published)
}
