package events_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fieldsafe/internal/events"
	"fieldsafe/pkg/domain"
)

type OutboxSuite struct {
	suite.Suite

	ctx    context.Context
	outbox *events.MemoryOutbox
	logger *slog.Logger
}

func TestOutboxSuite(t *testing.T) {
	suite.Run(t, new(OutboxSuite))
}

func (s *OutboxSuite) SetupTest() {
	s.ctx = context.Background()
	s.outbox = events.NewMemoryOutbox()
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *OutboxSuite) append(n int) {
	for range n {
		s.Require().NoError(s.outbox.Append(s.ctx,
			events.CapacityChanged(domain.NewPersonID(), time.Now())))
	}
}

func (s *OutboxSuite) TestNextBatchHonorsLimit() {
	s.append(5)

	batch, err := s.outbox.NextBatch(s.ctx, 3)
	s.Require().NoError(err)
	s.Len(batch, 3)

	batch, err = s.outbox.NextBatch(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(batch, 5)
}

func (s *OutboxSuite) TestMarkPublishedRemovesOnlyNamedEntries() {
	s.append(3)

	batch, err := s.outbox.NextBatch(s.ctx, 3)
	s.Require().NoError(err)

	s.Require().NoError(s.outbox.MarkPublished(s.ctx, []uuid.UUID{batch[0].ID, batch[1].ID}))

	remaining, err := s.outbox.NextBatch(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(remaining, 1)
	s.Equal(batch[2].ID, remaining[0].ID)
}

func (s *OutboxSuite) TestRecorderAppendsInsteadOfPublishing() {
	recorder := events.NewOutboxRecorder(s.outbox)
	event := events.VisitStatusChanged(domain.NewWorksiteID(), "2026-03", true, time.Now())
	s.Require().NoError(recorder.Publish(s.ctx, event))

	batch, err := s.outbox.NextBatch(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(batch, 1)
	s.Equal(events.TypeVisitStatusChanged, batch[0].Event.Type)
	s.Equal(domain.Month("2026-03"), batch[0].Event.Month)
}

func (s *OutboxSuite) TestDrainPublishesAndClears() {
	s.append(4)
	publisher := events.NewMemoryPublisher()
	worker := events.NewWorker(s.outbox, publisher, s.logger)

	s.Require().NoError(worker.Drain(s.ctx))
	s.Len(publisher.Events(), 4)

	batch, err := s.outbox.NextBatch(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(batch)
}

func (s *OutboxSuite) TestDrainRetainsEntriesAfterPublishFailure() {
	s.append(3)
	flaky := &failAfter{limit: 2}
	worker := events.NewWorker(s.outbox, flaky, s.logger)

	s.Require().NoError(worker.Drain(s.ctx))

	// Two made it out; the third stays for the next tick.
	batch, err := s.outbox.NextBatch(s.ctx, 10)
	s.Require().NoError(err)
	s.Len(batch, 1)

	flaky.limit = 10
	s.Require().NoError(worker.Drain(s.ctx))
	batch, err = s.outbox.NextBatch(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(batch)
}

func (s *OutboxSuite) TestRunDrainsOnTickUntilCancelled() {
	s.append(2)
	publisher := events.NewMemoryPublisher()
	worker := events.NewWorker(s.outbox, publisher, s.logger,
		events.WithPollInterval(5*time.Millisecond),
		events.WithBatchSize(1),
	)

	ctx, cancel := context.WithTimeout(s.ctx, 200*time.Millisecond)
	defer cancel()

	err := worker.Run(ctx)
	s.Require().ErrorIs(err, context.DeadlineExceeded)
	s.Len(publisher.Events(), 2)
}

func (s *OutboxSuite) TestMemoryPublisherSubscribeReceivesFutureEvents() {
	publisher := events.NewMemoryPublisher()
	ch := publisher.Subscribe()

	event := events.CapacityChanged(domain.NewPersonID(), time.Now())
	s.Require().NoError(publisher.Publish(s.ctx, event))

	select {
	case got := <-ch:
		s.Equal(event.PersonID, got.PersonID)
	case <-time.After(time.Second):
		s.FailNow("no event received")
	}
}

// failAfter publishes the first limit events and errors afterwards.
type failAfter struct {
	limit int
	sent  int
}

func (f *failAfter) Publish(context.Context, events.Event) error {
	if f.sent >= f.limit {
		return errors.New("broker unavailable")
	}
	f.sent++
	return nil
}
