package visit

import (
	"context"
	"log/slog"

	"fieldsafe/internal/events"
	"fieldsafe/internal/platform/metrics"
	"fieldsafe/internal/worksite"
	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
	"fieldsafe/pkg/requestcontext"
)

// WorksiteDirectory is the slice of the worksite service the calendar
// needs: existence, approval state, and the tracking field expert.
type WorksiteDirectory interface {
	GetWorksite(ctx context.Context, id domain.WorksiteID) (*worksite.Worksite, error)
}

// Broadcaster pushes committed calendar writes to live viewers.
type Broadcaster interface {
	Broadcast(ctx context.Context, event events.Event)
}

// LocalBroadcaster delivers updates to the in-process hub only. Used when
// Redis is not configured.
type LocalBroadcaster struct {
	hub *Hub
}

func NewLocalBroadcaster(hub *Hub) *LocalBroadcaster {
	return &LocalBroadcaster{hub: hub}
}

func (b *LocalBroadcaster) Broadcast(_ context.Context, event events.Event) {
	b.hub.Broadcast(event)
}

// Service owns calendar reads and writes.
type Service struct {
	records     Store
	worksites   WorksiteDirectory
	logger      *slog.Logger
	metrics     *metrics.Metrics
	publisher   events.Publisher
	broadcaster Broadcaster
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

func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

func NewService(records Store, worksites WorksiteDirectory, opts ...Option) *Service {
	s := &Service{
		records:   records,
		worksites: worksites,
		logger:    slog.Default(),
		publisher: events.NopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// YearView returns the twelve-month calendar for a worksite. Months with
// no record read as not visited. The view stays readable whatever the
// approval status, so a revert hides nothing that was already tracked.
func (s *Service) YearView(ctx context.Context, worksiteID domain.WorksiteID, year int) (*YearView, error) {
	if year < 2000 || year > 2100 {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "year out of range: %d", year)
	}
	if _, err := s.worksites.GetWorksite(ctx, worksiteID); err != nil {
		return nil, err
	}

	records, err := s.records.ListByYear(ctx, worksiteID, year)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load visit records")
	}

	visited := make(map[domain.Month]bool, len(records))
	for _, record := range records {
		visited[record.Month] = record.Visited
	}

	view := &YearView{WorksiteID: worksiteID, Year: year, Months: make([]MonthStatus, 0, 12)}
	for _, month := range domain.MonthsOfYear(year) {
		view.Months = append(view.Months, MonthStatus{Month: month, Visited: visited[month]})
	}
	return view, nil
}

// SetVisitStatus records whether the tracked month was visited. The write
// is an idempotent upsert: repeating it with the same value changes
// nothing, and either direction of change is allowed.
//
// Writes require an approved worksite with an assigned field expert; that
// expert (or an admin) is the only actor who may record.
func (s *Service) SetVisitStatus(ctx context.Context, worksiteID domain.WorksiteID, month domain.Month, visited bool) (*Record, error) {
	if !month.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "month must be in YYYY-MM form, got %q", month)
	}

	w, err := s.worksites.GetWorksite(ctx, worksiteID)
	if err != nil {
		return nil, err
	}
	if !w.IsApproved() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "worksite is not approved for visit tracking")
	}
	tracker, ok := w.TrackedBy()
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no field expert assigned to track visits")
	}

	// Transport-level auth populates the actor; an empty actor is an
	// internal caller and passes.
	actorID := requestcontext.ActorID(ctx)
	if actorID != "" && requestcontext.ActorRole(ctx) != "admin" && actorID != tracker.String() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the assigned field expert may record visits")
	}

	// Attribute the write to whoever performed it; internal callers with
	// no actor fall back to the tracking expert.
	recordedBy := tracker
	if id, parseErr := domain.ParsePersonID(actorID); parseErr == nil {
		recordedBy = id
	}

	now := requestcontext.Now(ctx)
	record := &Record{
		WorksiteID: worksiteID,
		Month:      month,
		Visited:    visited,
		RecordedBy: recordedBy,
		UpdatedAt:  now,
	}
	if err := s.records.Upsert(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist visit record")
	}

	s.metrics.IncrementVisitWrite()
	event := events.VisitStatusChanged(worksiteID, month, visited, now)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "visit event publish failed",
			"worksite_id", worksiteID,
			"month", month,
			"error", err,
		)
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(ctx, event)
	}

	s.logger.InfoContext(ctx, "visit status recorded",
		"worksite_id", worksiteID,
		"month", month,
		"visited", visited,
		"actor_id", actorID,
	)
	return record, nil
}
