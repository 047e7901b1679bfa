package visit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fieldsafe/internal/events"
	"fieldsafe/internal/ledger"
	"fieldsafe/internal/worksite"
	"fieldsafe/pkg/domain"
	dErrors "fieldsafe/pkg/domain-errors"
	txcontext "fieldsafe/pkg/platform/tx"
	"fieldsafe/pkg/requestcontext"
)

type VisitServiceSuite struct {
	suite.Suite
	capacity  *ledger.Service
	worksites *worksite.Service
	publisher *events.MemoryPublisher
	hub       *Hub
	service   *Service
	ctx       context.Context
}

func (s *VisitServiceSuite) SetupTest() {
	s.capacity = ledger.NewService(ledger.NewInMemory())
	s.worksites = worksite.NewService(worksite.NewInMemory(), s.capacity, txcontext.NewMemoryRunner())
	s.publisher = events.NewMemoryPublisher()
	s.hub = NewHub()
	s.service = NewService(NewInMemory(), s.worksites,
		WithPublisher(s.publisher),
		WithBroadcaster(NewLocalBroadcaster(s.hub)),
	)
	s.ctx = context.Background()
}

func TestVisitServiceSuite(t *testing.T) {
	suite.Run(t, new(VisitServiceSuite))
}

// approvedWorksite builds an approved worksite with a tracking field
// expert and returns both.
func (s *VisitServiceSuite) approvedWorksite() (*worksite.Worksite, *ledger.Person) {
	expert, err := s.capacity.CreatePerson(s.ctx, domain.RoleFieldExpert, "Expert", 1000)
	s.Require().NoError(err)

	w, err := s.worksites.CreateWorksite(s.ctx, "Plant", domain.RiskTierLow, 10)
	s.Require().NoError(err)

	_, err = s.worksites.Assign(s.ctx, w.ID, domain.RoleFieldExpert, expert.ID)
	s.Require().NoError(err)

	w, err = s.worksites.SetApprovalStatus(s.ctx, w.ID, worksite.StatusApproved)
	s.Require().NoError(err)
	return w, expert
}

func (s *VisitServiceSuite) TestYearView() {
	s.Run("unrecorded months read as not visited", func() {
		w, _ := s.approvedWorksite()

		view, err := s.service.YearView(s.ctx, w.ID, 2026)
		s.Require().NoError(err)
		s.Require().Len(view.Months, 12)
		for _, m := range view.Months {
			s.False(m.Visited)
		}
		s.Equal(domain.Month("2026-01"), view.Months[0].Month)
		s.Equal(domain.Month("2026-12"), view.Months[11].Month)
	})

	s.Run("recorded months show through", func() {
		w, _ := s.approvedWorksite()

		_, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-03", true)
		s.Require().NoError(err)

		view, err := s.service.YearView(s.ctx, w.ID, 2026)
		s.Require().NoError(err)
		s.True(view.Months[2].Visited)
		s.False(view.Months[3].Visited)
	})

	s.Run("unknown worksite is rejected", func() {
		_, err := s.service.YearView(s.ctx, domain.NewWorksiteID(), 2026)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeNotFound))
	})

	s.Run("year out of range is rejected", func() {
		w, _ := s.approvedWorksite()
		_, err := s.service.YearView(s.ctx, w.ID, 1899)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})
}

func (s *VisitServiceSuite) TestSetVisitStatus() {
	s.Run("repeating a write changes nothing", func() {
		w, _ := s.approvedWorksite()

		first, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-05", true)
		s.Require().NoError(err)
		second, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-05", true)
		s.Require().NoError(err)
		s.Equal(first.Visited, second.Visited)

		view, err := s.service.YearView(s.ctx, w.ID, 2026)
		s.Require().NoError(err)
		s.True(view.Months[4].Visited)
	})

	s.Run("a visited month can be marked unvisited again", func() {
		w, _ := s.approvedWorksite()

		_, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-05", true)
		s.Require().NoError(err)
		_, err = s.service.SetVisitStatus(s.ctx, w.ID, "2026-05", false)
		s.Require().NoError(err)

		view, err := s.service.YearView(s.ctx, w.ID, 2026)
		s.Require().NoError(err)
		s.False(view.Months[4].Visited)
	})

	s.Run("rejects an unapproved worksite", func() {
		expert, err := s.capacity.CreatePerson(s.ctx, domain.RoleFieldExpert, "Expert", 1000)
		s.Require().NoError(err)
		w, err := s.worksites.CreateWorksite(s.ctx, "Plant", domain.RiskTierLow, 10)
		s.Require().NoError(err)
		_, err = s.worksites.Assign(s.ctx, w.ID, domain.RoleFieldExpert, expert.ID)
		s.Require().NoError(err)

		_, err = s.service.SetVisitStatus(s.ctx, w.ID, "2026-01", true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects a worksite without a field expert", func() {
		w, err := s.worksites.CreateWorksite(s.ctx, "Plant", domain.RiskTierLow, 10)
		s.Require().NoError(err)
		_, err = s.worksites.SetApprovalStatus(s.ctx, w.ID, worksite.StatusApproved)
		s.Require().NoError(err)

		_, err = s.service.SetVisitStatus(s.ctx, w.ID, "2026-01", true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadRequest))
	})

	s.Run("rejects an invalid month", func() {
		w, _ := s.approvedWorksite()
		_, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-13", true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidInput))
	})

	s.Run("only the tracking expert or an admin may record", func() {
		w, expert := s.approvedWorksite()

		stranger := requestcontext.WithActorID(s.ctx, domain.NewPersonID().String())
		_, err := s.service.SetVisitStatus(stranger, w.ID, "2026-02", true)
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeForbidden))

		owner := requestcontext.WithActorID(s.ctx, expert.ID.String())
		_, err = s.service.SetVisitStatus(owner, w.ID, "2026-02", true)
		s.Require().NoError(err)

		admin := requestcontext.WithActorRole(
			requestcontext.WithActorID(s.ctx, "ops-admin"), "admin")
		_, err = s.service.SetVisitStatus(admin, w.ID, "2026-02", false)
		s.Require().NoError(err)
	})

	s.Run("attributes the record to the acting operator", func() {
		w, expert := s.approvedWorksite()

		owner := requestcontext.WithActorID(s.ctx, expert.ID.String())
		record, err := s.service.SetVisitStatus(owner, w.ID, "2026-04", true)
		s.Require().NoError(err)
		s.Equal(expert.ID, record.RecordedBy)

		adminID := domain.NewPersonID()
		admin := requestcontext.WithActorRole(
			requestcontext.WithActorID(s.ctx, adminID.String()), "admin")
		record, err = s.service.SetVisitStatus(admin, w.ID, "2026-04", false)
		s.Require().NoError(err)
		s.Equal(adminID, record.RecordedBy)

		// Internal callers carry no actor and fall back to the tracker.
		record, err = s.service.SetVisitStatus(s.ctx, w.ID, "2026-04", true)
		s.Require().NoError(err)
		s.Equal(expert.ID, record.RecordedBy)
	})

	s.Run("emits and broadcasts the calendar event", func() {
		w, _ := s.approvedWorksite()

		ch, cancel := s.hub.Subscribe(w.ID)
		defer cancel()

		before := len(s.publisher.Events())
		_, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-07", true)
		s.Require().NoError(err)

		published := s.publisher.Events()
		s.Require().Len(published, before+1)
		last := published[len(published)-1]
		s.Equal(events.TypeVisitStatusChanged, last.Type)
		s.Equal(domain.Month("2026-07"), last.Month)
		s.True(last.Visited)

		select {
		case got := <-ch:
			s.Equal(w.ID, got.WorksiteID)
			s.True(got.Visited)
		default:
			s.Fail("expected a broadcast on the subscription channel")
		}
	})
}

func (s *VisitServiceSuite) TestRecordsSurviveApprovalRevert() {
	w, _ := s.approvedWorksite()

	_, err := s.service.SetVisitStatus(s.ctx, w.ID, "2026-04", true)
	s.Require().NoError(err)

	_, err = s.worksites.SetApprovalStatus(s.ctx, w.ID, worksite.StatusPendingApproval)
	s.Require().NoError(err)

	// Writes are gated on approval, reads are not.
	_, err = s.service.SetVisitStatus(s.ctx, w.ID, "2026-06", true)
	s.Require().Error(err)

	view, err := s.service.YearView(s.ctx, w.ID, 2026)
	s.Require().NoError(err)
	s.True(view.Months[3].Visited)

	// Re-approval picks the calendar back up where it was.
	_, err = s.worksites.SetApprovalStatus(s.ctx, w.ID, worksite.StatusApproved)
	s.Require().NoError(err)
	_, err = s.service.SetVisitStatus(s.ctx, w.ID, "2026-06", true)
	s.Require().NoError(err)

	view, err = s.service.YearView(s.ctx, w.ID, 2026)
	s.Require().NoError(err)
	s.True(view.Months[3].Visited)
	s.True(view.Months[5].Visited)
}
