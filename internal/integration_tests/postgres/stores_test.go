//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldsafe/internal/ledger"
	"fieldsafe/internal/visit"
	"fieldsafe/internal/worksite"
	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/sentinel"
	"fieldsafe/pkg/testutil/containers"
)

func TestPostgresStores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()

	persons := ledger.NewPostgres(pc.Pool)
	worksites := worksite.NewPostgres(pc.Pool)
	records := visit.NewPostgres(pc.Pool)

	t.Run("person round-trip and duplicate create", func(t *testing.T) {
		require.NoError(t, pc.TruncateAll(ctx))

		person, err := ledger.NewPerson(domain.NewPersonID(), domain.RoleFieldExpert, "Vera Lindgren", 1000, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, persons.Create(ctx, person))

		found, err := persons.FindByID(ctx, person.ID)
		require.NoError(t, err)
		assert.Equal(t, person.ID, found.ID)
		assert.Equal(t, domain.RoleFieldExpert, found.Role)
		assert.Equal(t, 1000, found.AssignedMinutes)
		assert.Equal(t, 0, found.UsedMinutes)

		err = persons.Create(ctx, person)
		assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	})

	t.Run("execute serializes a reservation", func(t *testing.T) {
		require.NoError(t, pc.TruncateAll(ctx))

		person, err := ledger.NewPerson(domain.NewPersonID(), domain.RolePhysician, "Ola Berg", 500, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, persons.Create(ctx, person))

		updated, err := persons.Execute(ctx, person.ID,
			func(p *ledger.Person) error { return p.CanReserve(300) },
			func(p *ledger.Person) { p.ApplyReserve(300, time.Now().UTC()) },
		)
		require.NoError(t, err)
		assert.Equal(t, 300, updated.UsedMinutes)
		assert.Equal(t, 200, updated.RemainingMinutes())

		_, err = persons.Execute(ctx, person.ID,
			func(p *ledger.Person) error { return p.CanReserve(300) },
			func(p *ledger.Person) { p.ApplyReserve(300, time.Now().UTC()) },
		)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient capacity: required 300, available 200")
	})

	t.Run("worksite optimistic update detects staleness", func(t *testing.T) {
		require.NoError(t, pc.TruncateAll(ctx))

		site, err := worksite.NewWorksite(domain.NewWorksiteID(), "Harbor Depot", domain.RiskTierDangerous, 15, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, worksites.Create(ctx, site))

		fresh, err := worksites.FindByID(ctx, site.ID)
		require.NoError(t, err)
		stale := fresh.Clone()

		fresh.ApplyStatus(worksite.StatusApproved, time.Now().UTC())
		require.NoError(t, worksites.Update(ctx, fresh))

		stale.ApplyStatus(worksite.StatusPendingApproval, time.Now().UTC())
		err = worksites.Update(ctx, stale)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("worksite slots persist assignments", func(t *testing.T) {
		require.NoError(t, pc.TruncateAll(ctx))

		person, err := ledger.NewPerson(domain.NewPersonID(), domain.RoleFieldExpert, "Vera Lindgren", 1000, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, persons.Create(ctx, person))

		site, err := worksite.NewWorksite(domain.NewWorksiteID(), "Steelworks", domain.RiskTierVeryDangerous, 20, time.Now().UTC())
		require.NoError(t, err)
		site.SetAssignment(domain.RoleFieldExpert, person.ID, 800, time.Now().UTC())
		require.NoError(t, worksites.Create(ctx, site))

		found, err := worksites.FindByID(ctx, site.ID)
		require.NoError(t, err)
		slot := found.Assignment(domain.RoleFieldExpert)
		require.NotNil(t, slot)
		assert.Equal(t, person.ID, slot.PersonID)
		assert.Equal(t, 800, slot.Minutes)
		assert.Nil(t, found.Assignment(domain.RolePhysician))
	})

	t.Run("visit upsert is idempotent and scoped by year", func(t *testing.T) {
		require.NoError(t, pc.TruncateAll(ctx))

		site, err := worksite.NewWorksite(domain.NewWorksiteID(), "Sawmill", domain.RiskTierLow, 5, time.Now().UTC())
		require.NoError(t, err)
		require.NoError(t, worksites.Create(ctx, site))

		record := &visit.Record{
			WorksiteID: site.ID,
			Month:      domain.Month("2026-03"),
			Visited:    true,
			UpdatedAt:  time.Now().UTC(),
		}
		require.NoError(t, records.Upsert(ctx, record))

		record.Visited = false
		require.NoError(t, records.Upsert(ctx, record))

		found, err := records.Find(ctx, site.ID, domain.Month("2026-03"))
		require.NoError(t, err)
		assert.False(t, found.Visited)

		otherYear := &visit.Record{
			WorksiteID: site.ID,
			Month:      domain.Month("2025-12"),
			Visited:    true,
			UpdatedAt:  time.Now().UTC(),
		}
		require.NoError(t, records.Upsert(ctx, otherYear))

		listed, err := records.ListByYear(ctx, site.ID, 2026)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, domain.Month("2026-03"), listed[0].Month)
	})
}
