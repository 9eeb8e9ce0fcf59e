package memory

import (
	"context"
	"errors"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time { return time.Date(2026, 10, n, 0, 0, 0, 0, time.UTC) }

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	require.NoError(t, s.Plans().CreatePlan(ctx, &domain.Plan{ID: "p1", Name: "before", Status: domain.PlanDraft}))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := tx.Plans().GetPlan(ctx, "p1")
		require.NoError(t, err)
		p.Name = "after"
		require.NoError(t, tx.Plans().UpdatePlan(ctx, p))
		require.NoError(t, tx.Plans().InsertItems(ctx, []*domain.ItineraryItem{{ID: "i1", PlanID: "p1", IsPlan: true}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := s.Plans().GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "before", p.Name)

	items, err := s.Plans().ListItems(ctx, ports.ItemFilter{PlanID: "p1"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAdvanceStatusesIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	repo := s.Plans()
	require.NoError(t, repo.CreatePlan(ctx, &domain.Plan{ID: "planned", Status: domain.PlanPlanned, FromDate: day(17), ToDate: day(18)}))
	require.NoError(t, repo.CreatePlan(ctx, &domain.Plan{ID: "future", Status: domain.PlanPlanned, FromDate: day(18), ToDate: day(19)}))
	require.NoError(t, repo.CreatePlan(ctx, &domain.Plan{ID: "stale", Status: domain.PlanActivated, FromDate: day(10), ToDate: day(15)}))

	a, sk, err := repo.AdvanceStatuses(ctx, day(17), day(15))
	require.NoError(t, err)
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, sk)

	a, sk, err = repo.AdvanceStatuses(ctx, day(17), day(15))
	require.NoError(t, err)
	assert.Zero(t, a)
	assert.Zero(t, sk)

	p, _ := repo.GetPlan(ctx, "stale")
	assert.Equal(t, domain.PlanSkipped, p.Status)
	p, _ = repo.GetPlan(ctx, "future")
	assert.Equal(t, domain.PlanPlanned, p.Status)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	require.NoError(t, s.Plans().CreatePlan(ctx, &domain.Plan{ID: "p", Status: domain.PlanDraft}))

	ok, err := s.Plans().TransitionStatus(ctx, "p", domain.PlanActivated, domain.PlanCompleted)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Plans().TransitionStatus(ctx, "p", domain.PlanDraft, domain.PlanPlanned)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecomputeRatingFloorsToOneDecimal(t *testing.T) {
	ctx := context.Background()
	s := NewStore([]*domain.Destination{{ID: "d"}})
	r1, r2, r3 := 5, 4, 4
	require.NoError(t, s.Plans().InsertItems(ctx, []*domain.ItineraryItem{
		{ID: "a", PlanID: "p", DestinationID: "d", Rating: &r1},
		{ID: "b", PlanID: "q", DestinationID: "d", Rating: &r2},
		{ID: "c", PlanID: "q", DestinationID: "d", Rating: &r3},
		{ID: "planned", PlanID: "q", DestinationID: "d", IsPlan: true, Rating: &r1},
		{ID: "unrated", PlanID: "q", DestinationID: "d"},
	}))

	r, err := s.Catalog().RecomputeRating(ctx, "d")
	require.NoError(t, err)
	assert.Equal(t, 3, r.Count)
	assert.Equal(t, 4.3, r.Avg)

	d, ok := s.Destination("d")
	require.True(t, ok)
	assert.Equal(t, 4.3, d.AvgRating)
	assert.Equal(t, 3, d.RatingCount)
}

func TestListPlansFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	s := NewStore(nil)
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, st := range []domain.PlanStatus{domain.PlanDraft, domain.PlanCompleted, domain.PlanSkipped, domain.PlanCompleted} {
		require.NoError(t, s.Plans().CreatePlan(ctx, &domain.Plan{
			ID: string(rune('a' + i)), TravelerID: "t1", Status: st, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, s.Plans().CreatePlan(ctx, &domain.Plan{ID: "other", TravelerID: "t2", Status: domain.PlanCompleted}))

	got, err := s.Plans().ListPlans(ctx, ports.PlanFilter{
		TravelerID: "t1", Statuses: []domain.PlanStatus{domain.PlanCompleted, domain.PlanSkipped}, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got, err = s.Plans().ListPlans(ctx, ports.PlanFilter{
		TravelerID: "t1", Statuses: []domain.PlanStatus{domain.PlanCompleted, domain.PlanSkipped}, Limit: 2, Offset: 2,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)
}

func TestDistanceStoreKeepsHitsOnOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewDistanceStore()
	e := domain.DistanceEntry{FromID: "a", ToID: "b", Profile: domain.ProfileDriving}
	require.NoError(t, s.PutDistance(ctx, e))
	require.NoError(t, s.IncrementHits(ctx, "a", "b", domain.ProfileDriving))
	require.NoError(t, s.PutDistance(ctx, e))

	got, ok, err := s.GetDistance(ctx, "a", "b", domain.ProfileDriving)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, got.Hits)

	_, ok, err = s.GetDistance(ctx, "b", "a", domain.ProfileDriving)
	require.NoError(t, err)
	assert.False(t, ok)
}
