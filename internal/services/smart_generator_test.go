package services

import (
	"context"
	"itinerary-planner-service/internal/adapters/memory"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tripInput() SmartPlanInput {
	return SmartPlanInput{
		Name:          "Trip",
		CityID:        "hcm",
		FromDate:      date(1),
		ToDate:        date(2),
		Start:         domain.Clock(8, 0),
		End:           domain.Clock(20, 0),
		Budget:        5000,
		DailyStayCost: 200,
	}
}

func TestGenerateProducesFeasibleAlternatives(t *testing.T) {
	e := newEnv(t)
	in := tripInput()

	alts, err := e.smart.Generate(context.Background(), traveler, in)
	require.NoError(t, err)
	require.Len(t, alts, smartAlternatives)

	names := []string{"Trip (1)", "Trip (2)", "Trip (3)"}
	for i, alt := range alts {
		p := alt.Plan
		assert.Equal(t, names[i], p.Name)
		assert.Equal(t, domain.PlanSmart, p.Status)
		assert.Equal(t, traveler.ID, p.TravelerID)
		require.NotNil(t, p.StayDestinationID)
		assert.Equal(t, "H2", *p.StayDestinationID, "only H2 fits the daily lodging cap")
		assert.LessOrEqual(t, p.EstimatedCost, in.Budget)
		assert.GreaterOrEqual(t, p.EstimatedCost, 110*2)
		require.NotEmpty(t, alt.Planned)
		assert.Equal(t, alt.Planned[len(alt.Planned)-1].Date, p.ToDate)

		seen := map[string]bool{}
		visit := map[time.Time]int{}
		var prevDate time.Time
		for _, it := range alt.Planned {
			d, ok := e.store.Destination(it.DestinationID)
			require.True(t, ok)
			assert.False(t, d.IsLodging())
			assert.False(t, seen[it.DestinationID], "destination %s placed twice", it.DestinationID)
			seen[it.DestinationID] = true

			assert.GreaterOrEqual(t, it.Arrival, d.OpeningTime, it.DestinationID)
			assert.LessOrEqual(t, it.Departure, d.ClosingTime, it.DestinationID)
			assert.GreaterOrEqual(t, it.Arrival, in.Start)
			assert.LessOrEqual(t, it.Departure, in.End)
			assert.False(t, it.Date.Before(in.FromDate))
			assert.False(t, it.Date.After(in.ToDate))

			if !it.Date.Equal(prevDate) {
				assert.Equal(t, domain.StartLeg, it.Leg, "first stop of %s", domain.FormatDate(it.Date))
			}
			prevDate = it.Date
			visit[it.Date] += d.VisitDuration
		}
		for day, minutes := range visit {
			assert.LessOrEqual(t, minutes, dailyVisitMinutes, domain.FormatDate(day))
		}
	}

	stored, err := e.store.Plans().ListPlans(context.Background(), ports.PlanFilter{
		TravelerID: traveler.ID,
		Statuses:   []domain.PlanStatus{domain.PlanSmart},
	})
	require.NoError(t, err)
	assert.Len(t, stored, smartAlternatives)
}

func TestGenerateIsDeterministicForASeed(t *testing.T) {
	run := func() []string {
		e := newEnv(t)
		alts, err := e.smart.Generate(context.Background(), traveler, tripInput())
		require.NoError(t, err)
		var ids []string
		for _, alt := range alts {
			for _, it := range alt.Planned {
				ids = append(ids, it.DestinationID+"@"+it.Arrival.String())
			}
		}
		return ids
	}

	assert.Equal(t, run(), run())
}

func TestGenerateReplacesPreviousAlternatives(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	first, err := e.smart.Generate(ctx, traveler, tripInput())
	require.NoError(t, err)
	second, err := e.smart.Generate(ctx, traveler, tripInput())
	require.NoError(t, err)

	for _, alt := range first {
		_, err := e.store.Plans().GetPlan(ctx, alt.Plan.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		items, err := e.store.Plans().ListItems(ctx, ports.ItemFilter{PlanID: alt.Plan.ID})
		require.NoError(t, err)
		assert.Empty(t, items)
	}
	for _, alt := range second {
		_, err := e.store.Plans().GetPlan(ctx, alt.Plan.ID)
		assert.NoError(t, err)
	}
}

func TestGenerateValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SmartPlanInput)
	}{
		{"more than a week", func(in *SmartPlanInput) { in.ToDate = date(8) }},
		{"short daily window", func(in *SmartPlanInput) { in.End = domain.Clock(11, 59) }},
		{"lodging over half the budget", func(in *SmartPlanInput) { in.DailyStayCost = 1500 }},
		{"starts today", func(in *SmartPlanInput) { in.FromDate = date(0) }},
		{"end before start", func(in *SmartPlanInput) { in.ToDate = date(0) }},
		{"no budget", func(in *SmartPlanInput) { in.Budget = 0 }},
		{"no city", func(in *SmartPlanInput) { in.CityID = "" }},
		{"budget below lodging", func(in *SmartPlanInput) { in.Budget = 200; in.DailyStayCost = 10 }},
		{"city without lodging", func(in *SmartPlanInput) { in.CityID = "elsewhere" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t)
			in := tripInput()
			c.mutate(&in)

			_, err := e.smart.Generate(context.Background(), traveler, in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestGenerateRequiresPersonalities(t *testing.T) {
	e := newEnv(t)
	_, err := e.smart.Generate(context.Background(), domain.Traveler{ID: "t"}, tripInput())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in := tripInput()
	in.Personalities = []string{"culture"}
	alts, err := e.smart.Generate(context.Background(), domain.Traveler{ID: "t"}, in)
	require.NoError(t, err)
	assert.NotEmpty(t, alts)
}

func TestGenerateDoesNotStartADayWithATinyPool(t *testing.T) {
	store := memory.NewStore([]*domain.Destination{
		dest("P1", domain.Clock(8, 0), domain.Clock(20, 0), 60, 10, 10, 1),
		dest("P2", domain.Clock(8, 0), domain.Clock(20, 0), 60, 10, 10, 2),
		dest("P3", domain.Clock(8, 0), domain.Clock(20, 0), 60, 10, 10, 3),
		lodging("L", 50, 50, 4),
	})
	e := newEnv(t)
	distances := NewDistanceCache(store.Catalog(), memory.NewDistanceStore(), e.provider)
	gen := NewSmartGenerator(store, distances, e.cal)
	gen.Random = NewSeededRandom(7)

	alts, err := gen.Generate(context.Background(), traveler, tripInput())
	require.NoError(t, err)
	assert.Empty(t, alts)

	plans, err := store.Plans().ListPlans(context.Background(), ports.PlanFilter{})
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestTimeFit(t *testing.T) {
	d := &domain.Destination{
		OpeningTime:   domain.Clock(9, 0),
		ClosingTime:   domain.Clock(17, 0),
		VisitDuration: 60,
		RecommendedTimes: []domain.RecommendedTime{
			{From: domain.Clock(10, 0), To: domain.Clock(12, 0), PlanCount: 1, VisitCount: 2},
		},
	}

	assert.Equal(t, 0, timeFit(d, domain.Clock(8, 30)), "before opening")
	assert.Equal(t, 1, timeFit(d, domain.Clock(13, 0)), "open, outside window")
	assert.Equal(t, 0, timeFit(d, domain.Clock(16, 0)), "visit plus buffer runs past closing")
	assert.Equal(t, 7, timeFit(d, domain.Clock(9, 30)), "overlaps the window")
	assert.Equal(t, 7, timeFit(d, domain.Clock(11, 30)))
	assert.Equal(t, 1, timeFit(d, domain.Clock(12, 0)), "window already over")
}

func TestCommitKeepsOneAlternative(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	alts, err := e.smart.Generate(ctx, traveler, tripInput())
	require.NoError(t, err)
	require.Len(t, alts, smartAlternatives)
	chosen := alts[1].Plan.ID

	_, err = e.smart.Commit(ctx, domain.Traveler{ID: "someone-else"}, chosen)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	plan, err := e.smart.Commit(ctx, traveler, chosen)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDraft, plan.Status)
	assert.Equal(t, "Trip", plan.Name)

	stored, err := e.store.Plans().GetPlan(ctx, chosen)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDraft, stored.Status)
	items, err := e.store.Plans().ListItems(ctx, ports.ItemFilter{PlanID: chosen})
	require.NoError(t, err)
	assert.Len(t, items, len(alts[1].Planned))

	for _, i := range []int{0, 2} {
		_, err := e.store.Plans().GetPlan(ctx, alts[i].Plan.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}

	_, err = e.smart.Commit(ctx, traveler, chosen)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
