package services

import (
	"context"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// activePlan creates a one-day plan for tomorrow, saves it and lets a day pass.
func activePlan(t *testing.T, e *env) *domain.Plan {
	t.Helper()
	ctx := context.Background()

	draft := createDraft(t, e)
	_, err := e.lifecycle.SaveDraft(ctx, traveler, draft.Plan.ID)
	require.NoError(t, err)

	e.clock.advanceDays(1)
	res, err := e.lifecycle.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, res.Activated)

	p, err := e.store.Plans().GetPlan(ctx, draft.Plan.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PlanActivated, p.Status)
	return p
}

func TestSaveDraftCopiesPlannedTimeline(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	draft := createDraft(t, e)

	plan, err := e.lifecycle.SaveDraft(ctx, traveler, draft.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanPlanned, plan.Status)
	require.NotNil(t, plan.ActualCost)
	assert.Equal(t, draft.Plan.EstimatedCost, *plan.ActualCost)
	require.NotNil(t, plan.ActualStayDestinationID)
	assert.Equal(t, "H", *plan.ActualStayDestinationID)

	detail, err := e.queries.Get(ctx, traveler, plan.ID)
	require.NoError(t, err)
	require.Len(t, detail.Actual, len(detail.Planned))
	for i := range detail.Planned {
		p, a := detail.Planned[i], detail.Actual[i]
		assert.NotEqual(t, p.ID, a.ID)
		assert.False(t, a.IsPlan)
		assert.Equal(t, p.DestinationID, a.DestinationID)
		assert.Equal(t, p.Arrival, a.Arrival)
		assert.Equal(t, p.Leg, a.Leg)
	}

	_, err = e.lifecycle.SaveDraft(ctx, traveler, plan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSaveDraftRollsBackWhenADestinationClosed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	draft := createDraft(t, e)
	require.True(t, e.store.SetDestinationStatus("B", domain.DestinationClosed))

	_, err := e.lifecycle.SaveDraft(ctx, traveler, draft.Plan.ID)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, domain.Message(err), "Place B")

	p, err := e.store.Plans().GetPlan(ctx, draft.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanDraft, p.Status)
	actual, err := e.store.Plans().ListItems(ctx, ports.ItemFilter{PlanID: p.ID, IsPlan: boolPtr(false)})
	require.NoError(t, err)
	assert.Empty(t, actual)
}

func TestSaveDraftMustStartInTheFuture(t *testing.T) {
	e := newEnv(t)
	draft := createDraft(t, e)
	e.clock.advanceDays(1)

	_, err := e.lifecycle.SaveDraft(context.Background(), traveler, draft.Plan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSweepActivatesThenSkips(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := activePlan(t, e)

	res, err := e.lifecycle.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res, "second sweep on the same day changes nothing")

	// ToDate is today-1: still open for check-in.
	e.clock.advanceDays(1)
	res, err = e.lifecycle.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)

	// ToDate is today-2: abandoned.
	e.clock.advanceDays(1)
	res, err = e.lifecycle.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	stored, err := e.store.Plans().GetPlan(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanSkipped, stored.Status)
}

func TestCheckInRecordsVisits(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := activePlan(t, e)

	a := timed("A", "08:00", "09:00")
	a.Rating = 4
	a.Comment = "lovely"
	c := timed("C", "10:00", "11:00")

	detail, err := e.lifecycle.CheckIn(ctx, traveler, p.ID, CheckInInput{
		Days: []DayInput{{Date: date(1), Stops: []StopInput{a, c}}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Actual, 2)
	assert.Equal(t, domain.ItemCheckedIn, detail.Actual[0].Status)
	require.NotNil(t, detail.Actual[0].Rating)
	assert.Equal(t, 4, *detail.Actual[0].Rating)
	require.NotNil(t, detail.Actual[0].Comment)
	assert.Equal(t, "lovely", *detail.Actual[0].Comment)
	assert.Nil(t, detail.Actual[1].Rating)
	assert.Equal(t, "C", detail.Actual[1].DestinationID)

	require.NotNil(t, detail.Plan.ActualCost)
	assert.Equal(t, 400+150+50, *detail.Plan.ActualCost)
	require.Len(t, detail.Planned, 2, "planned timeline untouched")
	assert.Equal(t, "B", detail.Planned[1].DestinationID)

	total := 75
	detail, err = e.lifecycle.CheckIn(ctx, traveler, p.ID, CheckInInput{
		StayDestinationID: domain.Null[string](),
		TotalCost:         &total,
		Days:              []DayInput{{Date: date(1), Stops: []StopInput{timed("C", "09:00", "10:00")}}},
	})
	require.NoError(t, err)
	require.Len(t, detail.Actual, 1)
	assert.Equal(t, 75, *detail.Plan.ActualCost)
	assert.Nil(t, detail.Plan.ActualStayDestinationID)
}

func TestCheckInValidation(t *testing.T) {
	cases := []struct {
		name string
		in   CheckInInput
	}{
		{"too many days", CheckInInput{Days: []DayInput{{Date: date(1)}, {Date: date(2)}}}},
		{"no days", CheckInInput{}},
		{"wrong date", CheckInInput{Days: []DayInput{{Date: date(2)}}}},
		{"rating out of range", CheckInInput{Days: []DayInput{{Date: date(1), Stops: []StopInput{{DestinationID: "A", Arrival: "08:00", Departure: "09:00", Rating: 6}}}}}},
		{"planned status", CheckInInput{Days: []DayInput{{Date: date(1), Stops: []StopInput{{DestinationID: "A", Arrival: "08:00", Departure: "09:00", Status: "Planned"}}}}}},
		{"negative cost", CheckInInput{TotalCost: new(int), Days: []DayInput{{Date: date(1)}}}},
		{"not a lodging", CheckInInput{StayDestinationID: domain.Some("A"), Days: []DayInput{{Date: date(1)}}}},
	}
	*cases[5].in.TotalCost = -1

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := newEnv(t)
			p := activePlan(t, e)

			_, err := e.lifecycle.CheckIn(context.Background(), traveler, p.ID, c.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestCheckInOnlyWhileActivated(t *testing.T) {
	e := newEnv(t)
	draft := createDraft(t, e)

	_, err := e.lifecycle.CheckIn(context.Background(), traveler, draft.Plan.ID, CheckInInput{
		Days: []DayInput{{Date: date(1)}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompleteReconcilesAndRates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := activePlan(t, e)

	a := timed("A", "08:00", "09:00")
	a.Rating = 3
	_, err := e.lifecycle.CheckIn(ctx, traveler, p.ID, CheckInInput{
		Days: []DayInput{{Date: date(1), Stops: []StopInput{a, timed("C", "10:00", "11:00")}}},
	})
	require.NoError(t, err)

	plan, err := e.lifecycle.Complete(ctx, traveler, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanCompleted, plan.Status)

	detail, err := e.queries.Get(ctx, traveler, p.ID)
	require.NoError(t, err)
	require.Len(t, detail.Planned, 2)
	require.Len(t, detail.Actual, 2)
	assert.Equal(t, domain.ItemCheckedIn, detail.Planned[0].Status, "A was visited")
	assert.Equal(t, domain.ItemSkipped, detail.Planned[1].Status, "B was not")
	assert.Equal(t, domain.ItemCheckedIn, detail.Actual[0].Status)
	assert.Equal(t, domain.ItemNew, detail.Actual[1].Status, "C was unplanned")

	dest, _ := e.store.Destination("A")
	assert.Equal(t, 3.0, dest.AvgRating)
	assert.Equal(t, 1, dest.RatingCount)

	_, err = e.lifecycle.Complete(ctx, traveler, p.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCompleteGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	draft := createDraft(t, e)
	_, err := e.lifecycle.Complete(ctx, traveler, draft.Plan.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = e.lifecycle.Complete(ctx, domain.Traveler{ID: "other"}, draft.Plan.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	long, err := e.builder.Create(ctx, traveler, PlanInput{
		Name: "Long", FromDate: date(1), ToDate: date(2),
		Days: []DayInput{{Date: date(1), Stops: stops("A")}, {Date: date(2), Stops: stops("C")}},
	})
	require.NoError(t, err)
	_, err = e.lifecycle.SaveDraft(ctx, traveler, long.Plan.ID)
	require.NoError(t, err)
	e.clock.advanceDays(1)
	_, err = e.lifecycle.Sweep(ctx)
	require.NoError(t, err)

	_, err = e.lifecycle.Complete(ctx, traveler, long.Plan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func item(dest string, day int) *domain.ItineraryItem {
	return &domain.ItineraryItem{DestinationID: dest, Date: date(day)}
}

func TestReconcilePairsOneToOne(t *testing.T) {
	planned := []*domain.ItineraryItem{item("A", 1), item("A", 1), item("B", 1)}
	actual := []*domain.ItineraryItem{item("A", 1), item("B", 2), item("D", 1)}

	Reconcile(planned, actual)

	assert.Equal(t, domain.ItemCheckedIn, planned[0].Status)
	assert.Equal(t, domain.ItemSkipped, planned[1].Status)
	assert.Equal(t, domain.ItemSkipped, planned[2].Status, "same destination on another day does not count")
	assert.Equal(t, domain.ItemCheckedIn, actual[0].Status)
	assert.Equal(t, domain.ItemNew, actual[1].Status)
	assert.Equal(t, domain.ItemNew, actual[2].Status)
}

func TestReconcileCountsMatch(t *testing.T) {
	planned := []*domain.ItineraryItem{item("A", 1)}
	actual := []*domain.ItineraryItem{item("A", 1), item("A", 1)}

	Reconcile(planned, actual)

	checked := 0
	for _, it := range append(planned, actual...) {
		if it.Status == domain.ItemCheckedIn {
			checked++
		}
	}
	assert.Equal(t, 2, checked, "one pair, two checked-in items")
	assert.Equal(t, domain.ItemNew, actual[1].Status)
}
