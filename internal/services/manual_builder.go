package services

import (
	"context"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ManualBuilder creates and updates plans from a traveler's own per-day stop lists.
type ManualBuilder struct {
	Store     ports.Store
	Distances *DistanceCache
	Calendar  Calendar
	NewID     func() string
}

func NewManualBuilder(store ports.Store, distances *DistanceCache, cal Calendar) *ManualBuilder {
	return &ManualBuilder{Store: store, Distances: distances, Calendar: cal, NewID: uuid.NewString}
}

type PlanInput struct {
	Name              string
	FromDate          time.Time
	ToDate            time.Time
	StayDestinationID *string
	IsPublic          bool
	Days              []DayInput
}

// UpdatePlanInput replaces the itinerary. Nil Name/IsPublic keep the stored
// value; StayDestinationID distinguishes absent (keep) from null (clear).
type UpdatePlanInput struct {
	Name              *string
	IsPublic          *bool
	FromDate          time.Time
	ToDate            time.Time
	StayDestinationID domain.Optional[string]
	Days              []DayInput
}

// Create validates the request and lays each day out from 08:00, one visit
// after another with travel time in between.
func (b *ManualBuilder) Create(ctx context.Context, traveler domain.Traveler, in PlanInput) (_ *PlanDetail, err error) {
	defer obs.Time(ctx, "plans.Create")(&err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.InvalidInput("plan name is required")
	}

	from, to := domain.CivilDate(in.FromDate), domain.CivilDate(in.ToDate)
	if !from.After(b.Calendar.Today()) {
		return nil, domain.InvalidInput("plan must start tomorrow or later")
	}
	if to.Before(from) {
		return nil, domain.InvalidInput("end date must not be before start date")
	}
	if len(traveler.Personalities) == 0 {
		return nil, domain.InvalidInput("please declare your travel personalities before planning")
	}

	days, err := orderDays(from, in.Days, domain.DaysBetween(from, to)+1, false)
	if err != nil {
		return nil, err
	}

	plan := &domain.Plan{
		ID:                b.NewID(),
		TravelerID:        traveler.ID,
		Name:              name,
		FromDate:          from,
		ToDate:            domain.AddDays(from, len(days)-1),
		StayDestinationID: emptyToNil(in.StayDestinationID),
		IsPublic:          in.IsPublic,
		Status:            domain.PlanDraft,
		CreatedAt:         b.Calendar.now(),
	}
	var items []*domain.ItineraryItem
	err = b.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		var err error
		items, err = b.rebuild(ctx, tx, plan, days, false)
		if err != nil {
			return err
		}
		if err := tx.Plans().CreatePlan(ctx, plan); err != nil {
			return err
		}
		return b.writeItems(ctx, tx, traveler, items)
	})
	if err != nil {
		return nil, err
	}

	return &PlanDetail{Plan: plan, Planned: items}, nil
}

// Update replaces the planned timeline of a Draft plan with caller-timed stops.
// The previous itinerary survives any failure.
func (b *ManualBuilder) Update(ctx context.Context, traveler domain.Traveler, planID string, in UpdatePlanInput) (_ *PlanDetail, err error) {
	defer obs.Time(ctx, "plans.Update")(&err)

	from, to := domain.CivilDate(in.FromDate), domain.CivilDate(in.ToDate)
	if from.Before(b.Calendar.Today()) {
		return nil, domain.InvalidInput("plan must not start in the past")
	}
	if to.Before(from) {
		return nil, domain.InvalidInput("end date must not be before start date")
	}
	if len(traveler.Personalities) == 0 {
		return nil, domain.InvalidInput("please declare your travel personalities before planning")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.InvalidInput("plan name must not be empty")
	}

	days, err := orderDays(from, in.Days, domain.DaysBetween(from, to)+1, false)
	if err != nil {
		return nil, err
	}

	var detail *PlanDetail
	err = b.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		plan, err := ownedPlan(ctx, tx, traveler, planID, domain.PlanDraft)
		if err != nil {
			return err
		}

		if in.Name != nil {
			plan.Name = strings.TrimSpace(*in.Name)
		}
		if in.IsPublic != nil {
			plan.IsPublic = *in.IsPublic
		}
		plan.StayDestinationID = emptyToNil(in.StayDestinationID.Apply(plan.StayDestinationID))
		plan.FromDate = from
		plan.ToDate = domain.AddDays(from, len(days)-1)

		if err := tx.Plans().DeleteItems(ctx, ports.ItemFilter{PlanID: plan.ID, IsPlan: boolPtr(true)}); err != nil {
			return err
		}
		items, err := b.rebuild(ctx, tx, plan, days, true)
		if err != nil {
			return err
		}
		if err := b.writeItems(ctx, tx, traveler, items); err != nil {
			return err
		}
		if err := tx.Plans().UpdatePlan(ctx, plan); err != nil {
			return err
		}

		detail = &PlanDetail{Plan: plan, Planned: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// rebuild schedules every day and sets the plan's estimated cost: the average
// price of every stop plus the lodging price for each day.
func (b *ManualBuilder) rebuild(
	ctx context.Context,
	tx ports.Store,
	plan *domain.Plan,
	days []DayInput,
	explicit bool,
) ([]*domain.ItineraryItem, error) {
	stay, err := resolveLodging(ctx, tx.Catalog(), plan.StayDestinationID)
	if err != nil {
		return nil, err
	}

	s := scheduler{catalog: tx.Catalog(), distances: b.Distances, newID: b.NewID}
	opts := dayOptions{planID: plan.ID, isPlan: true, explicitTimes: explicit, rejectLodging: explicit}

	all := make([]*domain.ItineraryItem, 0)
	cost := lodgingCost(stay, len(days))
	for _, day := range days {
		items, _, dayCost, err := s.scheduleDay(ctx, day.Date, day.Stops, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		cost += dayCost
	}
	plan.EstimatedCost = cost

	return all, nil
}

// writeItems stores the planned items and feeds the traveler's personalities
// back into each visited destination's affinity counters.
func (b *ManualBuilder) writeItems(ctx context.Context, tx ports.Store, traveler domain.Traveler, items []*domain.ItineraryItem) error {
	if err := tx.Plans().InsertItems(ctx, items); err != nil {
		return err
	}

	for _, it := range items {
		for _, p := range traveler.Personalities {
			if err := tx.Catalog().IncrementPersonalityAffinity(ctx, it.DestinationID, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
