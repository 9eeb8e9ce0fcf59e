package services

import (
	"context"
	"errors"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"

	"github.com/google/uuid"
)

// skipAfterDays is how long an Activated plan may stay unfinished past its end date.
const skipAfterDays = 2

// Lifecycle drives plans from Draft through execution to completion.
type Lifecycle struct {
	Store     ports.Store
	Distances *DistanceCache
	Calendar  Calendar
	NewID     func() string
}

func NewLifecycle(store ports.Store, distances *DistanceCache, cal Calendar) *Lifecycle {
	return &Lifecycle{Store: store, Distances: distances, Calendar: cal, NewID: uuid.NewString}
}

type SweepResult struct {
	Activated int
	Skipped   int
}

// Sweep applies the time-driven transitions: Planned plans whose start date has
// arrived become Activated, and Activated plans that ended more than two days
// ago become Skipped. Running it again without the date changing is a no-op.
func (l *Lifecycle) Sweep(ctx context.Context) (res SweepResult, err error) {
	defer obs.Time(ctx, "plans.Sweep")(&err)

	today := l.Calendar.Today()
	err = l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		var err error
		res.Activated, res.Skipped, err = tx.Plans().AdvanceStatuses(ctx, today, domain.AddDays(today, -skipAfterDays))
		return err
	})
	return res, err
}

// SaveDraft moves a Draft plan to Planned. Every planned stop is re-checked,
// its destination snapshot refreshed, and copied into the actual timeline.
func (l *Lifecycle) SaveDraft(ctx context.Context, traveler domain.Traveler, planID string) (_ *domain.Plan, err error) {
	defer obs.Time(ctx, "plans.SaveDraft")(&err)

	var plan *domain.Plan
	err = l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := ownedPlan(ctx, tx, traveler, planID, domain.PlanDraft)
		if err != nil {
			return err
		}
		if !p.FromDate.After(l.Calendar.Today()) {
			return domain.InvalidInput("plan must start tomorrow or later")
		}

		planned, err := tx.Plans().ListItems(ctx, ports.ItemFilter{PlanID: p.ID, IsPlan: boolPtr(true)})
		if err != nil {
			return err
		}

		maxDate := p.FromDate
		actual := make([]*domain.ItineraryItem, 0, len(planned))
		for _, it := range planned {
			dest, err := tx.Catalog().FindByID(ctx, it.DestinationID)
			if errors.Is(err, domain.ErrNotFound) {
				return domain.InvalidInput("destination %q no longer exists, please choose another one", it.DestinationName)
			}
			if err != nil {
				return err
			}
			if dest.Status != domain.DestinationOpen {
				return domain.InvalidInput("destination %q is closed, please choose another one", dest.Name)
			}

			it.DestinationName = dest.Name
			it.DestinationImage = dest.Image
			if err := tx.Plans().UpdateItem(ctx, it); err != nil {
				return err
			}

			c := it.Clone(l.NewID())
			c.IsPlan = false
			actual = append(actual, c)

			if it.Date.After(maxDate) {
				maxDate = it.Date
			}
		}
		if err := tx.Plans().InsertItems(ctx, actual); err != nil {
			return err
		}

		ok, err := tx.Plans().TransitionStatus(ctx, p.ID, domain.PlanDraft, domain.PlanPlanned)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("plan %q not found", planID)
		}

		p.Status = domain.PlanPlanned
		p.ToDate = maxDate
		cost := p.EstimatedCost
		p.ActualCost = &cost
		p.ActualStayDestinationID = p.StayDestinationID
		if err := tx.Plans().UpdatePlan(ctx, p); err != nil {
			return err
		}

		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// CheckInInput reports what actually happened on each day so far.
// TotalCost overrides the computed actual cost when set.
type CheckInInput struct {
	StayDestinationID domain.Optional[string]
	TotalCost         *int
	Days              []DayInput
}

// CheckIn replaces the actual timeline of every day from the start up to today
// (or the end date, if earlier) with the reported visits.
func (l *Lifecycle) CheckIn(ctx context.Context, traveler domain.Traveler, planID string, in CheckInInput) (_ *PlanDetail, err error) {
	defer obs.Time(ctx, "plans.CheckIn")(&err)

	if in.TotalCost != nil && *in.TotalCost < 0 {
		return nil, domain.InvalidInput("total cost must not be negative")
	}

	var detail *PlanDetail
	err = l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := ownedPlan(ctx, tx, traveler, planID, domain.PlanActivated)
		if err != nil {
			return err
		}

		last := l.Calendar.Today()
		if p.ToDate.Before(last) {
			last = p.ToDate
		}
		elapsed := domain.DaysBetween(p.FromDate, last) + 1
		if elapsed < 1 {
			return domain.InvalidInput("plan has not started yet")
		}
		if len(in.Days) != elapsed {
			return domain.InvalidInput("check-in must cover %d days up to %s", elapsed, domain.FormatDate(last))
		}

		days, err := orderDays(p.FromDate, in.Days, elapsed, true)
		if err != nil {
			return err
		}

		p.ActualStayDestinationID = emptyToNil(in.StayDestinationID.Apply(p.ActualStayDestinationID))
		stay, err := resolveLodging(ctx, tx.Catalog(), p.ActualStayDestinationID)
		if err != nil {
			return err
		}

		s := scheduler{catalog: tx.Catalog(), distances: l.Distances, newID: l.NewID}
		opts := dayOptions{planID: p.ID, isPlan: false, explicitTimes: true, rejectLodging: true}

		cost := lodgingCost(stay, elapsed)
		for _, day := range days {
			date := day.Date
			if err := tx.Plans().DeleteItems(ctx, ports.ItemFilter{PlanID: p.ID, IsPlan: boolPtr(false), Date: &date}); err != nil {
				return err
			}

			items, _, dayCost, err := s.scheduleDay(ctx, date, day.Stops, opts)
			if err != nil {
				return err
			}
			if err := tx.Plans().InsertItems(ctx, items); err != nil {
				return err
			}
			cost += dayCost
		}

		if in.TotalCost != nil {
			cost = *in.TotalCost
		}
		p.ActualCost = &cost
		if err := tx.Plans().UpdatePlan(ctx, p); err != nil {
			return err
		}

		detail, err = loadDetail(ctx, tx.Plans(), p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Complete closes an Activated plan once its end date has arrived, reconciles
// the two timelines and refreshes the ratings of every visited destination.
func (l *Lifecycle) Complete(ctx context.Context, traveler domain.Traveler, planID string) (_ *domain.Plan, err error) {
	defer obs.Time(ctx, "plans.Complete")(&err)

	var plan *domain.Plan
	err = l.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := ownedPlan(ctx, tx, traveler, planID, "")
		if err != nil {
			return err
		}
		if p.Status != domain.PlanActivated {
			return domain.Conflict("only activated plans can be completed, this plan is %s", p.Status)
		}
		if l.Calendar.Today().Before(p.ToDate) {
			return domain.InvalidInput("a plan can only be completed from its last day on")
		}

		planned, err := tx.Plans().ListItems(ctx, ports.ItemFilter{PlanID: p.ID, IsPlan: boolPtr(true)})
		if err != nil {
			return err
		}
		actual, err := tx.Plans().ListItems(ctx, ports.ItemFilter{PlanID: p.ID, IsPlan: boolPtr(false)})
		if err != nil {
			return err
		}

		Reconcile(planned, actual)

		ok, err := tx.Plans().TransitionStatus(ctx, p.ID, domain.PlanActivated, domain.PlanCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("plan %q is no longer activated", planID)
		}

		for _, it := range append(planned, actual...) {
			if err := tx.Plans().UpdateItem(ctx, it); err != nil {
				return err
			}
		}

		seen := make(map[string]bool, len(actual))
		for _, it := range actual {
			if seen[it.DestinationID] {
				continue
			}
			seen[it.DestinationID] = true
			if _, err := tx.Catalog().RecomputeRating(ctx, it.DestinationID); err != nil {
				return err
			}
		}

		p.Status = domain.PlanCompleted
		plan = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Reconcile pairs each actual visit with the first unpaired planned visit of
// the same destination on the same date. Paired items on both sides become
// Checked-in; unpaired actual items are New and unpaired planned items Skipped.
func Reconcile(planned, actual []*domain.ItineraryItem) {
	paired := make([]bool, len(planned))
	for _, p := range planned {
		p.Status = domain.ItemSkipped
	}

	for _, a := range actual {
		a.Status = domain.ItemNew
		for j, p := range planned {
			if paired[j] || p.DestinationID != a.DestinationID || !p.Date.Equal(a.Date) {
				continue
			}
			a.Status = domain.ItemCheckedIn
			p.Status = domain.ItemCheckedIn
			paired[j] = true
			break
		}
	}
}

// ownedPlan loads a plan of the traveler, optionally requiring a status.
// Plans of other travelers are reported as not found.
func ownedPlan(ctx context.Context, tx ports.Store, traveler domain.Traveler, planID string, status domain.PlanStatus) (*domain.Plan, error) {
	p, err := tx.Plans().GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.TravelerID != traveler.ID || (status != "" && p.Status != status) {
		return nil, domain.NotFound("plan %q not found", planID)
	}
	return p, nil
}
