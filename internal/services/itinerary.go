package services

import (
	"context"
	"errors"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"sort"
	"time"
	"unicode/utf8"
)

const maxCommentLength = 500

// StopInput is one requested visit. Arrival and Departure are only read when
// the caller supplies explicit times; Status, Rating and Comment only on check-in.
type StopInput struct {
	DestinationID string
	Profile       string
	Arrival       string
	Departure     string
	Status        string
	Rating        int
	Comment       string
}

type DayInput struct {
	Date  time.Time
	Stops []StopInput
}

// PlanDetail is a plan with its planned and (when executed) actual timelines.
type PlanDetail struct {
	Plan    *domain.Plan
	Planned []*domain.ItineraryItem
	Actual  []*domain.ItineraryItem
}

type dayOptions struct {
	planID        string
	isPlan        bool
	explicitTimes bool
	rejectLodging bool
}

// scheduler time-stamps the stops of one day and computes their legs.
type scheduler struct {
	catalog   ports.DestinationCatalog
	distances *DistanceCache
	newID     func() string
}

// orderDays sorts the days and checks that day i falls on from+i. It returns
// at most maxDays days.
func orderDays(from time.Time, days []DayInput, maxDays int, allowEmpty bool) ([]DayInput, error) {
	if len(days) == 0 {
		return nil, domain.InvalidInput("itinerary must contain at least one day")
	}
	if len(days) > maxDays {
		return nil, domain.InvalidInput("itinerary has %d days but the date range allows %d", len(days), maxDays)
	}

	sorted := make([]DayInput, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for i := range sorted {
		sorted[i].Date = domain.CivilDate(sorted[i].Date)
		want := domain.AddDays(from, i)
		if !sorted[i].Date.Equal(want) {
			return nil, domain.InvalidInput("day %d is %s, expected %s", i+1, domain.FormatDate(sorted[i].Date), domain.FormatDate(want))
		}
		if !allowEmpty && len(sorted[i].Stops) == 0 {
			return nil, domain.InvalidInput("day %d has no stops", i+1)
		}
	}
	return sorted, nil
}

// scheduleDay turns the stops of one day into itinerary items. Without explicit
// times, visits are laid out back to back from 08:00; with explicit times they
// are validated against chronology, travel time and opening hours. It returns
// the items, the destinations they visit and the sum of their average prices.
func (s scheduler) scheduleDay(
	ctx context.Context,
	date time.Time,
	stops []StopInput,
	opts dayOptions,
) ([]*domain.ItineraryItem, []*domain.Destination, int, error) {
	items := make([]*domain.ItineraryItem, 0, len(stops))
	dests := make([]*domain.Destination, 0, len(stops))
	cost := 0

	clock := domain.DayStart
	var prev *domain.Destination

	for j, stop := range stops {
		dest, err := s.stopDestination(ctx, stop.DestinationID, opts.rejectLodging)
		if err != nil {
			return nil, nil, 0, err
		}

		profile := domain.ParseProfile(stop.Profile)
		leg := domain.StartLeg
		if j > 0 {
			if leg, err = s.distances.Between(ctx, prev, dest, profile); err != nil {
				return nil, nil, 0, err
			}
		}

		var arrival, departure domain.ClockTime
		if opts.explicitTimes {
			arrival, departure, err = explicitTimes(dest, stop, clock, leg, j == 0)
			if err != nil {
				return nil, nil, 0, err
			}
		} else {
			arrival = clock.Add(leg.TravelMinutes())
			if arrival.Overflows() {
				return nil, nil, 0, domain.InvalidInput("not enough time on %s to reach %q", domain.FormatDate(date), dest.Name)
			}
			departure = arrival.Add(dest.VisitDuration)
			if departure.Overflows() {
				return nil, nil, 0, domain.InvalidInput("not enough time on %s to visit %q", domain.FormatDate(date), dest.Name)
			}
		}

		item := &domain.ItineraryItem{
			ID:               s.newID(),
			PlanID:           opts.planID,
			DestinationID:    dest.ID,
			DestinationName:  dest.Name,
			DestinationImage: dest.Image,
			Date:             date,
			Arrival:          arrival,
			Departure:        departure,
			Profile:          profile,
			Leg:              leg,
			IsPlan:           opts.isPlan,
			Status:           domain.ItemPlanned,
		}
		if !opts.isPlan {
			if err := applyVisit(item, stop, dest); err != nil {
				return nil, nil, 0, err
			}
		}

		items = append(items, item)
		dests = append(dests, dest)
		cost += dest.AvgPrice()
		clock = departure
		prev = dest
	}

	return items, dests, cost, nil
}

func (s scheduler) stopDestination(ctx context.Context, id string, rejectLodging bool) (*domain.Destination, error) {
	dest, err := s.catalog.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.InvalidInput("destination %q not found", id)
	}
	if err != nil {
		return nil, err
	}

	switch dest.Status {
	case domain.DestinationClosed:
		return nil, domain.InvalidInput("destination %q is closed, please choose another one", dest.Name)
	case domain.DestinationDeactivated:
		return nil, domain.InvalidInput("destination %q is no longer active, please choose another one", dest.Name)
	}

	if rejectLodging && dest.IsLodging() {
		return nil, domain.InvalidInput("destination %q is a lodging and cannot be a stop", dest.Name)
	}
	return dest, nil
}

func explicitTimes(
	dest *domain.Destination,
	stop StopInput,
	prevDeparture domain.ClockTime,
	leg domain.Leg,
	first bool,
) (domain.ClockTime, domain.ClockTime, error) {
	arrival, err := domain.ParseStopClock(stop.Arrival)
	if err != nil {
		return 0, 0, domain.InvalidInput("arrival time at %q is invalid", dest.Name)
	}
	departure, err := domain.ParseStopClock(stop.Departure)
	if err != nil {
		return 0, 0, domain.InvalidInput("departure time from %q is invalid", dest.Name)
	}

	if departure < arrival {
		return 0, 0, domain.InvalidInput("departure from %q is before arrival", dest.Name)
	}
	if !first && arrival < prevDeparture.Add(leg.TravelMinutes()) {
		return 0, 0, domain.InvalidInput("arrival at %q is earlier than %s, the previous departure plus travel time",
			dest.Name, prevDeparture.Add(leg.TravelMinutes()))
	}
	if arrival < dest.OpeningTime || departure > dest.ClosingTime {
		return 0, 0, domain.InvalidInput("%q is only open from %s to %s", dest.Name, dest.OpeningTime, dest.ClosingTime)
	}
	if departure.Overflows() {
		return 0, 0, domain.InvalidInput("departure from %q is past the end of the day", dest.Name)
	}

	return arrival, departure, nil
}

// applyVisit copies the traveler's visit report onto an actual-timeline item.
func applyVisit(item *domain.ItineraryItem, stop StopInput, dest *domain.Destination) error {
	item.Status = domain.ItemCheckedIn
	if stop.Status != "" {
		st, ok := domain.ParseItemStatus(stop.Status)
		if !ok || st == domain.ItemPlanned {
			return domain.InvalidInput("visit status %q at %q is invalid", stop.Status, dest.Name)
		}
		item.Status = st
	}

	if stop.Rating < 0 || stop.Rating > 5 {
		return domain.InvalidInput("rating for %q must be between 1 and 5", dest.Name)
	}
	if stop.Rating > 0 {
		r := stop.Rating
		item.Rating = &r
	}

	if utf8.RuneCountInString(stop.Comment) > maxCommentLength {
		return domain.InvalidInput("comment for %q exceeds %d characters", dest.Name, maxCommentLength)
	}
	if stop.Comment != "" {
		c := stop.Comment
		item.Comment = &c
	}
	return nil
}

// resolveLodging validates an optional lodging destination.
func resolveLodging(ctx context.Context, catalog ports.DestinationCatalog, id *string) (*domain.Destination, error) {
	if id == nil || *id == "" {
		return nil, nil
	}

	dest, err := catalog.FindByID(ctx, *id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.InvalidInput("lodging destination is invalid")
	}
	if err != nil {
		return nil, err
	}
	if dest.Status != domain.DestinationOpen || !dest.IsLodging() {
		return nil, domain.InvalidInput("lodging destination is invalid")
	}
	return dest, nil
}

// lodgingCost charges one night per day after the first, and at least one night.
func lodgingCost(stay *domain.Destination, days int) int {
	if stay == nil {
		return 0
	}
	return stay.AvgPrice() * max(days-1, 1)
}

func loadDetail(ctx context.Context, plans ports.PlanRepository, plan *domain.Plan) (*PlanDetail, error) {
	planned, err := plans.ListItems(ctx, ports.ItemFilter{PlanID: plan.ID, IsPlan: boolPtr(true)})
	if err != nil {
		return nil, err
	}

	detail := &PlanDetail{Plan: plan, Planned: planned}
	if plan.HasActualTimeline() {
		if detail.Actual, err = plans.ListItems(ctx, ports.ItemFilter{PlanID: plan.ID, IsPlan: boolPtr(false)}); err != nil {
			return nil, err
		}
	}
	return detail, nil
}

func boolPtr(b bool) *bool { return &b }
