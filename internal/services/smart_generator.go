package services

import (
	"context"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	maxSmartDays      = 7
	smartAlternatives = 3
	minActiveMinutes  = 4 * 60
	dailyVisitMinutes = 10 * 60
	maxStayShare      = 0.5
	lodgingTopN       = 5
	lodgingCapStep    = 50
	// a day is only started when at least this many candidates remain
	minPoolForNewDay = 4
	placementBuffer  = 30
)

// SmartGenerator selects lodging and destinations automatically and offers
// several alternative plans for the traveler to choose from.
type SmartGenerator struct {
	Store     ports.Store
	Distances *DistanceCache
	Calendar  Calendar
	Random    ports.RandomSource
	NewID     func() string
}

func NewSmartGenerator(store ports.Store, distances *DistanceCache, cal Calendar) *SmartGenerator {
	return &SmartGenerator{
		Store:     store,
		Distances: distances,
		Calendar:  cal,
		Random:    globalRandom{},
		NewID:     uuid.NewString,
	}
}

type SmartPlanInput struct {
	Name          string
	CityID        string
	FromDate      time.Time
	ToDate        time.Time
	Start         domain.ClockTime
	End           domain.ClockTime
	Budget        int
	DailyStayCost int
	Personalities []string
}

// Generate discards the traveler's uncommitted alternatives and produces up to
// three new ones. Alternatives in which nothing could be placed are dropped.
func (g *SmartGenerator) Generate(ctx context.Context, traveler domain.Traveler, in SmartPlanInput) (_ []*PlanDetail, err error) {
	defer obs.Time(ctx, "smart.Generate")(&err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.InvalidInput("plan name is required")
	}
	if strings.TrimSpace(in.CityID) == "" {
		return nil, domain.InvalidInput("city is required")
	}

	from, to := domain.CivilDate(in.FromDate), domain.CivilDate(in.ToDate)
	if !from.After(g.Calendar.Today()) {
		return nil, domain.InvalidInput("plan must start tomorrow or later")
	}
	if to.Before(from) {
		return nil, domain.InvalidInput("end date must not be before start date")
	}
	days := domain.DaysBetween(from, to) + 1
	if days > maxSmartDays {
		return nil, domain.InvalidInput("a plan can last at most %d days", maxSmartDays)
	}
	if int(in.End-in.Start) < minActiveMinutes {
		return nil, domain.InvalidInput("the daily travel window must be at least %d hours", minActiveMinutes/60)
	}
	if in.Budget <= 0 {
		return nil, domain.InvalidInput("budget must be positive")
	}
	if in.DailyStayCost < 0 {
		return nil, domain.InvalidInput("daily lodging cost must not be negative")
	}
	if float64(in.DailyStayCost*days)/float64(in.Budget) > maxStayShare {
		return nil, domain.InvalidInput("daily lodging cost must not exceed %d", int(float64(in.Budget)*maxStayShare)/days)
	}

	personalities := in.Personalities
	if len(personalities) == 0 {
		personalities = traveler.Personalities
	}
	if len(personalities) == 0 {
		return nil, domain.InvalidInput("at least one personality is required")
	}

	req := smartRequest{
		SmartPlanInput: in,
		name:           name,
		from:           from,
		days:           days,
		personalities:  personalities,
		now:            g.Calendar.now(),
	}

	var out []*PlanDetail
	err = g.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		if err := tx.Plans().PurgeSmartPlans(ctx, traveler.ID, ""); err != nil {
			return err
		}

		city, err := tx.Catalog().FindOpenInCity(ctx, in.CityID)
		if err != nil {
			return err
		}

		var lodgings, attractions []*domain.Destination
		for _, d := range city {
			switch {
			case d.IsLodging():
				lodgings = append(lodgings, d)
			case d.HasAnyPersonality(personalities):
				attractions = append(attractions, d)
			}
		}
		if len(lodgings) == 0 {
			return domain.InvalidInput("there is no open lodging in this city")
		}

		for i := 0; i < smartAlternatives; i++ {
			detail, err := g.alternative(ctx, tx, traveler, req, i, lodgings, attractions)
			if err != nil {
				return err
			}
			if detail != nil {
				out = append(out, detail)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type smartRequest struct {
	SmartPlanInput
	name          string
	from          time.Time
	days          int
	personalities []string
	now           time.Time
}

func (g *SmartGenerator) alternative(
	ctx context.Context,
	tx ports.Store,
	traveler domain.Traveler,
	req smartRequest,
	index int,
	lodgings []*domain.Destination,
	attractions []*domain.Destination,
) (*PlanDetail, error) {
	stay := g.pickLodging(lodgings, req)
	stayCost := stay.AvgPrice() * req.days
	if stayCost > req.Budget {
		return nil, domain.InvalidInput("budget does not cover lodging for %d days", req.days)
	}

	pool := g.candidatePool(attractions, req, req.Budget-stayCost)

	plan := &domain.Plan{
		ID:                g.NewID(),
		TravelerID:        traveler.ID,
		Name:              fmt.Sprintf("%s (%d)", req.name, index+1),
		FromDate:          req.from,
		StayDestinationID: &stay.ID,
		Status:            domain.PlanSmart,
		CreatedAt:         req.now,
	}

	p := placement{
		gen:   g,
		req:   req,
		plan:  plan,
		pool:  pool,
		clock: req.Start,
		first: true,
	}
	if err := p.run(ctx); err != nil {
		return nil, err
	}
	if len(p.items) == 0 {
		return nil, nil
	}

	plan.ToDate = p.items[len(p.items)-1].Date
	plan.EstimatedCost = stayCost + p.cost
	plan.Point = math.Round(p.point*10) / 10

	if err := tx.Plans().CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	if err := tx.Plans().InsertItems(ctx, p.items); err != nil {
		return nil, err
	}

	return &PlanDetail{Plan: plan, Planned: p.items}, nil
}

// pickLodging keeps the lodgings under the daily cap, relaxing the cap until
// one fits, and picks at random among the best scored.
func (g *SmartGenerator) pickLodging(lodgings []*domain.Destination, req smartRequest) *domain.Destination {
	var fit []*domain.Destination
	for bonus := 0; len(fit) == 0; bonus += lodgingCapStep {
		for _, l := range lodgings {
			if l.AvgPrice() < req.DailyStayCost+bonus {
				fit = append(fit, l)
			}
		}
	}

	ranked := scoreDestinations(fit, nil, req.now, g.Random)
	top := min(lodgingTopN, len(ranked))
	return ranked[g.Random.IntN(top)].dest
}

// candidatePool ranks the attractions and keeps them greedily, best first,
// while the running cost and visit time stay within budget. The pool is
// returned ordered by opening time.
func (g *SmartGenerator) candidatePool(attractions []*domain.Destination, req smartRequest, maxCost int) []scored {
	ranked := scoreDestinations(attractions, req.personalities, req.now, g.Random)
	maxTime := req.days * dailyVisitMinutes

	pool := make([]scored, 0, len(ranked))
	cost, minutes := 0, 0
	for _, s := range ranked {
		c := s.dest.AvgPrice()
		if cost+c > maxCost || minutes+s.dest.VisitDuration > maxTime {
			continue
		}
		cost += c
		minutes += s.dest.VisitDuration
		pool = append(pool, s)
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].dest.OpeningTime < pool[j].dest.OpeningTime })
	return pool
}

// placement walks the days of one alternative, placing one stop at a time.
type placement struct {
	gen  *SmartGenerator
	req  smartRequest
	plan *domain.Plan
	pool []scored

	day      int
	clock    domain.ClockTime
	first    bool
	dayVisit int
	prev     *domain.Destination

	items []*domain.ItineraryItem
	cost  int
	point float64
}

func (p *placement) run(ctx context.Context) error {
	for p.day < p.req.days && len(p.pool) > 0 {
		best, tied := p.bestCandidates()
		if best == 0 {
			p.advance()
			continue
		}
		if p.first && len(p.pool) < minPoolForNewDay {
			return nil
		}

		placed, roll, err := p.tryPlace(ctx, tied)
		if err != nil {
			return err
		}
		switch {
		case roll:
			p.nextDay()
		case !placed:
			p.advance()
		}
	}
	return nil
}

// bestCandidates returns the top time-fit score at the current clock and the
// pool indexes that reach it.
func (p *placement) bestCandidates() (int, []int) {
	best := 0
	var tied []int
	for j, s := range p.pool {
		fit := timeFit(s.dest, p.clock)
		if fit == 0 {
			continue
		}
		if fit > best {
			best = fit
			tied = tied[:0]
		}
		if fit == best {
			tied = append(tied, j)
		}
	}
	return best, tied
}

// tryPlace draws tied candidates at random until one still fits after travel.
// roll reports that the drawn stop would overrun the day.
func (p *placement) tryPlace(ctx context.Context, tied []int) (placed, roll bool, err error) {
	for len(tied) > 0 {
		k := p.gen.Random.IntN(len(tied))
		j := tied[k]
		tied = append(tied[:k], tied[k+1:]...)
		cand := p.pool[j]

		leg := domain.StartLeg
		if !p.first {
			leg, err = p.gen.Distances.Between(ctx, p.prev, cand.dest, domain.ProfileDriving)
			if err != nil {
				return false, false, err
			}
		}

		arrival := p.clock.Add(leg.TravelMinutes())
		departure := arrival.Add(cand.dest.VisitDuration)
		if arrival < cand.dest.OpeningTime || departure > cand.dest.ClosingTime {
			continue
		}
		if departure.Overflows() || departure > p.req.End || p.dayVisit+cand.dest.VisitDuration > dailyVisitMinutes {
			return false, true, nil
		}

		p.items = append(p.items, &domain.ItineraryItem{
			ID:               p.gen.NewID(),
			PlanID:           p.plan.ID,
			DestinationID:    cand.dest.ID,
			DestinationName:  cand.dest.Name,
			DestinationImage: cand.dest.Image,
			Date:             domain.AddDays(p.req.from, p.day),
			Arrival:          arrival,
			Departure:        departure,
			Profile:          domain.ProfileDriving,
			Leg:              leg,
			IsPlan:           true,
			Status:           domain.ItemPlanned,
		})
		p.cost += cand.dest.AvgPrice()
		p.point += cand.value
		p.dayVisit += cand.dest.VisitDuration
		p.clock = departure
		p.first = false
		p.prev = cand.dest
		p.pool = append(p.pool[:j], p.pool[j+1:]...)
		return true, false, nil
	}
	return false, false, nil
}

// advance moves the clock to the next half hour, rolling over past the day's end.
func (p *placement) advance() {
	p.clock = p.clock.NextHalfHour()
	if p.clock.Overflows() || p.clock > p.req.End {
		p.nextDay()
	}
}

func (p *placement) nextDay() {
	p.day++
	p.clock = p.req.Start
	p.first = true
	p.dayVisit = 0
	p.prev = nil
}

// timeFit scores how well a visit starting at clock suits a destination:
// 0 outside opening hours, 1 inside them, and 2 plus the window's plan count
// and double its visit count when it overlaps a recommended time window.
func timeFit(d *domain.Destination, clock domain.ClockTime) int {
	end := clock.Add(d.VisitDuration + placementBuffer)
	if clock < d.OpeningTime || end > d.ClosingTime {
		return 0
	}

	fit := 1
	for _, w := range d.RecommendedTimes {
		if w.From < end && clock < w.To {
			fit = max(fit, 2+w.PlanCount+2*w.VisitCount)
		}
	}
	return fit
}

var alternativeSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

// Commit turns one alternative into a Draft plan and discards the others.
func (g *SmartGenerator) Commit(ctx context.Context, traveler domain.Traveler, planID string) (_ *domain.Plan, err error) {
	defer obs.Time(ctx, "smart.Commit")(&err)

	var plan *domain.Plan
	err = g.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := ownedPlan(ctx, tx, traveler, planID, domain.PlanSmart)
		if err != nil {
			return err
		}

		ok, err := tx.Plans().TransitionStatus(ctx, p.ID, domain.PlanSmart, domain.PlanDraft)
		if err != nil {
			return err
		}
		if !ok {
			return domain.NotFound("plan %q not found", planID)
		}

		p.Status = domain.PlanDraft
		p.Name = alternativeSuffix.ReplaceAllString(p.Name, "")
		if err := tx.Plans().UpdatePlan(ctx, p); err != nil {
			return err
		}
		if err := tx.Plans().PurgeSmartPlans(ctx, traveler.ID, p.ID); err != nil {
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
