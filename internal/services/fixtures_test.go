package services

import (
	"fmt"
	"itinerary-planner-service/internal/adapters/memory"
	"itinerary-planner-service/internal/adapters/routing"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) advanceDays(n int) { c.t = c.t.AddDate(0, 0, n) }

// today is the civil date every test starts on.
var today = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

func date(offset int) time.Time { return domain.AddDays(today, offset) }

type env struct {
	clock     *fakeClock
	cal       Calendar
	store     *memory.Store
	distStore *memory.DistanceStore
	provider  *routing.MockRouteProvider
	distances *DistanceCache
	builder   *ManualBuilder
	smart     *SmartGenerator
	lifecycle *Lifecycle
	queries   *PlanQueries
}

var traveler = domain.Traveler{ID: "traveler-1", Personalities: []string{"culture"}}

func dest(id string, open, close domain.ClockTime, visit, low, high int, x float64) *domain.Destination {
	return &domain.Destination{
		ID:            id,
		Name:          "Place " + id,
		CityID:        "hcm",
		Coordinates:   domain.Coordinates{Lon: x, Lat: x},
		LowestPrice:   low,
		HighestPrice:  high,
		OpeningTime:   open,
		ClosingTime:   close,
		VisitDuration: visit,
		Status:        domain.DestinationOpen,
		CreatedAt:     today.AddDate(0, -int(x), 0),
		Catalogs:      []domain.Catalog{{Name: "sightseeing", Parent: "attraction"}},
		Personalities: []domain.PersonalityAffinity{{Personality: "culture"}},
	}
}

func lodging(id string, low, high int, x float64) *domain.Destination {
	d := dest(id, domain.Clock(0, 0), domain.Clock(23, 59), 0, low, high, x)
	d.Catalogs = []domain.Catalog{{Name: "hotel", Parent: domain.LodgingCatalog}}
	d.Personalities = nil
	return d
}

// catalogFixture: A and B reproduce the classic two-stop day, the rest fill
// the city for the generator.
func catalogFixture() []*domain.Destination {
	a := dest("A", domain.Clock(8, 0), domain.Clock(20, 0), 60, 100, 200, 1)
	b := dest("B", domain.Clock(10, 0), domain.Clock(18, 0), 90, 0, 0, 2)
	c := dest("C", domain.Clock(9, 0), domain.Clock(17, 0), 60, 50, 50, 3)
	closed := dest("X", domain.Clock(8, 0), domain.Clock(20, 0), 60, 10, 10, 4)
	closed.Status = domain.DestinationClosed
	long := dest("LONG", domain.Clock(0, 0), domain.Clock(23, 59), 900, 0, 0, 5)
	long.CityID = "elsewhere"

	out := []*domain.Destination{a, b, c, closed, long,
		lodging("H", 300, 500, 6),
		lodging("H2", 100, 120, 7),
	}
	for i := 0; i < 8; i++ {
		d := dest(fmt.Sprintf("S%d", i), domain.Clock(7+i%3, 0), domain.Clock(21, 0), 60+15*(i%3), 20*i, 20*i+40, float64(10+i))
		d.View = 10 * i
		if i%2 == 0 {
			d.RecommendedTimes = []domain.RecommendedTime{{From: domain.Clock(9, 0), To: domain.Clock(12, 0), PlanCount: i, VisitCount: 1}}
		}
		out = append(out, d)
	}
	return out
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clock := &fakeClock{t: today.Add(10 * time.Hour)}
	cal := Calendar{Now: clock.Now, Location: time.UTC}
	store := memory.NewStore(catalogFixture())
	distStore := memory.NewDistanceStore()
	provider := routing.NewMockRouteProvider(nil)
	provider.Default = &ports.RouteResult{DistanceMeters: 5000, DurationSeconds: 1200}
	distances := NewDistanceCache(store.Catalog(), distStore, provider)

	seq := 0
	newID := func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}

	e := &env{
		clock:     clock,
		cal:       cal,
		store:     store,
		distStore: distStore,
		provider:  provider,
		distances: distances,
		builder:   NewManualBuilder(store, distances, cal),
		smart:     NewSmartGenerator(store, distances, cal),
		lifecycle: NewLifecycle(store, distances, cal),
		queries:   NewPlanQueries(store, cal, 10),
	}
	e.builder.NewID = newID
	e.smart.NewID = newID
	e.smart.Random = NewSeededRandom(42)
	e.lifecycle.NewID = newID
	e.queries.NewID = newID
	return e
}

func stops(ids ...string) []StopInput {
	out := make([]StopInput, 0, len(ids))
	for _, id := range ids {
		out = append(out, StopInput{DestinationID: id})
	}
	return out
}

func timed(id, arrival, departure string) StopInput {
	return StopInput{DestinationID: id, Arrival: arrival, Departure: departure}
}

func strPtr(s string) *string { return &s }
