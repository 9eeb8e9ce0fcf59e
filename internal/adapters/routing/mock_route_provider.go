package routing

import (
	"context"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"sync"
)

type MockRoute struct {
	From, To domain.Coordinates
	Meters   float64
	Seconds  float64
}

// MockRouteProvider answers from a fixed table and counts calls. Unknown pairs
// fall back to Default when set.
type MockRouteProvider struct {
	Default *ports.RouteResult
	Err     error

	mu    sync.Mutex
	m     map[string]ports.RouteResult
	calls int
}

func NewMockRouteProvider(routes []MockRoute) *MockRouteProvider {
	m := make(map[string]ports.RouteResult, len(routes))
	for _, r := range routes {
		m[mockKey(r.From, r.To)] = ports.RouteResult{DistanceMeters: r.Meters, DurationSeconds: r.Seconds}
	}
	return &MockRouteProvider{m: m}
}

func (p *MockRouteProvider) Route(
	ctx context.Context,
	from, to domain.Coordinates,
	profile domain.TravelProfile,
) (ports.RouteResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++

	if p.Err != nil {
		return ports.RouteResult{}, domain.Upstream(p.Err, "routing service unavailable")
	}

	r, ok := p.m[mockKey(from, to)]
	if !ok {
		if p.Default != nil {
			return *p.Default, nil
		}
		return ports.RouteResult{}, domain.Upstream(nil, "no route %v -> %v", from, to)
	}
	return r, nil
}

func (p *MockRouteProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func mockKey(from, to domain.Coordinates) string {
	return fmt.Sprintf("%f,%f|%f,%f", from.Lon, from.Lat, to.Lon, to.Lat)
}
