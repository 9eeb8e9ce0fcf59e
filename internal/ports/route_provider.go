package ports

import (
	"context"
	"itinerary-planner-service/internal/domain"
)

// Raw routing result between two coordinates.
type RouteResult struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Contract for the external routing service. Failures are reported as
// domain.ErrUpstream so they stay distinct from cache-internal errors.
type RouteProvider interface {
	Route(ctx context.Context, from, to domain.Coordinates, profile domain.TravelProfile) (RouteResult, error)
}
