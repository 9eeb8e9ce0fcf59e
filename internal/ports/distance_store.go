package ports

import (
	"context"
	"itinerary-planner-service/internal/domain"
)

// Port: persistent memo of routing results keyed by (from, to, profile).
type DistanceStore interface {
	// Return the entry and true on a hit.
	GetDistance(ctx context.Context, fromID, toID string, profile domain.TravelProfile) (*domain.DistanceEntry, bool, error)
	PutDistance(ctx context.Context, entry domain.DistanceEntry) error
	IncrementHits(ctx context.Context, fromID, toID string, profile domain.TravelProfile) error
}
