package ports

import (
	"context"
	"itinerary-planner-service/internal/domain"
)

// Port: read access to destinations plus the counters planning feeds back.
type DestinationCatalog interface {
	// Return domain.ErrNotFound when the id does not resolve.
	FindByID(ctx context.Context, id string) (*domain.Destination, error)
	// All Open destinations of a city with catalogs, affinities and recommended times.
	FindOpenInCity(ctx context.Context, cityID string) ([]*domain.Destination, error)
	// Bump the plan count of (destination, personality), creating the row if needed.
	IncrementPersonalityAffinity(ctx context.Context, destinationID, personality string) error
	// Recompute average rating and count from all rated actual visits.
	RecomputeRating(ctx context.Context, destinationID string) (domain.Rating, error)
}
