package services

import (
	"context"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"

	"golang.org/x/sync/singleflight"
)

// DistanceCache returns travel legs between destinations, asking the routing
// provider at most once per (from, to, profile) and memoizing the answer.
type DistanceCache struct {
	Catalog  ports.DestinationCatalog
	Store    ports.DistanceStore
	Provider ports.RouteProvider

	group singleflight.Group
}

func NewDistanceCache(catalog ports.DestinationCatalog, store ports.DistanceStore, provider ports.RouteProvider) *DistanceCache {
	return &DistanceCache{Catalog: catalog, Store: store, Provider: provider}
}

// Distance resolves both ids through the catalog and returns the leg between them.
func (c *DistanceCache) Distance(ctx context.Context, fromID, toID string, profile domain.TravelProfile) (domain.Leg, error) {
	if fromID == toID {
		return domain.Leg{}, domain.InvalidInput("origin and destination must differ")
	}

	from, err := c.Catalog.FindByID(ctx, fromID)
	if err != nil {
		return domain.Leg{}, err
	}
	to, err := c.Catalog.FindByID(ctx, toID)
	if err != nil {
		return domain.Leg{}, err
	}

	return c.Between(ctx, from, to, profile)
}

// Between is Distance for destinations the caller already loaded, which keeps
// catalog reads inside the caller's transaction.
func (c *DistanceCache) Between(ctx context.Context, from, to *domain.Destination, profile domain.TravelProfile) (_ domain.Leg, err error) {
	defer obs.Time(ctx, "distance.Between")(&err)

	if from.ID == to.ID {
		return domain.Leg{}, domain.InvalidInput("origin and destination must differ")
	}
	if from.Coordinates.IsZero() {
		return domain.Leg{}, domain.NotFound("destination %q has no coordinates", from.ID)
	}
	if to.Coordinates.IsZero() {
		return domain.Leg{}, domain.NotFound("destination %q has no coordinates", to.ID)
	}

	profile = domain.ParseProfile(string(profile))

	e, ok, err := c.Store.GetDistance(ctx, from.ID, to.ID, profile)
	if err != nil {
		return domain.Leg{}, fmt.Errorf("distance cache: lookup %q -> %q: %w", from.ID, to.ID, err)
	}
	if ok {
		if err := c.Store.IncrementHits(ctx, from.ID, to.ID, profile); err != nil {
			obs.Logger(ctx).WithError(err).Warn("distance cache hit counter update failed")
		}
		return e.Leg, nil
	}

	key := from.ID + "|" + to.ID + "|" + string(profile)
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fill(ctx, from, to, profile)
	})
	if err != nil {
		return domain.Leg{}, err
	}
	return v.(domain.Leg), nil
}

func (c *DistanceCache) fill(ctx context.Context, from, to *domain.Destination, profile domain.TravelProfile) (domain.Leg, error) {
	// another caller may have filled the entry while we waited on the group
	if e, ok, err := c.Store.GetDistance(ctx, from.ID, to.ID, profile); err == nil && ok {
		return e.Leg, nil
	}

	r, err := c.Provider.Route(ctx, from.Coordinates, to.Coordinates, profile)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return domain.Leg{}, err
		}
		return domain.Leg{}, domain.Upstream(err, "routing service unavailable")
	}

	leg := domain.NewLeg(r.DistanceMeters, r.DurationSeconds)
	entry := domain.DistanceEntry{FromID: from.ID, ToID: to.ID, Profile: profile, Leg: leg}
	if err := c.Store.PutDistance(ctx, entry); err != nil {
		obs.Logger(ctx).WithError(err).Warn("distance cache write failed")
	}

	return leg, nil
}
