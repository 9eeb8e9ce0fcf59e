package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
)

// SQLDistanceCache is the persistent distance_cache table keyed by
// (from_destination, to_destination, profile).
type SQLDistanceCache struct {
	DB *sql.DB
}

func NewSQLDistanceCache(db *sql.DB) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db}
}

func (s *SQLDistanceCache) GetDistance(
	ctx context.Context,
	fromID string,
	toID string,
	profile domain.TravelProfile,
) (_ *domain.DistanceEntry, _ bool, err error) {
	defer obs.Time(ctx, "distance.cache.Get")(&err)

	if s.DB == nil {
		return nil, false, errors.New("distance cache: db is nil")
	}

	q := `
	SELECT distance_meters, duration_seconds, distance_text, duration_text, hits
	FROM distance_cache
	WHERE from_destination = $1
		AND to_destination = $2
		AND profile = $3;
	`

	e := domain.DistanceEntry{FromID: fromID, ToID: toID, Profile: profile}
	err = s.DB.QueryRowContext(ctx, q, fromID, toID, string(profile)).Scan(
		&e.DistanceMeters, &e.DurationSeconds, &e.DistanceText, &e.DurationText, &e.Hits,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}

	return &e, true, nil
}

// PutDistance stores an entry. A concurrent writer of the same triple keeps the
// row and its hit counter.
func (s *SQLDistanceCache) PutDistance(ctx context.Context, e domain.DistanceEntry) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if e.FromID == "" || e.ToID == "" {
		return errors.New("insert distance cache: from and to must not be empty")
	}

	_, err := s.DB.ExecContext(ctx, `
	INSERT INTO distance_cache (
		from_destination, to_destination, profile,
		distance_meters, duration_seconds, distance_text, duration_text, hits
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (from_destination, to_destination, profile) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		distance_text = EXCLUDED.distance_text,
		duration_text = EXCLUDED.duration_text;
	`,
		e.FromID, e.ToID, string(e.Profile),
		e.DistanceMeters, e.DurationSeconds, e.DistanceText, e.DurationText, e.Hits,
	)
	if err != nil {
		return fmt.Errorf("insert distance cache %q -> %q: %w", e.FromID, e.ToID, err)
	}

	return nil
}

func (s *SQLDistanceCache) IncrementHits(ctx context.Context, fromID, toID string, profile domain.TravelProfile) error {
	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	_, err := s.DB.ExecContext(ctx, `
	UPDATE distance_cache
	SET hits = hits + 1
	WHERE from_destination = $1
		AND to_destination = $2
		AND profile = $3;
	`, fromID, toID, string(profile))
	if err != nil {
		return fmt.Errorf("increment distance cache hits %q -> %q: %w", fromID, toID, err)
	}

	return nil
}
