package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var schema = []string{
	`
	CREATE TABLE IF NOT EXISTS catalogs (
		name TEXT PRIMARY KEY,
		parent TEXT NOT NULL DEFAULT ''
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS destinations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		image TEXT NOT NULL DEFAULT '',
		city_id TEXT NOT NULL,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL,
		lowest_price INTEGER NOT NULL DEFAULT 0,
		highest_price INTEGER NOT NULL DEFAULT 0,
		opening_time INTEGER NOT NULL,
		closing_time INTEGER NOT NULL,
		visit_duration INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'Open',
		view_count INTEGER NOT NULL DEFAULT 0,
		avg_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_destinations_city_status
	ON destinations(city_id, status);
	`,
	`
	CREATE TABLE IF NOT EXISTS destination_catalogs (
		destination_id TEXT NOT NULL REFERENCES destinations(id) ON DELETE CASCADE,
		catalog_name TEXT NOT NULL REFERENCES catalogs(name),
		PRIMARY KEY (destination_id, catalog_name)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS destination_personalities (
		destination_id TEXT NOT NULL REFERENCES destinations(id) ON DELETE CASCADE,
		personality TEXT NOT NULL,
		plan_count INTEGER NOT NULL DEFAULT 0,
		visit_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (destination_id, personality)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS time_frames (
		id SERIAL PRIMARY KEY,
		from_time INTEGER NOT NULL,
		to_time INTEGER NOT NULL,
		UNIQUE (from_time, to_time)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS destination_recommended_times (
		destination_id TEXT NOT NULL REFERENCES destinations(id) ON DELETE CASCADE,
		time_frame_id INTEGER NOT NULL REFERENCES time_frames(id),
		plan_count INTEGER NOT NULL DEFAULT 0,
		visit_count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (destination_id, time_frame_id)
	);
	`,
	`
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		traveler_id TEXT NOT NULL,
		name TEXT NOT NULL,
		from_date DATE NOT NULL,
		to_date DATE NOT NULL,
		stay_destination_id TEXT REFERENCES destinations(id),
		actual_stay_destination_id TEXT REFERENCES destinations(id),
		estimated_cost INTEGER NOT NULL DEFAULT 0,
		actual_cost INTEGER,
		is_public BOOLEAN NOT NULL DEFAULT false,
		view_count INTEGER NOT NULL DEFAULT 0,
		point DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_plans_traveler_status
	ON plans(traveler_id, status);
	`,
	`
	CREATE TABLE IF NOT EXISTS plan_destinations (
		id TEXT PRIMARY KEY,
		seq BIGSERIAL,
		plan_id TEXT NOT NULL REFERENCES plans(id) ON DELETE CASCADE,
		destination_id TEXT NOT NULL REFERENCES destinations(id),
		destination_name TEXT NOT NULL,
		destination_image TEXT NOT NULL DEFAULT '',
		date DATE NOT NULL,
		arrival INTEGER NOT NULL,
		departure INTEGER NOT NULL,
		profile TEXT NOT NULL,
		distance_meters INTEGER NOT NULL DEFAULT 0,
		duration_seconds INTEGER NOT NULL DEFAULT 0,
		distance_text TEXT NOT NULL DEFAULT '',
		duration_text TEXT NOT NULL DEFAULT '',
		is_plan BOOLEAN NOT NULL,
		status TEXT NOT NULL,
		rating INTEGER,
		comment TEXT
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_plan_destinations_plan
	ON plan_destinations(plan_id, is_plan, date);
	`,
	`
	CREATE TABLE IF NOT EXISTS distance_cache (
		from_destination TEXT NOT NULL,
		to_destination TEXT NOT NULL,
		profile TEXT NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		distance_text TEXT NOT NULL,
		duration_text TEXT NOT NULL,
		hits INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (from_destination, to_destination, profile)
	);
	`,
	`
	CREATE INDEX IF NOT EXISTS idx_distance_cache_to_from
	ON distance_cache(to_destination, from_destination);
	`,
}

// InitSchema creates every table the planner uses. It is safe to run repeatedly.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
