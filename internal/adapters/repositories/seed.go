package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"os"
	"strings"
	"time"
)

type CatalogSeed struct {
	Name   string `json:"name"`
	Parent string `json:"parent"`
}

type WindowSeed struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DestinationSeed is one entry of the catalog seed file.
type DestinationSeed struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Image            string        `json:"image"`
	CityID           string        `json:"city_id"`
	Lon              float64       `json:"lon"`
	Lat              float64       `json:"lat"`
	LowestPrice      int           `json:"lowest_price"`
	HighestPrice     int           `json:"highest_price"`
	OpeningTime      string        `json:"opening_time"`
	ClosingTime      string        `json:"closing_time"`
	VisitDuration    int           `json:"visit_duration"`
	Status           string        `json:"status"`
	View             int           `json:"view"`
	CreatedAt        string        `json:"created_at"`
	Catalogs         []CatalogSeed `json:"catalogs"`
	Personalities    []string      `json:"personalities"`
	RecommendedTimes []WindowSeed  `json:"recommended_times"`
}

// ReadSeed parses and validates a catalog seed file.
func ReadSeed(jsonPath string) ([]*domain.Destination, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("seed catalog: read %q: %w", jsonPath, err)
	}

	var data []DestinationSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("seed catalog: parse json: %w", err)
	}

	dests := make([]*domain.Destination, 0, len(data))
	seen := make(map[string]bool, len(data))
	for i, item := range data {
		d, err := item.destination()
		if err != nil {
			return nil, fmt.Errorf("seed catalog: item at index %d: %w", i+1, err)
		}
		if seen[d.ID] {
			return nil, fmt.Errorf("seed catalog: item at index %d: duplicate id %q", i+1, d.ID)
		}
		seen[d.ID] = true
		dests = append(dests, d)
	}

	return dests, nil
}

func (s DestinationSeed) destination() (*domain.Destination, error) {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return nil, fmt.Errorf("id cannot be empty")
	}
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return nil, fmt.Errorf("%q: name cannot be empty", id)
	}
	if strings.TrimSpace(s.CityID) == "" {
		return nil, fmt.Errorf("%q: city_id cannot be empty", id)
	}

	open, err := domain.ParseClock(s.OpeningTime)
	if err != nil {
		return nil, fmt.Errorf("%q: opening_time: %w", id, err)
	}
	closing, err := domain.ParseClock(s.ClosingTime)
	if err != nil {
		return nil, fmt.Errorf("%q: closing_time: %w", id, err)
	}
	if closing < open {
		return nil, fmt.Errorf("%q: closes before it opens", id)
	}
	if s.VisitDuration < 0 || s.LowestPrice < 0 || s.HighestPrice < s.LowestPrice {
		return nil, fmt.Errorf("%q: invalid visit duration or price range", id)
	}

	status := domain.DestinationOpen
	if s.Status != "" {
		status = domain.DestinationStatus(s.Status)
	}
	switch status {
	case domain.DestinationOpen, domain.DestinationClosed, domain.DestinationDeactivated:
	default:
		return nil, fmt.Errorf("%q: unknown status %q", id, s.Status)
	}

	var createdAt time.Time
	if s.CreatedAt != "" {
		if createdAt, err = domain.ParseDate(s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%q: created_at: %w", id, err)
		}
	}

	d := &domain.Destination{
		ID:            id,
		Name:          name,
		Image:         s.Image,
		CityID:        strings.TrimSpace(s.CityID),
		Coordinates:   domain.Coordinates{Lon: s.Lon, Lat: s.Lat},
		LowestPrice:   s.LowestPrice,
		HighestPrice:  s.HighestPrice,
		OpeningTime:   open,
		ClosingTime:   closing,
		VisitDuration: s.VisitDuration,
		Status:        status,
		View:          s.View,
		CreatedAt:     createdAt,
	}
	for _, c := range s.Catalogs {
		d.Catalogs = append(d.Catalogs, domain.Catalog{Name: strings.TrimSpace(c.Name), Parent: strings.TrimSpace(c.Parent)})
	}
	for _, p := range s.Personalities {
		d.Personalities = append(d.Personalities, domain.PersonalityAffinity{Personality: strings.TrimSpace(p)})
	}
	for _, w := range s.RecommendedTimes {
		from, err := domain.ParseClock(w.From)
		if err != nil {
			return nil, fmt.Errorf("%q: recommended time: %w", id, err)
		}
		to, err := domain.ParseClock(w.To)
		if err != nil {
			return nil, fmt.Errorf("%q: recommended time: %w", id, err)
		}
		d.RecommendedTimes = append(d.RecommendedTimes, domain.RecommendedTime{From: from, To: to})
	}
	return d, nil
}

// SeedFromJSON loads the catalog seed file into Postgres.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	dests, err := ReadSeed(jsonPath)
	if err != nil {
		return err
	}
	return SeedDestinations(ctx, db, dests)
}

// SeedDestinations upserts destinations with their catalogs, personalities and
// recommended time windows. Existing counters are left untouched.
func SeedDestinations(ctx context.Context, db *sql.DB, dests []*domain.Destination) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed catalog: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range dests {
		if err := seedDestination(ctx, tx, d); err != nil {
			return fmt.Errorf("seed catalog: destination %q: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed catalog: commit tx: %w", err)
	}

	return nil
}

func seedDestination(ctx context.Context, tx *sql.Tx, d *domain.Destination) error {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := tx.ExecContext(ctx, `
	INSERT INTO destinations (
		id, name, image, city_id, lon, lat, lowest_price, highest_price,
		opening_time, closing_time, visit_duration, status, view_count, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		image = EXCLUDED.image,
		city_id = EXCLUDED.city_id,
		lon = EXCLUDED.lon,
		lat = EXCLUDED.lat,
		lowest_price = EXCLUDED.lowest_price,
		highest_price = EXCLUDED.highest_price,
		opening_time = EXCLUDED.opening_time,
		closing_time = EXCLUDED.closing_time,
		visit_duration = EXCLUDED.visit_duration,
		status = EXCLUDED.status;
	`,
		d.ID, d.Name, d.Image, d.CityID, d.Coordinates.Lon, d.Coordinates.Lat, d.LowestPrice, d.HighestPrice,
		int(d.OpeningTime), int(d.ClosingTime), d.VisitDuration, string(d.Status), d.View, createdAt,
	)
	if err != nil {
		return fmt.Errorf("upsert destination: %w", err)
	}

	for _, c := range d.Catalogs {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalogs (name, parent) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET parent = EXCLUDED.parent;
		`, c.Name, c.Parent); err != nil {
			return fmt.Errorf("upsert catalog %q: %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO destination_catalogs (destination_id, catalog_name) VALUES ($1, $2)
		ON CONFLICT DO NOTHING;
		`, d.ID, c.Name); err != nil {
			return fmt.Errorf("link catalog %q: %w", c.Name, err)
		}
	}

	for _, p := range d.Personalities {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO destination_personalities (destination_id, personality, plan_count, visit_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING;
		`, d.ID, p.Personality, p.PlanCount, p.VisitCount); err != nil {
			return fmt.Errorf("link personality %q: %w", p.Personality, err)
		}
	}

	for _, w := range d.RecommendedTimes {
		var frameID int
		err := tx.QueryRowContext(ctx, `
		INSERT INTO time_frames (from_time, to_time) VALUES ($1, $2)
		ON CONFLICT (from_time, to_time) DO UPDATE SET from_time = EXCLUDED.from_time
		RETURNING id;
		`, int(w.From), int(w.To)).Scan(&frameID)
		if err != nil {
			return fmt.Errorf("upsert time frame %s-%s: %w", w.From, w.To, err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO destination_recommended_times (destination_id, time_frame_id, plan_count, visit_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING;
		`, d.ID, frameID, w.PlanCount, w.VisitCount); err != nil {
			return fmt.Errorf("link time frame %s-%s: %w", w.From, w.To, err)
		}
	}

	return nil
}
