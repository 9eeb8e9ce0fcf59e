package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore is the Postgres-backed implementation of ports.Store.
type PostgresStore struct {
	DB *sql.DB

	q    querier
	inTx bool
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, q: db}
}

func (s *PostgresStore) Catalog() ports.DestinationCatalog { return &pgCatalog{q: s.q} }

func (s *PostgresStore) Plans() ports.PlanRepository { return &pgPlans{q: s.q} }

// WithinTx runs fn in one transaction. Nested calls join the outer one.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) (err error) {
	if s.inTx {
		return fn(ctx, s)
	}
	if s.DB == nil {
		return errors.New("postgres store: DB is nil")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres store: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				obs.Logger(ctx).WithError(rbErr).Warn("rollback failed")
			}
		}
	}()

	if err = fn(ctx, &PostgresStore{DB: s.DB, q: tx, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("postgres store: commit tx: %w", err)
	}
	return nil
}

// translate maps constraint violations onto domain error kinds.
func translate(err error, format string, args ...any) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return domain.Conflict(format+": already exists", args...)
		case "23503":
			return domain.NotFound(format+": referenced row does not exist", args...)
		}
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

type pgCatalog struct{ q querier }

const destinationColumns = `
	id, name, image, city_id, lon, lat, lowest_price, highest_price,
	opening_time, closing_time, visit_duration, status, view_count,
	avg_rating, rating_count, created_at
`

func (c *pgCatalog) FindByID(ctx context.Context, id string) (*domain.Destination, error) {
	dests, err := c.load(ctx, `WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find destination %q: %w", id, err)
	}
	if len(dests) == 0 {
		return nil, domain.NotFound("destination %q not found", id)
	}
	return dests[0], nil
}

func (c *pgCatalog) FindOpenInCity(ctx context.Context, cityID string) ([]*domain.Destination, error) {
	dests, err := c.load(ctx, `WHERE city_id = $1 AND status = $2`, cityID, string(domain.DestinationOpen))
	if err != nil {
		return nil, fmt.Errorf("find destinations in city %q: %w", cityID, err)
	}
	return dests, nil
}

// load reads destinations matching where and attaches their catalogs,
// personality counters and recommended time windows.
func (c *pgCatalog) load(ctx context.Context, where string, args ...any) ([]*domain.Destination, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT `+destinationColumns+` FROM destinations `+where+` ORDER BY id;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query destinations table: %w", err)
	}
	defer rows.Close()

	dests := make([]*domain.Destination, 0, 16)
	byID := make(map[string]*domain.Destination)
	ids := make([]string, 0, 16)
	for rows.Next() {
		d := &domain.Destination{}
		var open, closing int
		var status string
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Image, &d.CityID, &d.Coordinates.Lon, &d.Coordinates.Lat,
			&d.LowestPrice, &d.HighestPrice, &open, &closing, &d.VisitDuration, &status,
			&d.View, &d.AvgRating, &d.RatingCount, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan destination row: %w", err)
		}
		d.OpeningTime = domain.ClockTime(open)
		d.ClosingTime = domain.ClockTime(closing)
		d.Status = domain.DestinationStatus(status)
		dests = append(dests, d)
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("destination row iteration: %w", err)
	}
	if len(ids) == 0 {
		return dests, nil
	}

	if err := c.attachCatalogs(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := c.attachPersonalities(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := c.attachRecommendedTimes(ctx, ids, byID); err != nil {
		return nil, err
	}
	return dests, nil
}

func (c *pgCatalog) attachCatalogs(ctx context.Context, ids []string, byID map[string]*domain.Destination) error {
	rows, err := c.q.QueryContext(ctx, `
	SELECT dc.destination_id, c.name, c.parent
	FROM destination_catalogs dc
	JOIN catalogs c ON c.name = dc.catalog_name
	WHERE dc.destination_id = ANY($1)
	ORDER BY dc.destination_id, c.name;
	`, ids)
	if err != nil {
		return fmt.Errorf("query destination catalogs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var cat domain.Catalog
		if err := rows.Scan(&id, &cat.Name, &cat.Parent); err != nil {
			return fmt.Errorf("scan destination catalog: %w", err)
		}
		byID[id].Catalogs = append(byID[id].Catalogs, cat)
	}
	return rows.Err()
}

func (c *pgCatalog) attachPersonalities(ctx context.Context, ids []string, byID map[string]*domain.Destination) error {
	rows, err := c.q.QueryContext(ctx, `
	SELECT destination_id, personality, plan_count, visit_count
	FROM destination_personalities
	WHERE destination_id = ANY($1)
	ORDER BY destination_id, personality;
	`, ids)
	if err != nil {
		return fmt.Errorf("query destination personalities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var a domain.PersonalityAffinity
		if err := rows.Scan(&id, &a.Personality, &a.PlanCount, &a.VisitCount); err != nil {
			return fmt.Errorf("scan destination personality: %w", err)
		}
		byID[id].Personalities = append(byID[id].Personalities, a)
	}
	return rows.Err()
}

func (c *pgCatalog) attachRecommendedTimes(ctx context.Context, ids []string, byID map[string]*domain.Destination) error {
	rows, err := c.q.QueryContext(ctx, `
	SELECT rt.destination_id, tf.from_time, tf.to_time, rt.plan_count, rt.visit_count
	FROM destination_recommended_times rt
	JOIN time_frames tf ON tf.id = rt.time_frame_id
	WHERE rt.destination_id = ANY($1)
	ORDER BY rt.destination_id, tf.from_time;
	`, ids)
	if err != nil {
		return fmt.Errorf("query recommended times: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var from, to int
		var w domain.RecommendedTime
		if err := rows.Scan(&id, &from, &to, &w.PlanCount, &w.VisitCount); err != nil {
			return fmt.Errorf("scan recommended time: %w", err)
		}
		w.From, w.To = domain.ClockTime(from), domain.ClockTime(to)
		byID[id].RecommendedTimes = append(byID[id].RecommendedTimes, w)
	}
	return rows.Err()
}

func (c *pgCatalog) IncrementPersonalityAffinity(ctx context.Context, destinationID, personality string) error {
	_, err := c.q.ExecContext(ctx, `
	INSERT INTO destination_personalities (destination_id, personality, plan_count, visit_count)
	VALUES ($1, $2, 1, 0)
	ON CONFLICT (destination_id, personality) DO UPDATE
	SET plan_count = destination_personalities.plan_count + 1;
	`, destinationID, personality)
	if err != nil {
		return translate(err, "increment affinity %q/%q", destinationID, personality)
	}
	return nil
}

func (c *pgCatalog) RecomputeRating(ctx context.Context, destinationID string) (domain.Rating, error) {
	var sum, count int
	err := c.q.QueryRowContext(ctx, `
	SELECT COALESCE(SUM(rating), 0), COUNT(rating)
	FROM plan_destinations
	WHERE destination_id = $1 AND is_plan = false AND rating IS NOT NULL;
	`, destinationID).Scan(&sum, &count)
	if err != nil {
		return domain.Rating{}, fmt.Errorf("recompute rating %q: %w", destinationID, err)
	}

	r := domain.Rating{Count: count}
	if count > 0 {
		r.Avg = math.Floor(float64(sum)*10/float64(count)) / 10
	}

	res, err := c.q.ExecContext(ctx, `
	UPDATE destinations SET avg_rating = $2, rating_count = $3 WHERE id = $1;
	`, destinationID, r.Avg, r.Count)
	if err != nil {
		return domain.Rating{}, fmt.Errorf("recompute rating %q: update: %w", destinationID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Rating{}, domain.NotFound("destination %q not found", destinationID)
	}
	return r, nil
}

type pgPlans struct{ q querier }

const planColumns = `
	id, traveler_id, name, from_date, to_date, stay_destination_id,
	actual_stay_destination_id, estimated_cost, actual_cost, is_public,
	view_count, point, status, created_at, deleted_at
`

type scanner interface{ Scan(dest ...any) error }

func scanPlan(row scanner) (*domain.Plan, error) {
	p := &domain.Plan{}
	var status string
	err := row.Scan(
		&p.ID, &p.TravelerID, &p.Name, &p.FromDate, &p.ToDate, &p.StayDestinationID,
		&p.ActualStayDestinationID, &p.EstimatedCost, &p.ActualCost, &p.IsPublic,
		&p.View, &p.Point, &status, &p.CreatedAt, &p.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	p.FromDate = domain.CivilDate(p.FromDate)
	p.ToDate = domain.CivilDate(p.ToDate)
	p.Status = domain.PlanStatus(status)
	return p, nil
}

func (r *pgPlans) CreatePlan(ctx context.Context, p *domain.Plan) error {
	_, err := r.q.ExecContext(ctx, `
	INSERT INTO plans (`+planColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`,
		p.ID, p.TravelerID, p.Name, p.FromDate, p.ToDate, nullable(p.StayDestinationID),
		nullable(p.ActualStayDestinationID), p.EstimatedCost, nullable(p.ActualCost), p.IsPublic,
		p.View, p.Point, string(p.Status), p.CreatedAt, nullable(p.DeletedAt),
	)
	if err != nil {
		return translate(err, "create plan %q", p.ID)
	}
	return nil
}

func (r *pgPlans) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1 AND deleted_at IS NULL;`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("plan %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %q: %w", id, err)
	}
	return p, nil
}

func (r *pgPlans) UpdatePlan(ctx context.Context, p *domain.Plan) error {
	res, err := r.q.ExecContext(ctx, `
	UPDATE plans
	SET name = $2,
		from_date = $3,
		to_date = $4,
		stay_destination_id = $5,
		actual_stay_destination_id = $6,
		estimated_cost = $7,
		actual_cost = $8,
		is_public = $9,
		point = $10,
		status = $11
	WHERE id = $1 AND deleted_at IS NULL;
	`,
		p.ID, p.Name, p.FromDate, p.ToDate, nullable(p.StayDestinationID),
		nullable(p.ActualStayDestinationID), p.EstimatedCost, nullable(p.ActualCost),
		p.IsPublic, p.Point, string(p.Status),
	)
	if err != nil {
		return translate(err, "update plan %q", p.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("plan %q not found", p.ID)
	}
	return nil
}

func (r *pgPlans) TransitionStatus(ctx context.Context, id string, from, to domain.PlanStatus) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
	UPDATE plans SET status = $3 WHERE id = $1 AND status = $2 AND deleted_at IS NULL;
	`, id, string(from), string(to))
	if err != nil {
		return false, fmt.Errorf("transition plan %q %s -> %s: %w", id, from, to, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition plan %q: rows affected: %w", id, err)
	}
	return n == 1, nil
}

func (r *pgPlans) AdvanceStatuses(ctx context.Context, today, skipBefore time.Time) (int, int, error) {
	res, err := r.q.ExecContext(ctx, `
	UPDATE plans SET status = $1
	WHERE status = $2 AND from_date <= $3 AND deleted_at IS NULL;
	`, string(domain.PlanActivated), string(domain.PlanPlanned), today)
	if err != nil {
		return 0, 0, fmt.Errorf("activate plans: %w", err)
	}
	activated, _ := res.RowsAffected()

	res, err = r.q.ExecContext(ctx, `
	UPDATE plans SET status = $1
	WHERE status = $2 AND to_date <= $3 AND deleted_at IS NULL;
	`, string(domain.PlanSkipped), string(domain.PlanActivated), skipBefore)
	if err != nil {
		return 0, 0, fmt.Errorf("skip plans: %w", err)
	}
	skipped, _ := res.RowsAffected()

	return int(activated), int(skipped), nil
}

func (r *pgPlans) ListPlans(ctx context.Context, f ports.PlanFilter) ([]*domain.Plan, error) {
	statuses := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	var limit any
	if f.Limit > 0 {
		limit = f.Limit
	}

	rows, err := r.q.QueryContext(ctx, `
	SELECT `+planColumns+`
	FROM plans
	WHERE deleted_at IS NULL
		AND ($1::text = '' OR traveler_id = $1)
		AND (cardinality($2::text[]) = 0 OR status = ANY($2))
	ORDER BY created_at DESC, id
	LIMIT $3 OFFSET $4;
	`, f.TravelerID, statuses, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: query plans table: %w", err)
	}
	defer rows.Close()

	plans := make([]*domain.Plan, 0, 16)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("list plans: scan row: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: row iteration: %w", err)
	}
	return plans, nil
}

func (r *pgPlans) SoftDeletePlan(ctx context.Context, id string, at time.Time) error {
	res, err := r.q.ExecContext(ctx, `
	UPDATE plans SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL;
	`, id, at)
	if err != nil {
		return fmt.Errorf("delete plan %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("plan %q not found", id)
	}
	return nil
}

func (r *pgPlans) PurgeSmartPlans(ctx context.Context, travelerID, keepID string) error {
	_, err := r.q.ExecContext(ctx, `
	DELETE FROM plans WHERE traveler_id = $1 AND status = $2 AND id <> $3;
	`, travelerID, string(domain.PlanSmart), keepID)
	if err != nil {
		return fmt.Errorf("purge smart plans of %q: %w", travelerID, err)
	}
	return nil
}

func (r *pgPlans) IncrementView(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
	UPDATE plans SET view_count = view_count + 1 WHERE id = $1 AND deleted_at IS NULL;
	`, id)
	if err != nil {
		return fmt.Errorf("increment plan view %q: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("plan %q not found", id)
	}
	return nil
}

const itemColumns = `
	id, plan_id, destination_id, destination_name, destination_image, date,
	arrival, departure, profile, distance_meters, duration_seconds,
	distance_text, duration_text, is_plan, status, rating, comment
`

const itemFilter = `
	WHERE plan_id = $1
		AND ($2::boolean IS NULL OR is_plan = $2)
		AND ($3::date IS NULL OR date = $3)
`

func (r *pgPlans) ListItems(ctx context.Context, f ports.ItemFilter) ([]*domain.ItineraryItem, error) {
	rows, err := r.q.QueryContext(ctx, `
	SELECT `+itemColumns+`
	FROM plan_destinations
	`+itemFilter+`
	ORDER BY is_plan DESC, date, arrival, seq;
	`, f.PlanID, nullable(f.IsPlan), nullable(f.Date))
	if err != nil {
		return nil, fmt.Errorf("list items of plan %q: %w", f.PlanID, err)
	}
	defer rows.Close()

	items := make([]*domain.ItineraryItem, 0, 16)
	for rows.Next() {
		it := &domain.ItineraryItem{}
		var arrival, departure int
		var profile, status string
		if err := rows.Scan(
			&it.ID, &it.PlanID, &it.DestinationID, &it.DestinationName, &it.DestinationImage, &it.Date,
			&arrival, &departure, &profile, &it.Leg.DistanceMeters, &it.Leg.DurationSeconds,
			&it.Leg.DistanceText, &it.Leg.DurationText, &it.IsPlan, &status, &it.Rating, &it.Comment,
		); err != nil {
			return nil, fmt.Errorf("list items: scan row: %w", err)
		}
		it.Date = domain.CivilDate(it.Date)
		it.Arrival, it.Departure = domain.ClockTime(arrival), domain.ClockTime(departure)
		it.Profile = domain.TravelProfile(profile)
		it.Status = domain.ItemStatus(status)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: row iteration: %w", err)
	}
	return items, nil
}

func (r *pgPlans) InsertItems(ctx context.Context, items []*domain.ItineraryItem) error {
	for _, it := range items {
		_, err := r.q.ExecContext(ctx, `
		INSERT INTO plan_destinations (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
		`,
			it.ID, it.PlanID, it.DestinationID, it.DestinationName, it.DestinationImage, it.Date,
			int(it.Arrival), int(it.Departure), string(it.Profile), it.Leg.DistanceMeters, it.Leg.DurationSeconds,
			it.Leg.DistanceText, it.Leg.DurationText, it.IsPlan, string(it.Status), nullable(it.Rating), nullable(it.Comment),
		)
		if err != nil {
			return translate(err, "insert itinerary item %q", it.ID)
		}
	}
	return nil
}

func (r *pgPlans) UpdateItem(ctx context.Context, it *domain.ItineraryItem) error {
	res, err := r.q.ExecContext(ctx, `
	UPDATE plan_destinations
	SET destination_name = $2,
		destination_image = $3,
		date = $4,
		arrival = $5,
		departure = $6,
		status = $7,
		rating = $8,
		comment = $9
	WHERE id = $1;
	`,
		it.ID, it.DestinationName, it.DestinationImage, it.Date, int(it.Arrival), int(it.Departure),
		string(it.Status), nullable(it.Rating), nullable(it.Comment),
	)
	if err != nil {
		return fmt.Errorf("update itinerary item %q: %w", it.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("itinerary item %q not found", it.ID)
	}
	return nil
}

func (r *pgPlans) DeleteItems(ctx context.Context, f ports.ItemFilter) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM plan_destinations `+itemFilter+`;`,
		f.PlanID, nullable(f.IsPlan), nullable(f.Date))
	if err != nil {
		return fmt.Errorf("delete items of plan %q: %w", f.PlanID, err)
	}
	return nil
}
