package memory

import (
	"context"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"math"
	"sort"
	"sync"
	"time"
)

type data struct {
	destinations map[string]*domain.Destination
	plans        map[string]*domain.Plan
	items        map[string]*domain.ItineraryItem
	// insertion sequence keeps item order stable within a clock position
	seq     map[string]int
	nextSeq int
}

type state struct {
	mu sync.Mutex
	d  *data
}

// Store is an in-process implementation of ports.Store. All access is
// serialized by one mutex; WithinTx holds it for the whole callback and
// restores a snapshot when the callback fails.
type Store struct {
	st   *state
	inTx bool
}

func NewStore(destinations []*domain.Destination) *Store {
	d := &data{
		destinations: make(map[string]*domain.Destination, len(destinations)),
		plans:        map[string]*domain.Plan{},
		items:        map[string]*domain.ItineraryItem{},
		seq:          map[string]int{},
	}
	for _, dest := range destinations {
		d.destinations[dest.ID] = cloneDestination(dest)
	}
	return &Store{st: &state{d: d}}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *Store) Catalog() ports.DestinationCatalog { return &catalog{s: s} }

func (s *Store) Plans() ports.PlanRepository { return &planRepo{s: s} }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	snapshot := s.st.d.clone()
	if err := fn(ctx, &Store{st: s.st, inTx: true}); err != nil {
		s.st.d = snapshot
		return err
	}
	return nil
}

// Destination returns a copy of a stored destination, for assertions in tests.
func (s *Store) Destination(id string) (*domain.Destination, bool) {
	defer s.lock()()
	d, ok := s.st.d.destinations[id]
	if !ok {
		return nil, false
	}
	return cloneDestination(d), true
}

// SetDestinationStatus changes a destination's status in place, as an
// operator closing or reopening it would.
func (s *Store) SetDestinationStatus(id string, status domain.DestinationStatus) bool {
	defer s.lock()()
	d, ok := s.st.d.destinations[id]
	if ok {
		d.Status = status
	}
	return ok
}

func (d *data) clone() *data {
	c := &data{
		destinations: make(map[string]*domain.Destination, len(d.destinations)),
		plans:        make(map[string]*domain.Plan, len(d.plans)),
		items:        make(map[string]*domain.ItineraryItem, len(d.items)),
		seq:          make(map[string]int, len(d.seq)),
		nextSeq:      d.nextSeq,
	}
	for k, v := range d.destinations {
		c.destinations[k] = cloneDestination(v)
	}
	for k, v := range d.plans {
		c.plans[k] = clonePlan(v)
	}
	for k, v := range d.items {
		c.items[k] = v.Clone(v.ID)
	}
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

type catalog struct{ s *Store }

func (c *catalog) FindByID(ctx context.Context, id string) (*domain.Destination, error) {
	defer c.s.lock()()
	d, ok := c.s.st.d.destinations[id]
	if !ok {
		return nil, domain.NotFound("destination %q not found", id)
	}
	return cloneDestination(d), nil
}

func (c *catalog) FindOpenInCity(ctx context.Context, cityID string) ([]*domain.Destination, error) {
	defer c.s.lock()()
	out := make([]*domain.Destination, 0)
	for _, d := range c.s.st.d.destinations {
		if d.CityID == cityID && d.Status == domain.DestinationOpen {
			out = append(out, cloneDestination(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *catalog) IncrementPersonalityAffinity(ctx context.Context, destinationID, personality string) error {
	defer c.s.lock()()
	d, ok := c.s.st.d.destinations[destinationID]
	if !ok {
		return domain.NotFound("destination %q not found", destinationID)
	}
	for i := range d.Personalities {
		if d.Personalities[i].Personality == personality {
			d.Personalities[i].PlanCount++
			return nil
		}
	}
	d.Personalities = append(d.Personalities, domain.PersonalityAffinity{Personality: personality, PlanCount: 1})
	return nil
}

func (c *catalog) RecomputeRating(ctx context.Context, destinationID string) (domain.Rating, error) {
	defer c.s.lock()()
	d, ok := c.s.st.d.destinations[destinationID]
	if !ok {
		return domain.Rating{}, domain.NotFound("destination %q not found", destinationID)
	}

	sum, count := 0, 0
	for _, it := range c.s.st.d.items {
		if it.IsPlan || it.DestinationID != destinationID || it.Rating == nil {
			continue
		}
		sum += *it.Rating
		count++
	}

	r := domain.Rating{Count: count}
	if count > 0 {
		r.Avg = math.Floor(float64(sum)*10/float64(count)) / 10
	}
	d.AvgRating = r.Avg
	d.RatingCount = r.Count
	return r, nil
}

type planRepo struct{ s *Store }

func (r *planRepo) CreatePlan(ctx context.Context, plan *domain.Plan) error {
	defer r.s.lock()()
	if _, ok := r.s.st.d.plans[plan.ID]; ok {
		return domain.Conflict("plan %q already exists", plan.ID)
	}
	r.s.st.d.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *planRepo) GetPlan(ctx context.Context, id string) (*domain.Plan, error) {
	defer r.s.lock()()
	p, ok := r.s.st.d.plans[id]
	if !ok || p.DeletedAt != nil {
		return nil, domain.NotFound("plan %q not found", id)
	}
	return clonePlan(p), nil
}

func (r *planRepo) UpdatePlan(ctx context.Context, plan *domain.Plan) error {
	defer r.s.lock()()
	p, ok := r.s.st.d.plans[plan.ID]
	if !ok || p.DeletedAt != nil {
		return domain.NotFound("plan %q not found", plan.ID)
	}
	r.s.st.d.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *planRepo) TransitionStatus(ctx context.Context, id string, from, to domain.PlanStatus) (bool, error) {
	defer r.s.lock()()
	p, ok := r.s.st.d.plans[id]
	if !ok || p.DeletedAt != nil || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (r *planRepo) AdvanceStatuses(ctx context.Context, today, skipBefore time.Time) (int, int, error) {
	defer r.s.lock()()
	activated, skipped := 0, 0
	for _, p := range r.s.st.d.plans {
		if p.DeletedAt == nil && p.Status == domain.PlanPlanned && !p.FromDate.After(today) {
			p.Status = domain.PlanActivated
			activated++
		}
	}
	for _, p := range r.s.st.d.plans {
		if p.DeletedAt == nil && p.Status == domain.PlanActivated && !p.ToDate.After(skipBefore) {
			p.Status = domain.PlanSkipped
			skipped++
		}
	}
	return activated, skipped, nil
}

func (r *planRepo) ListPlans(ctx context.Context, f ports.PlanFilter) ([]*domain.Plan, error) {
	defer r.s.lock()()
	out := make([]*domain.Plan, 0)
	for _, p := range r.s.st.d.plans {
		if p.DeletedAt != nil || (f.TravelerID != "" && p.TravelerID != f.TravelerID) {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, p.Status) {
			continue
		}
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if f.Offset >= len(out) {
		return []*domain.Plan{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *planRepo) SoftDeletePlan(ctx context.Context, id string, at time.Time) error {
	defer r.s.lock()()
	p, ok := r.s.st.d.plans[id]
	if !ok || p.DeletedAt != nil {
		return domain.NotFound("plan %q not found", id)
	}
	p.DeletedAt = &at
	return nil
}

func (r *planRepo) PurgeSmartPlans(ctx context.Context, travelerID, keepID string) error {
	defer r.s.lock()()
	d := r.s.st.d
	for id, p := range d.plans {
		if p.TravelerID != travelerID || p.Status != domain.PlanSmart || id == keepID {
			continue
		}
		delete(d.plans, id)
		for itemID, it := range d.items {
			if it.PlanID == id {
				delete(d.items, itemID)
				delete(d.seq, itemID)
			}
		}
	}
	return nil
}

func (r *planRepo) IncrementView(ctx context.Context, id string) error {
	defer r.s.lock()()
	p, ok := r.s.st.d.plans[id]
	if !ok || p.DeletedAt != nil {
		return domain.NotFound("plan %q not found", id)
	}
	p.View++
	return nil
}

func (r *planRepo) ListItems(ctx context.Context, f ports.ItemFilter) ([]*domain.ItineraryItem, error) {
	defer r.s.lock()()
	d := r.s.st.d
	out := make([]*domain.ItineraryItem, 0)
	for _, it := range d.items {
		if matches(it, f) {
			out = append(out, it.Clone(it.ID))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPlan != b.IsPlan {
			return a.IsPlan
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Arrival != b.Arrival {
			return a.Arrival < b.Arrival
		}
		return d.seq[a.ID] < d.seq[b.ID]
	})
	return out, nil
}

func (r *planRepo) InsertItems(ctx context.Context, items []*domain.ItineraryItem) error {
	defer r.s.lock()()
	d := r.s.st.d
	for _, it := range items {
		if _, ok := d.items[it.ID]; ok {
			return domain.Conflict("itinerary item %q already exists", it.ID)
		}
		d.items[it.ID] = it.Clone(it.ID)
		d.nextSeq++
		d.seq[it.ID] = d.nextSeq
	}
	return nil
}

func (r *planRepo) UpdateItem(ctx context.Context, item *domain.ItineraryItem) error {
	defer r.s.lock()()
	if _, ok := r.s.st.d.items[item.ID]; !ok {
		return domain.NotFound("itinerary item %q not found", item.ID)
	}
	r.s.st.d.items[item.ID] = item.Clone(item.ID)
	return nil
}

func (r *planRepo) DeleteItems(ctx context.Context, f ports.ItemFilter) error {
	defer r.s.lock()()
	d := r.s.st.d
	for id, it := range d.items {
		if matches(it, f) {
			delete(d.items, id)
			delete(d.seq, id)
		}
	}
	return nil
}

func matches(it *domain.ItineraryItem, f ports.ItemFilter) bool {
	if it.PlanID != f.PlanID {
		return false
	}
	if f.IsPlan != nil && it.IsPlan != *f.IsPlan {
		return false
	}
	if f.Date != nil && !it.Date.Equal(*f.Date) {
		return false
	}
	return true
}

func hasStatus(statuses []domain.PlanStatus, s domain.PlanStatus) bool {
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}

func cloneDestination(d *domain.Destination) *domain.Destination {
	c := *d
	c.Catalogs = append([]domain.Catalog(nil), d.Catalogs...)
	c.Personalities = append([]domain.PersonalityAffinity(nil), d.Personalities...)
	c.RecommendedTimes = append([]domain.RecommendedTime(nil), d.RecommendedTimes...)
	return &c
}

func clonePlan(p *domain.Plan) *domain.Plan {
	c := *p
	if p.StayDestinationID != nil {
		v := *p.StayDestinationID
		c.StayDestinationID = &v
	}
	if p.ActualStayDestinationID != nil {
		v := *p.ActualStayDestinationID
		c.ActualStayDestinationID = &v
	}
	if p.ActualCost != nil {
		v := *p.ActualCost
		c.ActualCost = &v
	}
	if p.DeletedAt != nil {
		v := *p.DeletedAt
		c.DeletedAt = &v
	}
	return &c
}
