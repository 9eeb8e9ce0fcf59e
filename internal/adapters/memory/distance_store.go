package memory

import (
	"context"
	"itinerary-planner-service/internal/domain"
	"sync"
)

// DistanceStore keeps distance entries in process. It has its own lock so it
// can be used while a Store transaction is open.
type DistanceStore struct {
	mu sync.Mutex
	m  map[distanceKey]domain.DistanceEntry
}

type distanceKey struct {
	from, to string
	profile  domain.TravelProfile
}

func NewDistanceStore() *DistanceStore {
	return &DistanceStore{m: map[distanceKey]domain.DistanceEntry{}}
}

func (s *DistanceStore) GetDistance(ctx context.Context, fromID, toID string, profile domain.TravelProfile) (*domain.DistanceEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[distanceKey{fromID, toID, profile}]
	if !ok {
		return nil, false, nil
	}
	return &e, true, nil
}

func (s *DistanceStore) PutDistance(ctx context.Context, e domain.DistanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := distanceKey{e.FromID, e.ToID, e.Profile}
	if old, ok := s.m[k]; ok {
		e.Hits = old.Hits
	}
	s.m[k] = e
	return nil
}

func (s *DistanceStore) IncrementHits(ctx context.Context, fromID, toID string, profile domain.TravelProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := distanceKey{fromID, toID, profile}
	if e, ok := s.m[k]; ok {
		e.Hits++
		s.m[k] = e
	}
	return nil
}

func (s *DistanceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
