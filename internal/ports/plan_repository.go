package ports

import (
	"context"
	"itinerary-planner-service/internal/domain"
	"time"
)

type PlanFilter struct {
	TravelerID string
	Statuses   []domain.PlanStatus
	Limit      int
	Offset     int
}

// ItemFilter selects itinerary items of one plan. Nil fields do not filter.
type ItemFilter struct {
	PlanID string
	IsPlan *bool
	Date   *time.Time
}

// Port: persistence of plans and their itinerary items.
type PlanRepository interface {
	CreatePlan(ctx context.Context, plan *domain.Plan) error
	// Return domain.ErrNotFound for unknown or soft-deleted plans.
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
	UpdatePlan(ctx context.Context, plan *domain.Plan) error
	// Flip status only when the stored status equals from. Reports whether a row changed.
	TransitionStatus(ctx context.Context, id string, from, to domain.PlanStatus) (bool, error)
	// Planned plans starting on or before today become Activated; Activated plans
	// that ended on or before skipBefore become Skipped.
	AdvanceStatuses(ctx context.Context, today, skipBefore time.Time) (activated, skipped int, err error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]*domain.Plan, error)
	SoftDeletePlan(ctx context.Context, id string, at time.Time) error
	// Hard-delete the traveler's Smart plans except keepID, with their items.
	PurgeSmartPlans(ctx context.Context, travelerID, keepID string) error
	IncrementView(ctx context.Context, id string) error

	ListItems(ctx context.Context, filter ItemFilter) ([]*domain.ItineraryItem, error)
	InsertItems(ctx context.Context, items []*domain.ItineraryItem) error
	UpdateItem(ctx context.Context, item *domain.ItineraryItem) error
	DeleteItems(ctx context.Context, filter ItemFilter) error
}
