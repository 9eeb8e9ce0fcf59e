package services

import (
	"context"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"

	"github.com/google/uuid"
)

// PlanQueries serves reads and the simple plan-level writes around the builders.
type PlanQueries struct {
	Store     ports.Store
	Calendar  Calendar
	NewID     func() string
	PageLimit int
}

func NewPlanQueries(store ports.Store, cal Calendar, pageLimit int) *PlanQueries {
	if pageLimit < 1 {
		pageLimit = 10
	}
	return &PlanQueries{Store: store, Calendar: cal, NewID: uuid.NewString, PageLimit: pageLimit}
}

// Get returns a plan visible to the traveler: their own, or another traveler's
// public one. Reads by anyone but the owner count as a view.
func (q *PlanQueries) Get(ctx context.Context, traveler domain.Traveler, planID string) (*PlanDetail, error) {
	var detail *PlanDetail
	err := q.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := visiblePlan(ctx, tx, traveler, planID)
		if err != nil {
			return err
		}

		if p.TravelerID != traveler.ID {
			if err := tx.Plans().IncrementView(ctx, p.ID); err != nil {
				return err
			}
			p.View++
		}

		detail, err = loadDetail(ctx, tx.Plans(), p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// List pages through the traveler's own plans. Listing Completed also returns
// Skipped plans; an empty status lists everything but uncommitted alternatives.
func (q *PlanQueries) List(ctx context.Context, traveler domain.Traveler, status string, page int) ([]*domain.Plan, error) {
	var statuses []domain.PlanStatus
	switch st, ok := domain.ParsePlanStatus(status); {
	case status == "":
		statuses = []domain.PlanStatus{
			domain.PlanDraft, domain.PlanPlanned, domain.PlanActivated, domain.PlanCompleted, domain.PlanSkipped,
		}
	case !ok:
		return nil, domain.InvalidInput("unknown plan status %q", status)
	case st == domain.PlanCompleted:
		statuses = []domain.PlanStatus{domain.PlanCompleted, domain.PlanSkipped}
	default:
		statuses = []domain.PlanStatus{st}
	}

	if page < 1 {
		page = 1
	}

	return q.Store.Plans().ListPlans(ctx, ports.PlanFilter{
		TravelerID: traveler.ID,
		Statuses:   statuses,
		Limit:      q.PageLimit,
		Offset:     (page - 1) * q.PageLimit,
	})
}

// Duplicate copies a visible plan's planned timeline into a new private Draft
// owned by the traveler. Only plans starting tomorrow or later can be copied.
func (q *PlanQueries) Duplicate(ctx context.Context, traveler domain.Traveler, planID string) (_ *PlanDetail, err error) {
	defer obs.Time(ctx, "plans.Duplicate")(&err)

	var detail *PlanDetail
	err = q.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		src, err := visiblePlan(ctx, tx, traveler, planID)
		if err != nil {
			return err
		}
		if !src.FromDate.After(q.Calendar.Today()) {
			return domain.InvalidInput("only plans starting tomorrow or later can be duplicated")
		}

		planned, err := tx.Plans().ListItems(ctx, ports.ItemFilter{PlanID: src.ID, IsPlan: boolPtr(true)})
		if err != nil {
			return err
		}

		p := &domain.Plan{
			ID:                q.NewID(),
			TravelerID:        traveler.ID,
			Name:              src.Name + " (copy)",
			FromDate:          src.FromDate,
			ToDate:            src.ToDate,
			StayDestinationID: src.StayDestinationID,
			EstimatedCost:     src.EstimatedCost,
			Status:            domain.PlanDraft,
			CreatedAt:         q.Calendar.now(),
		}
		if err := tx.Plans().CreatePlan(ctx, p); err != nil {
			return err
		}

		items := make([]*domain.ItineraryItem, 0, len(planned))
		for _, it := range planned {
			c := it.Clone(q.NewID())
			c.PlanID = p.ID
			c.Status = domain.ItemPlanned
			c.Rating = nil
			c.Comment = nil
			items = append(items, c)
		}
		if err := tx.Plans().InsertItems(ctx, items); err != nil {
			return err
		}

		detail = &PlanDetail{Plan: p, Planned: items}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Delete soft-deletes one of the traveler's Draft plans.
func (q *PlanQueries) Delete(ctx context.Context, traveler domain.Traveler, planID string) error {
	return q.Store.WithinTx(ctx, func(ctx context.Context, tx ports.Store) error {
		p, err := ownedPlan(ctx, tx, traveler, planID, "")
		if err != nil {
			return err
		}
		if p.Status != domain.PlanDraft {
			return domain.Conflict("only draft plans can be deleted, this plan is %s", p.Status)
		}
		return tx.Plans().SoftDeletePlan(ctx, p.ID, q.Calendar.now())
	})
}

func visiblePlan(ctx context.Context, tx ports.Store, traveler domain.Traveler, planID string) (*domain.Plan, error) {
	p, err := tx.Plans().GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if p.TravelerID != traveler.ID && (!p.IsPublic || p.Status == domain.PlanSmart) {
		return nil, domain.NotFound("plan %q not found", planID)
	}
	return p, nil
}
