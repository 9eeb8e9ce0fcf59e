package domain

import (
	"strings"
	"time"
)

type PlanStatus string

const (
	// PlanSmart marks generator output the traveler has not committed yet.
	PlanSmart     PlanStatus = "Smart"
	PlanDraft     PlanStatus = "Draft"
	PlanPlanned   PlanStatus = "Planned"
	PlanActivated PlanStatus = "Activated"
	PlanCompleted PlanStatus = "Completed"
	PlanSkipped   PlanStatus = "Skipped"
)

// ParsePlanStatus matches a status name case-insensitively.
func ParsePlanStatus(s string) (PlanStatus, bool) {
	for _, st := range []PlanStatus{PlanSmart, PlanDraft, PlanPlanned, PlanActivated, PlanCompleted, PlanSkipped} {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// Plan is one itinerary owned by a traveler.
type Plan struct {
	ID                      string
	TravelerID              string
	Name                    string
	FromDate                time.Time
	ToDate                  time.Time
	StayDestinationID       *string
	ActualStayDestinationID *string
	EstimatedCost           int
	ActualCost              *int
	IsPublic                bool
	View                    int
	Point                   float64
	Status                  PlanStatus
	CreatedAt               time.Time
	DeletedAt               *time.Time
}

// Days is the inclusive length of the date range.
func (p *Plan) Days() int { return DaysBetween(p.FromDate, p.ToDate) + 1 }

// HasActualTimeline reports whether the plan has been executed far enough to
// carry an actual timeline.
func (p *Plan) HasActualTimeline() bool {
	switch p.Status {
	case PlanPlanned, PlanActivated, PlanCompleted, PlanSkipped:
		return true
	}
	return false
}

// Traveler is the identity the engine reads, never authenticates.
type Traveler struct {
	ID            string
	Personalities []string
}
