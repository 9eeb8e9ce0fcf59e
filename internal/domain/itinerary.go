package domain

import "time"

type ItemStatus string

const (
	ItemPlanned   ItemStatus = "Planned"
	ItemCheckedIn ItemStatus = "Checked-in"
	ItemNew       ItemStatus = "New"
	ItemSkipped   ItemStatus = "Skipped"
)

func ParseItemStatus(s string) (ItemStatus, bool) {
	switch st := ItemStatus(s); st {
	case ItemPlanned, ItemCheckedIn, ItemNew, ItemSkipped:
		return st, true
	}
	return "", false
}

// ItineraryItem is one visit within a plan. IsPlan separates the planned
// timeline from the actual one; both live under the same plan.
type ItineraryItem struct {
	ID            string
	PlanID        string
	DestinationID string
	// Snapshot of the destination at the time the item was written.
	DestinationName  string
	DestinationImage string
	Date             time.Time
	Arrival          ClockTime
	Departure        ClockTime
	Profile          TravelProfile
	Leg              Leg
	IsPlan           bool
	Status           ItemStatus
	Rating           *int
	Comment          *string
}

// Clone copies the item with a fresh id.
func (it *ItineraryItem) Clone(id string) *ItineraryItem {
	c := *it
	c.ID = id
	if it.Rating != nil {
		r := *it.Rating
		c.Rating = &r
	}
	if it.Comment != nil {
		s := *it.Comment
		c.Comment = &s
	}
	return &c
}
