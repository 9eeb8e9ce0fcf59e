package domain

import (
	"strings"
	"time"
)

type DestinationStatus string

const (
	DestinationOpen        DestinationStatus = "Open"
	DestinationClosed      DestinationStatus = "Closed"
	DestinationDeactivated DestinationStatus = "Deactivated"
)

// LodgingCatalog is the catalog tag (or parent tag) that marks overnight accommodation.
const LodgingCatalog = "lodging"

type Catalog struct {
	Name   string
	Parent string
}

// PersonalityAffinity counts how often travelers with a personality planned or
// visited a destination.
type PersonalityAffinity struct {
	Personality string
	PlanCount   int
	VisitCount  int
}

// RecommendedTime is a time window in which a destination is worth visiting,
// with its own historical counters.
type RecommendedTime struct {
	From       ClockTime
	To         ClockTime
	PlanCount  int
	VisitCount int
}

// Destination is a bookable place in a city.
type Destination struct {
	ID            string
	Name          string
	Image         string
	CityID        string
	Coordinates   Coordinates
	LowestPrice   int
	HighestPrice  int
	OpeningTime   ClockTime
	ClosingTime   ClockTime
	VisitDuration int
	Status        DestinationStatus
	View          int
	AvgRating     float64
	RatingCount   int
	CreatedAt     time.Time

	Catalogs         []Catalog
	Personalities    []PersonalityAffinity
	RecommendedTimes []RecommendedTime
}

// AvgPrice is the rounded-up midpoint of the price range.
func (d *Destination) AvgPrice() int {
	return ceilDiv(d.LowestPrice+d.HighestPrice, 2)
}

func (d *Destination) IsLodging() bool {
	for _, c := range d.Catalogs {
		if strings.EqualFold(c.Name, LodgingCatalog) || strings.EqualFold(c.Parent, LodgingCatalog) {
			return true
		}
	}
	return false
}

// HasAnyPersonality reports whether the destination has an affinity row for one
// of the given personalities.
func (d *Destination) HasAnyPersonality(personalities []string) bool {
	for _, a := range d.Personalities {
		for _, p := range personalities {
			if a.Personality == p {
				return true
			}
		}
	}
	return false
}

// Affinity sums plan counts and double-weighted visit counts. With no filter
// every personality row counts.
func (d *Destination) Affinity(personalities []string) int {
	total := 0
	for _, a := range d.Personalities {
		if len(personalities) > 0 && !contains(personalities, a.Personality) {
			continue
		}
		total += a.PlanCount + 2*a.VisitCount
	}
	return total
}

// Rating is the aggregate of all rated actual visits of a destination.
type Rating struct {
	Avg   float64
	Count int
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return a / b
	}
	return (a + b - 1) / b
}
