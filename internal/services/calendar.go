package services

import (
	"itinerary-planner-service/internal/domain"
	"math/rand/v2"
	"time"
)

// Calendar answers "what day is it" in the planner's time zone.
type Calendar struct {
	Now      func() time.Time
	Location *time.Location
}

func NewCalendar(loc *time.Location) Calendar {
	return Calendar{Now: time.Now, Location: loc}
}

func (c Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Today is the current civil date.
func (c Calendar) Today() time.Time {
	now := c.now()
	if c.Location != nil {
		now = now.In(c.Location)
	}
	return domain.CivilDate(now)
}

// globalRandom is backed by the goroutine-safe top-level math/rand/v2 functions.
type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

// NewSeededRandom returns a deterministic source. Not safe for concurrent use.
func NewSeededRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
