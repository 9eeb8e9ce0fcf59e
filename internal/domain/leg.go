package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Leg is the travel from the previous stop of the same day.
type Leg struct {
	DistanceMeters  int
	DurationSeconds int
	DistanceText    string
	DurationText    string
}

// StartLeg is the leg of the first stop of a day.
var StartLeg = Leg{DistanceText: "0m", DurationText: "0s"}

// NewLeg rounds the routing result up to whole meters and seconds and renders
// the human-readable labels.
func NewLeg(meters, seconds float64) Leg {
	d := int(math.Ceil(meters))
	s := int(math.Ceil(seconds))
	return Leg{
		DistanceMeters:  d,
		DurationSeconds: s,
		DistanceText:    FormatDistance(d),
		DurationText:    FormatDuration(s),
	}
}

// TravelMinutes is the leg duration rounded up to whole minutes.
func (l Leg) TravelMinutes() int {
	return ceilDiv(l.DurationSeconds, 60)
}

// FormatDistance renders "<n>m" below one kilometer and "<n.n>km" above.
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", meters)
	}
	km := math.Ceil(float64(meters)/100) / 10
	return strconv.FormatFloat(km, 'f', -1, 64) + "km"
}

// FormatDuration renders "<h>h<mm>p", "<h>h" or "<m>p".
func FormatDuration(seconds int) string {
	minutes := ceilDiv(seconds, 60)
	h := minutes / 60
	m := minutes % 60

	var b strings.Builder
	if h > 0 {
		fmt.Fprintf(&b, "%dh", h)
		if m > 0 && m < 10 {
			fmt.Fprintf(&b, "0%dp", m)
		} else if m > 0 {
			fmt.Fprintf(&b, "%dp", m)
		}
	} else if m > 0 {
		fmt.Fprintf(&b, "%dp", m)
	}

	if b.Len() == 0 {
		return "0p"
	}
	return b.String()
}

// DistanceEntry is one memoized routing result.
type DistanceEntry struct {
	FromID  string
	ToID    string
	Profile TravelProfile
	Leg
	Hits int
}
