package services

import (
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/ports"
	"sort"
	"time"
)

const maxRating = 5.0

// scored is a destination with its relevance value and cost/time-penalized point.
type scored struct {
	dest  *domain.Destination
	value float64
	point float64
}

// scoreDestinations ranks a pool by relevance. Each term is normalized by the
// pool maximum: popularity, recency (x2), rating (x3) and personality affinity
// (x4). Unrated destinations and destinations without affinity history draw a
// placeholder in [0.25, 0.75). The value is then divided by the visit-length
// and price penalty. The result is sorted best first.
func scoreDestinations(
	dests []*domain.Destination,
	personalities []string,
	now time.Time,
	rnd ports.RandomSource,
) []scored {
	var maxView, maxAffinity, maxVisit int
	var maxAge, maxAvg float64

	ages := make([]float64, len(dests))
	affinity := make([]int, len(dests))
	for i, d := range dests {
		maxView = max(maxView, d.View)
		affinity[i] = d.Affinity(personalities)
		maxAffinity = max(maxAffinity, affinity[i])
		maxVisit = max(maxVisit, d.VisitDuration)
		maxAvg = max(maxAvg, midpoint(d))

		ages[i] = -1
		if !d.CreatedAt.IsZero() {
			ages[i] = now.Sub(d.CreatedAt).Hours() / 24
			maxAge = max(maxAge, ages[i])
		}
	}

	out := make([]scored, 0, len(dests))
	for i, d := range dests {
		rating := placeholder(rnd)
		if d.AvgRating > 0 {
			rating = d.AvgRating / maxRating
		}

		aff := placeholder(rnd)
		if affinity[i] > 0 {
			aff = ratio(float64(affinity[i]), float64(maxAffinity))
		}

		recency := 0.0
		if ages[i] >= 0 {
			recency = ratio(maxAge-ages[i], maxAge)
		}

		value := ratio(float64(d.View), float64(maxView)) +
			recency*2 +
			rating*3 +
			aff*4

		penalty := ratio(float64(d.VisitDuration), float64(maxVisit))*5 + ratio(midpoint(d), maxAvg)*5
		point := value
		if penalty > 0 {
			point = value / penalty
		}

		out = append(out, scored{dest: d, value: value, point: point})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].point != out[j].point {
			return out[i].point > out[j].point
		}
		return out[i].dest.ID < out[j].dest.ID
	})
	return out
}

func placeholder(rnd ports.RandomSource) float64 { return rnd.Float64()*0.5 + 0.25 }

func ratio(v, maxV float64) float64 {
	if maxV <= 0 {
		return 0
	}
	return v / maxV
}

func midpoint(d *domain.Destination) float64 {
	return float64(d.LowestPrice+d.HighestPrice) / 2
}
