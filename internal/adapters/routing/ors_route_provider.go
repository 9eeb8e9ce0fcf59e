package routing

import (
	"context"
	"encoding/json"
	"errors"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/ports"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ORSRouteProvider implements RouteProvider using the OpenRouteService
// directions API. It is safe for concurrent use.
type ORSRouteProvider struct {
	session     *http.Client
	apiKey      string
	baseURL     string
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
}

type ORSOptions struct {
	BaseURL     string
	Timeout     time.Duration
	RatePerSec  float64
	MaxAttempts int
}

func NewORSRouteProvider(apiKey string, opts ORSOptions) (*ORSRouteProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 5
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	return &ORSRouteProvider{
		session:     &http.Client{Timeout: opts.Timeout},
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		limiter:     rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
		maxAttempts: opts.MaxAttempts,
		backoff:     200 * time.Millisecond,
	}, nil
}

var orsProfiles = map[domain.TravelProfile]string{
	domain.ProfileDriving: "driving-car",
	domain.ProfileWalking: "foot-walking",
	domain.ProfileCycling: "cycling-regular",
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// Route returns the distance and duration of the fastest route between two points.
func (o *ORSRouteProvider) Route(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	profile domain.TravelProfile,
) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	orsProfile, ok := orsProfiles[profile]
	if !ok {
		orsProfile = orsProfiles[domain.ProfileDriving]
	}

	resp, err := o.postJSON(ctx, "/v2/directions/"+orsProfile, directionsRequest{
		Coordinates: [][]float64{from.CoordsToList(), to.CoordsToList()},
	})
	if err != nil {
		return ports.RouteResult{}, domain.Upstream(err, "routing service unavailable")
	}
	defer resp.Body.Close()

	var out directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.RouteResult{}, domain.Upstream(err, "routing service returned an unreadable response")
	}
	if len(out.Routes) == 0 {
		return ports.RouteResult{}, domain.Upstream(nil, "routing service found no route")
	}

	s := out.Routes[0].Summary
	return ports.RouteResult{DistanceMeters: s.Distance, DurationSeconds: s.Duration}, nil
}
