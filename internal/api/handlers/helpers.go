package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/platform/obs"
	"itinerary-planner-service/internal/services"
	"net/http"
	"time"
)

type travelerKey struct{}

// WithTraveler stores the authenticated traveler on the request context.
func WithTraveler(ctx context.Context, t domain.Traveler) context.Context {
	return context.WithValue(ctx, travelerKey{}, t)
}

func travelerFrom(ctx context.Context) domain.Traveler {
	t, _ := ctx.Value(travelerKey{}).(domain.Traveler)
	return t
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.Logger(r.Context()).WithError(err).Warn("encode response failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// WriteServiceError maps a service error onto its HTTP status. Internal and
// upstream details are logged, never returned.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.ErrInvalidInput:
			writeError(w, r, http.StatusBadRequest, de.Msg)
			return
		case domain.ErrNotFound:
			writeError(w, r, http.StatusNotFound, de.Msg)
			return
		case domain.ErrConflict:
			writeError(w, r, http.StatusConflict, de.Msg)
			return
		case domain.ErrUpstream:
			obs.Logger(r.Context()).WithError(err).Warn("upstream failure")
			writeError(w, r, http.StatusBadGateway, "routing service unavailable, please retry later")
			return
		}
	}

	obs.Logger(r.Context()).WithError(err).Error("request failed")
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}

// decodeJSON reads exactly one JSON object and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func parseDate(field, s string) (t time.Time, err error) {
	t, err = domain.ParseDate(s)
	if err != nil {
		return t, domain.InvalidInput("%s must be a date formatted as YYYY-MM-DD", field)
	}
	return t, nil
}

func toDays(days []dto.DayRequest) ([]services.DayInput, error) {
	out := make([]services.DayInput, 0, len(days))
	for i, d := range days {
		date, err := domain.ParseDate(d.Date)
		if err != nil {
			return nil, domain.InvalidInput("day %d: date must be formatted as YYYY-MM-DD", i+1)
		}

		stops := make([]services.StopInput, 0, len(d.Stops))
		for _, s := range d.Stops {
			stops = append(stops, services.StopInput{
				DestinationID: s.DestinationID,
				Profile:       s.Profile,
				Arrival:       s.Arrival,
				Departure:     s.Departure,
				Status:        s.Status,
				Rating:        s.Rating,
				Comment:       s.Comment,
			})
		}
		out = append(out, services.DayInput{Date: date, Stops: stops})
	}
	return out, nil
}

func detailResponse(d *services.PlanDetail) dto.PlanDetailResponse {
	return dto.NewPlanDetailResponse(d.Plan, d.Planned, d.Actual)
}
