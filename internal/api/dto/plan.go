package dto

import (
	"itinerary-planner-service/internal/domain"
	"time"
)

// Dates travel as "2006-01-02" and clock times as "15:04".

type StopRequest struct {
	DestinationID string `json:"destination_id"`
	Profile       string `json:"profile"`
	Arrival       string `json:"arrival"`
	Departure     string `json:"departure"`
	Status        string `json:"status"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type DayRequest struct {
	Date  string        `json:"date"`
	Stops []StopRequest `json:"stops"`
}

type CreatePlanRequest struct {
	Name              string       `json:"name"`
	FromDate          string       `json:"from_date"`
	ToDate            string       `json:"to_date"`
	StayDestinationID *string      `json:"stay_destination_id"`
	IsPublic          bool         `json:"is_public"`
	Days              []DayRequest `json:"days"`
}

// UpdatePlanRequest: omitting stay_destination_id keeps it, null clears it.
type UpdatePlanRequest struct {
	Name              *string                 `json:"name"`
	IsPublic          *bool                   `json:"is_public"`
	FromDate          string                  `json:"from_date"`
	ToDate            string                  `json:"to_date"`
	StayDestinationID domain.Optional[string] `json:"stay_destination_id"`
	Days              []DayRequest            `json:"days"`
}

type CheckInRequest struct {
	StayDestinationID domain.Optional[string] `json:"stay_destination_id"`
	TotalCost         *int                    `json:"total_cost"`
	Days              []DayRequest            `json:"days"`
}

type SmartPlanRequest struct {
	Name          string   `json:"name"`
	CityID        string   `json:"city_id"`
	FromDate      string   `json:"from_date"`
	ToDate        string   `json:"to_date"`
	StartTime     string   `json:"start_time"`
	EndTime       string   `json:"end_time"`
	Budget        int      `json:"budget"`
	DailyStayCost int      `json:"daily_stay_cost"`
	Personalities []string `json:"personalities"`
}

type DistanceRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Profile string `json:"profile"`
}

type LegResponse struct {
	DistanceMeters  int    `json:"distance_meters"`
	DurationSeconds int    `json:"duration_seconds"`
	DistanceText    string `json:"distance_text"`
	DurationText    string `json:"duration_text"`
}

type ItemResponse struct {
	ID               string      `json:"id"`
	DestinationID    string      `json:"destination_id"`
	DestinationName  string      `json:"destination_name"`
	DestinationImage string      `json:"destination_image,omitempty"`
	Date             string      `json:"date"`
	Arrival          string      `json:"arrival"`
	Departure        string      `json:"departure"`
	Profile          string      `json:"profile"`
	Leg              LegResponse `json:"leg"`
	Status           string      `json:"status"`
	Rating           *int        `json:"rating,omitempty"`
	Comment          *string     `json:"comment,omitempty"`
}

type PlanResponse struct {
	ID                      string    `json:"id"`
	TravelerID              string    `json:"traveler_id"`
	Name                    string    `json:"name"`
	FromDate                string    `json:"from_date"`
	ToDate                  string    `json:"to_date"`
	StayDestinationID       *string   `json:"stay_destination_id"`
	ActualStayDestinationID *string   `json:"actual_stay_destination_id,omitempty"`
	EstimatedCost           int       `json:"estimated_cost"`
	ActualCost              *int      `json:"actual_cost,omitempty"`
	IsPublic                bool      `json:"is_public"`
	View                    int       `json:"view"`
	Point                   float64   `json:"point,omitempty"`
	Status                  string    `json:"status"`
	CreatedAt               time.Time `json:"created_at"`
}

type PlanDetailResponse struct {
	Plan    PlanResponse   `json:"plan"`
	Planned []ItemResponse `json:"planned"`
	Actual  []ItemResponse `json:"actual,omitempty"`
}

type ListPlansResponse struct {
	Plans []PlanResponse `json:"plans"`
	Page  int            `json:"page"`
}

type SmartPlansResponse struct {
	Alternatives []PlanDetailResponse `json:"alternatives"`
}

func NewLegResponse(l domain.Leg) LegResponse {
	return LegResponse{
		DistanceMeters:  l.DistanceMeters,
		DurationSeconds: l.DurationSeconds,
		DistanceText:    l.DistanceText,
		DurationText:    l.DurationText,
	}
}

func NewPlanResponse(p *domain.Plan) PlanResponse {
	return PlanResponse{
		ID:                      p.ID,
		TravelerID:              p.TravelerID,
		Name:                    p.Name,
		FromDate:                domain.FormatDate(p.FromDate),
		ToDate:                  domain.FormatDate(p.ToDate),
		StayDestinationID:       p.StayDestinationID,
		ActualStayDestinationID: p.ActualStayDestinationID,
		EstimatedCost:           p.EstimatedCost,
		ActualCost:              p.ActualCost,
		IsPublic:                p.IsPublic,
		View:                    p.View,
		Point:                   p.Point,
		Status:                  string(p.Status),
		CreatedAt:               p.CreatedAt,
	}
}

func NewItemResponses(items []*domain.ItineraryItem) []ItemResponse {
	if items == nil {
		return nil
	}
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			ID:               it.ID,
			DestinationID:    it.DestinationID,
			DestinationName:  it.DestinationName,
			DestinationImage: it.DestinationImage,
			Date:             domain.FormatDate(it.Date),
			Arrival:          it.Arrival.String(),
			Departure:        it.Departure.String(),
			Profile:          string(it.Profile),
			Leg:              NewLegResponse(it.Leg),
			Status:           string(it.Status),
			Rating:           it.Rating,
			Comment:          it.Comment,
		})
	}
	return out
}

func NewPlanDetailResponse(plan *domain.Plan, planned, actual []*domain.ItineraryItem) PlanDetailResponse {
	res := PlanDetailResponse{
		Plan:    NewPlanResponse(plan),
		Planned: NewItemResponses(planned),
		Actual:  NewItemResponses(actual),
	}
	if res.Planned == nil {
		res.Planned = []ItemResponse{}
	}
	return res
}
