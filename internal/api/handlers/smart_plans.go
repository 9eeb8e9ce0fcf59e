package handlers

import (
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/services"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type SmartPlanHandler struct {
	Smart *services.SmartGenerator
}

// Generate replaces the caller's pending alternatives with fresh ones.
func (h *SmartPlanHandler) Generate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req dto.SmartPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, err := smartInput(req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	alts, err := h.Smart.Generate(r.Context(), travelerFrom(r.Context()), in)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	res := dto.SmartPlansResponse{Alternatives: make([]dto.PlanDetailResponse, 0, len(alts))}
	for _, a := range alts {
		res.Alternatives = append(res.Alternatives, detailResponse(a))
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func smartInput(req dto.SmartPlanRequest) (services.SmartPlanInput, error) {
	from, err := parseDate("from_date", req.FromDate)
	if err != nil {
		return services.SmartPlanInput{}, err
	}
	to, err := parseDate("to_date", req.ToDate)
	if err != nil {
		return services.SmartPlanInput{}, err
	}
	start, err := domain.ParseClock(req.StartTime)
	if err != nil {
		return services.SmartPlanInput{}, domain.InvalidInput("start_time must be formatted as HH:MM")
	}
	end, err := domain.ParseClock(req.EndTime)
	if err != nil {
		return services.SmartPlanInput{}, domain.InvalidInput("end_time must be formatted as HH:MM")
	}

	return services.SmartPlanInput{
		Name:          req.Name,
		CityID:        req.CityID,
		FromDate:      from,
		ToDate:        to,
		Start:         start,
		End:           end,
		Budget:        req.Budget,
		DailyStayCost: req.DailyStayCost,
		Personalities: req.Personalities,
	}, nil
}

func (h *SmartPlanHandler) Commit(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	plan, err := h.Smart.Commit(r.Context(), travelerFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(plan))
}
