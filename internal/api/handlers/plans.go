package handlers

import (
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/services"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
)

// PlanHandler exposes manual planning, plan lifecycle and plan reads.
type PlanHandler struct {
	Builder   *services.ManualBuilder
	Lifecycle *services.Lifecycle
	Queries   *services.PlanQueries
}

func (h *PlanHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req dto.CreatePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in, err := createInput(req)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	detail, err := h.Builder.Create(r.Context(), travelerFrom(r.Context()), in)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, detailResponse(detail))
}

func createInput(req dto.CreatePlanRequest) (services.PlanInput, error) {
	from, err := parseDate("from_date", req.FromDate)
	if err != nil {
		return services.PlanInput{}, err
	}
	to, err := parseDate("to_date", req.ToDate)
	if err != nil {
		return services.PlanInput{}, err
	}
	days, err := toDays(req.Days)
	if err != nil {
		return services.PlanInput{}, err
	}

	return services.PlanInput{
		Name:              req.Name,
		FromDate:          from,
		ToDate:            to,
		StayDestinationID: req.StayDestinationID,
		IsPublic:          req.IsPublic,
		Days:              days,
	}, nil
}

func (h *PlanHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.UpdatePlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	from, err := parseDate("from_date", req.FromDate)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	to, err := parseDate("to_date", req.ToDate)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	days, err := toDays(req.Days)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	detail, err := h.Builder.Update(r.Context(), travelerFrom(r.Context()), ps.ByName("id"), services.UpdatePlanInput{
		Name:              req.Name,
		IsPublic:          req.IsPublic,
		FromDate:          from,
		ToDate:            to,
		StayDestinationID: req.StayDestinationID,
		Days:              days,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, detailResponse(detail))
}

// List returns the caller's plans, newest first. ?status filters, ?page pages.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	q := r.URL.Query()

	page := 1
	if s := q.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}

	plans, err := h.Queries.List(r.Context(), travelerFrom(r.Context()), q.Get("status"), page)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	res := dto.ListPlansResponse{Plans: make([]dto.PlanResponse, 0, len(plans)), Page: page}
	for _, p := range plans {
		res.Plans = append(res.Plans, dto.NewPlanResponse(p))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *PlanHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.Queries.Get(r.Context(), travelerFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detailResponse(detail))
}

func (h *PlanHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.Queries.Delete(r.Context(), travelerFrom(r.Context()), ps.ByName("id")); err != nil {
		WriteServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlanHandler) Duplicate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.Queries.Duplicate(r.Context(), travelerFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, detailResponse(detail))
}

func (h *PlanHandler) SaveDraft(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	plan, err := h.Lifecycle.SaveDraft(r.Context(), travelerFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(plan))
}

func (h *PlanHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req dto.CheckInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	days, err := toDays(req.Days)
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	detail, err := h.Lifecycle.CheckIn(r.Context(), travelerFrom(r.Context()), ps.ByName("id"), services.CheckInInput{
		StayDestinationID: req.StayDestinationID,
		TotalCost:         req.TotalCost,
		Days:              days,
	})
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detailResponse(detail))
}

func (h *PlanHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	plan, err := h.Lifecycle.Complete(r.Context(), travelerFrom(r.Context()), ps.ByName("id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewPlanResponse(plan))
}
