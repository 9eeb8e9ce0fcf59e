package handlers

import (
	"itinerary-planner-service/internal/api/dto"
	"itinerary-planner-service/internal/domain"
	"itinerary-planner-service/internal/services"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type DistanceHandler struct {
	Distances *services.DistanceCache
}

// Post returns the travel leg between two catalog destinations.
func (h *DistanceHandler) Post(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req dto.DistanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.From == "" || req.To == "" {
		writeError(w, r, http.StatusBadRequest, "from and to are required")
		return
	}

	leg, err := h.Distances.Distance(r.Context(), req.From, req.To, domain.ParseProfile(req.Profile))
	if err != nil {
		WriteServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.NewLegResponse(leg))
}
