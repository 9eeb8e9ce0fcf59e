package api

import (
	"itinerary-planner-service/internal/api/handlers"
	"itinerary-planner-service/internal/services"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Distances   *services.DistanceCache
	Builder     *services.ManualBuilder
	Smart       *services.SmartGenerator
	Lifecycle   *services.Lifecycle
	Queries     *services.PlanQueries
	JWTSecret   []byte
	CORSOrigins []string

	// RequestTimeout bounds each request's context; zero leaves it unbounded.
	RequestTimeout time.Duration
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	distHandler := &handlers.DistanceHandler{Distances: d.Distances}
	planHandler := &handlers.PlanHandler{Builder: d.Builder, Lifecycle: d.Lifecycle, Queries: d.Queries}
	smartHandler := &handlers.SmartPlanHandler{Smart: d.Smart}

	traveler := func(h httprouter.Handle) httprouter.Handle {
		return authenticate(d.JWTSecret, sweep(d.Lifecycle, h))
	}

	router.GET("/health", handlers.Health)
	router.POST("/distances", distHandler.Post)

	router.POST("/plans", traveler(planHandler.Create))
	router.GET("/plans", traveler(planHandler.List))
	router.GET("/plans/:id", traveler(planHandler.Get))
	router.PUT("/plans/:id", traveler(planHandler.Update))
	router.DELETE("/plans/:id", traveler(planHandler.Delete))
	router.POST("/plans/:id/duplicate", traveler(planHandler.Duplicate))
	router.POST("/plans/:id/save-draft", traveler(planHandler.SaveDraft))
	router.POST("/plans/:id/check-in", traveler(planHandler.CheckIn))
	router.POST("/plans/:id/complete", traveler(planHandler.Complete))

	router.POST("/smart-plans", traveler(smartHandler.Generate))
	router.POST("/smart-plans/:id/commit", traveler(smartHandler.Commit))

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	}).Handler(router)

	return requestIDMiddleware(loggingMiddleware(timeoutMiddleware(d.RequestTimeout, corsHandler)))
}

func writeStatus(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}` + "\n"))
}
