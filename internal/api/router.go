package api

import (
	"net/http"

	"fleet-route-service/internal/api/handlers"
	"fleet-route-service/internal/config"
	"fleet-route-service/internal/platform/metrics"
	"fleet-route-service/internal/ports"
	"fleet-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(repo ports.OrderRepository, resolver *services.CoordinateResolver, fleet config.Fleet) http.Handler {
	mux := http.NewServeMux()

	orderHandler := &handlers.OrderHandler{Repo: repo}
	planHandler := &handlers.PlanHandler{
		Repo:     repo,
		Resolver: resolver,
		Fleet:    fleet,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/orders", orderHandler.List)
	mux.HandleFunc("/plans", planHandler.Plan)
	mux.Handle("/metrics", metrics.Handler())

	return requestIDMiddleware(loggingMiddleware(mux))
}
