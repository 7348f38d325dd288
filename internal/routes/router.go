package routes

import (
	"net/http"
	"time"

	"social-link/gatekeeper/internal/api"
	"social-link/gatekeeper/internal/db"
	"social-link/gatekeeper/internal/jobs"
	"social-link/gatekeeper/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterRoutes builds the webhook listener: the link-event hook, the
// sweep trigger, the link-claim exchange and the health check
func RegisterRoutes(deps *api.Dependencies, sweepJob *jobs.AuthSweepJob, upSince time.Time) http.Handler {

	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(deps.Metrics))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthCheck", api.HealthCheckHandler(db.DB, upSince))

	r.Post("/discord", api.LinkEventHandler(deps.Services.Reconciler, deps.Repo.Links))
	r.Post("/checkAuth", api.SweepTriggerHandler(sweepJob))
	r.Get("/link/claim", api.LinkClaimHandler(deps.Services.LinkSigner))

	return r
}
