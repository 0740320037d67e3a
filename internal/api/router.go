// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package api provides the HTTP interface: health probes, Prometheus
// metrics, vessel and entry reads, and mariner review of pending
// sea-time entries.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harborlog/seatimed/internal/config"
	"github.com/harborlog/seatimed/internal/database"
)

// Router builds the chi handler tree.
type Router struct {
	handler *Handlers
	cfg     *config.ServerConfig
}

// NewRouter creates the API router.
func NewRouter(db *database.DB, cfg *config.Config) *Router {
	return &Router{
		handler: NewHandlers(db, cfg),
		cfg:     &cfg.Server,
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health endpoints get a permissive limit so monitoring can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, router.cfg.RateLimitWindow))
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
		r.Get("/", router.handler.Health)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.RateLimitReqs, router.cfg.RateLimitWindow))

		r.Get("/vessels", router.handler.ListVessels)
		r.Post("/vessels", router.handler.CreateVessel)
		r.Patch("/vessels/{id}", router.handler.UpdateVessel)
		r.Get("/vessels/{id}/readings", router.handler.ListReadings)
		r.Get("/vessels/{id}/entries", router.handler.ListEntries)
		r.Get("/vessels/{id}/task", router.handler.GetTask)

		r.Patch("/entries/{id}", router.handler.ReviewEntry)

		r.Get("/audit/provider-calls", router.handler.ListProviderCalls)
	})

	return r
}
