// burbujas - Opinion Clustering Engine for News-Voting Platforms
// Copyright 2026 The burbujas Authors
// SPDX-License-Identifier: Apache-2.0
// https://github.com/memoriauy/burbujas

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/memoriauy/burbujas/internal/config"
)

// NewRouter builds the chi router serving the Query API, the manual
// trigger, the dashboard websocket, and Prometheus metrics.
func (h *Handler) NewRouter(cfg config.APIConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(instrumentMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))

	rateLimit := cfg.RateLimitPerMin
	if rateLimit <= 0 {
		rateLimit = 120
	}
	r.Use(httprate.LimitByIP(rateLimit, time.Minute))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs/latest", h.LatestRun)
		r.Get("/voters/bubble", h.VoterBubble)
		r.Get("/voters/bridges", h.VoterBridges)
		r.Get("/clusters/{type}/{id}/patterns", h.ClusterPatterns)
		r.Get("/lineage", h.LineageWindow)

		r.Group(func(r chi.Router) {
			r.Use(requireOperator(cfg.JWTSigningKey, h.Logger))
			r.Post("/runs/trigger", h.TriggerRun)
		})
	})

	if h.WSHub != nil {
		r.Get("/ws", h.WSHub.ServeHTTP)
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	return r
}
