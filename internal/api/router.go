// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package api provides HTTP routing and handlers for the
// recommendation service using the Chi router.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/poshanlabs/poshan/internal/config"
	"github.com/poshanlabs/poshan/internal/recommend"
)

// Ranker is the slice of the ranking engine the API consumes.
type Ranker interface {
	Rank(ctx context.Context, user recommend.UserProfile, k int) ([]recommend.ScoredFood, error)
	RankForMeal(ctx context.Context, user recommend.UserProfile, mealType string, k int) ([]recommend.ScoredFood, error)
	Persist(ctx context.Context, user recommend.UserProfile, items []recommend.ScoredFood, reason string) (recommend.Recommendation, error)
	Metrics() recommend.Metrics
}

// Store is the slice of the storage layer the API consumes directly.
type Store interface {
	RecordInteraction(ctx context.Context, in recommend.Interaction) error
	RecommendationHistory(ctx context.Context, userID int64, page, perPage int) ([]recommend.Recommendation, int, error)
	Ping(ctx context.Context) error
}

// Router wires handlers, engine, and storage into an http.Handler.
type Router struct {
	cfg      config.ServerConfig
	engine   Ranker
	store    Store
	validate *validator.Validate
	version  string
}

// NewRouter builds the API router.
func NewRouter(cfg config.ServerConfig, engine Ranker, store Store, version string) *Router {
	return &Router{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		version:  version,
	}
}

// Handler assembles the full route tree.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", rt.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(prometheusMetrics)
		if rt.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(rt.cfg.RateLimit, time.Minute))
		}

		r.Get("/status", rt.handleStatus)
		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/user/{userID}", rt.handleRecommendations)
			r.Get("/user/{userID}/by-category", rt.handleByCategory)
			r.Get("/user/{userID}/history", rt.handleHistory)
			r.Post("/feedback", rt.handleFeedback)
		})
	})

	return r
}
