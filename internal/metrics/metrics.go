// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package metrics instruments the service with Prometheus collectors:
// HTTP endpoint latency and throughput, ranking pipeline duration,
// engine cache efficiency, and database query performance.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poshan_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poshan_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poshan_api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)

	// Ranking metrics.
	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poshan_ranking_duration_seconds",
			Help:    "End-to-end duration of a ranking request in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationsServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poshan_recommendations_served_total",
			Help: "Total number of recommendation items returned to clients",
		},
	)

	// Engine cache metrics, refreshed from engine counters on each
	// status scrape.
	ResultCacheHits = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poshan_result_cache_hits",
			Help: "Cumulative result cache hits reported by the engine",
		},
	)

	ResultCacheMisses = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poshan_result_cache_misses",
			Help: "Cumulative result cache misses reported by the engine",
		},
	)

	ResultCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poshan_result_cache_entries",
			Help: "Current number of entries in the result cache",
		},
	)

	// Database metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poshan_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poshan_db_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poshan_feedback_recorded_total",
			Help: "Total number of feedback interactions recorded",
		},
		[]string{"kind"},
	)
)

// RecordAPIRequest observes one completed API request.
func RecordAPIRequest(method, endpoint, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordDBQuery observes one database query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// UpdateCacheGauges publishes the engine's cache counters.
func UpdateCacheGauges(hits, misses int64, entries int) {
	ResultCacheHits.Set(float64(hits))
	ResultCacheMisses.Set(float64(misses))
	ResultCacheSize.Set(float64(entries))
}
