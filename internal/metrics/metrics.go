// Wayfinder - Geo-constrained Semantic Business Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

// Package metrics defines Wayfinder's Prometheus collectors.
//
// Collectors are registered with the default registry at package init through
// promauto. Record* helpers keep label values consistent across call sites.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes.
const (
	OutcomeServed     = "served"
	OutcomeNoMatches  = "no_matches"
	OutcomeEmpty      = "empty_result"
	OutcomeNoLocation = "location_unresolved"
	OutcomeError      = "error"
)

// Feedback kinds.
const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
	FeedbackNext    = "next"
)

var (
	// Ranking and session metrics
	SearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_search_total",
			Help: "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfinder_search_duration_seconds",
			Help:    "Time spent ranking a search, excluding collaborator calls",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		},
	)

	SearchCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfinder_search_candidates",
			Help:    "Number of ranked candidates returned per search",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_feedback_total",
			Help: "Total number of feedback events by kind",
		},
		[]string{"kind"},
	)

	QueueExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfinder_queue_exhausted_total",
			Help: "Number of times a session ran out of suggestions",
		},
	)

	// Preference store metrics
	PreferenceSaveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfinder_preference_save_failures_total",
			Help: "Number of preference saves that failed and were kept in memory only",
		},
	)

	PreferenceOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfinder_preference_operation_duration_seconds",
			Help:    "Duration of preference store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// Catalog metrics
	CatalogRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_catalog_records",
			Help: "Number of records in the live catalog snapshot",
		},
	)

	CatalogSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_catalog_skipped_total",
			Help: "Number of catalog rows skipped during load or build",
		},
		[]string{"reason"},
	)

	CatalogRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wayfinder_catalog_refresh_duration_seconds",
			Help:    "Duration of catalog load and rebuild",
			Buckets: prometheus.DefBuckets,
		},
	)

	CatalogRefreshErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfinder_catalog_refresh_errors_total",
			Help: "Number of failed catalog refreshes",
		},
	)

	CatalogLastRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfinder_catalog_last_refresh_timestamp",
			Help: "Unix timestamp of the last successful catalog refresh",
		},
	)

	// Collaborator metrics
	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfinder_collaborator_duration_seconds",
			Help:    "Duration of calls to external collaborators",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"collaborator", "result"},
	)

	CollaboratorCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfinder_collaborator_cache_hits_total",
			Help: "Number of collaborator calls answered from cache",
		},
		[]string{"collaborator"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordSearch records the outcome of one ranking call.
func RecordSearch(outcome string, candidates int, duration time.Duration) {
	SearchTotal.WithLabelValues(outcome).Inc()
	SearchDuration.Observe(duration.Seconds())
	if outcome == OutcomeServed || outcome == OutcomeNoMatches {
		SearchCandidates.Observe(float64(candidates))
	}
}

// RecordFeedback records a like, dislike or next event.
func RecordFeedback(kind string) {
	FeedbackTotal.WithLabelValues(kind).Inc()
}

// RecordPreferenceOperation records the latency of a store operation.
func RecordPreferenceOperation(backend, operation string, duration time.Duration) {
	PreferenceOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordCatalogRefresh records a completed catalog refresh.
func RecordCatalogRefresh(records int, skipped map[string]int, duration time.Duration, err error) {
	CatalogRefreshDuration.Observe(duration.Seconds())
	if err != nil {
		CatalogRefreshErrors.Inc()
		return
	}
	CatalogRecords.Set(float64(records))
	for reason, n := range skipped {
		CatalogSkipped.WithLabelValues(reason).Add(float64(n))
	}
	CatalogLastRefresh.Set(float64(time.Now().Unix()))
}

// RecordCollaboratorCall records a call to an embedder, geocoder or text generator.
func RecordCollaboratorCall(collaborator string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CollaboratorDuration.WithLabelValues(collaborator, result).Observe(duration.Seconds())
}
