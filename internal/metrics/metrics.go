// EventHub - Campus Event Discovery and Geo-Proximity Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventhub

// Package metrics declares the Prometheus instruments exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Store metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_db_query_duration_seconds",
			Help:    "Duration of relational store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DocstoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_docstore_query_duration_seconds",
			Help:    "Duration of document store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Aggregation metrics
	OriginQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_origin_query_duration_seconds",
			Help:    "Duration of per-origin fan-out calls made by the aggregation engine",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode", "origin"},
	)

	OriginFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_origin_failures_total",
			Help: "Per-origin failures tolerated during multi-origin aggregation",
		},
		[]string{"mode", "origin"},
	)

	NearMeDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_near_me_degraded_total",
			Help: "Geospatial queries that fell back to the unfiltered recent-events list",
		},
	)

	NormalizationDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_normalization_dropped_total",
			Help: "Records dropped from a result set because they could not be normalized",
		},
		[]string{"origin"},
	)

	CoordinateWriteBacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_coordinate_writebacks_total",
			Help: "Lazy geocode cache-fill writes to the relational store",
		},
		[]string{"result"}, // "success", "error"
	)

	// Geocoder metrics
	GeocodeCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_geocode_cache_hits_total",
			Help: "Geocode lookups answered from a cache tier",
		},
		[]string{"tier"}, // "memory", "badger", "redis"
	)

	GeocodeCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventhub_geocode_cache_misses_total",
			Help: "Geocode lookups that reached the upstream geocoder",
		},
	)

	GeocodeUpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_geocode_upstream_duration_seconds",
			Help:    "Latency of upstream geocoder requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"result"}, // "found", "not_found", "error"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventhub_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Interaction metrics
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_interactions_total",
			Help: "Like/save interactions applied, by origin, kind and action",
		},
		[]string{"origin", "kind", "action"},
	)

	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_registrations_total",
			Help: "Registration outcomes",
		},
		[]string{"outcome"}, // "registered", "waitlisted", "updated"
	)

	// Ledger retry queue metrics
	LedgerRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_ledger_retry_total",
			Help: "Secondary ledger writes routed through the retry queue",
		},
		[]string{"stage"}, // "enqueued", "enqueue_failed", "applied", "superseded", "poisoned"
	)

	// HTTP metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventhub_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventhub_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventhub_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)
)

// RecordDBQuery observes a relational store query.
func RecordDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordDocstoreQuery observes a document store operation.
func RecordDocstoreQuery(operation string, start time.Time) {
	DocstoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordOriginQuery observes one fan-out call and counts it as a failure when err is set.
func RecordOriginQuery(mode, origin string, duration time.Duration, err error) {
	OriginQueryDuration.WithLabelValues(mode, origin).Observe(duration.Seconds())
	if err != nil {
		OriginFailures.WithLabelValues(mode, origin).Inc()
	}
}

// RecordAPIRequest observes one HTTP request.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	APIRequestDuration.WithLabelValues(method, route, code).Observe(duration.Seconds())
	APIRequestsTotal.WithLabelValues(method, route, code).Inc()
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}
