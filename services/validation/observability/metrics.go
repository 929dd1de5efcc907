// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the validation
// service.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace    = "aleutian"
	validationSubsystem = "validation"
)

// ValidationMetrics holds all Prometheus metrics for review operations.
//
// Initialize once at startup via InitMetrics().
type ValidationMetrics struct {
	// RatingsTotal counts rating submissions by outcome.
	// Labels: status (accepted, duplicate, unknown_item, storage_error)
	RatingsTotal *prometheus.CounterVec

	// NextRequestsTotal counts next-item fetches.
	// Labels: result (item, done)
	NextRequestsTotal *prometheus.CounterVec

	// AppendDurationSeconds measures durable append latency, fsync
	// included.
	AppendDurationSeconds prometheus.Histogram

	// SessionsOpen tracks sessions currently held open in memory.
	SessionsOpen prometheus.Gauge
}

// Default is the package-level metrics instance.
// Initialized by InitMetrics().
var Default *ValidationMetrics

// InitMetrics initializes the default metrics instance.
//
// Call once at service startup, before any requests are served:
//
//	func main() {
//	    observability.InitMetrics()
//	    ...
//	}
func InitMetrics() *ValidationMetrics {
	if Default != nil {
		// promauto registration is once-per-process; re-init would panic.
		return Default
	}
	Default = &ValidationMetrics{
		RatingsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "ratings_total",
				Help:      "Rating submissions by outcome",
			},
			[]string{"status"},
		),
		NextRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "next_requests_total",
				Help:      "Next-item fetches by result",
			},
			[]string{"result"},
		),
		AppendDurationSeconds: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "append_duration_seconds",
				Help:      "Durable append latency including fsync",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SessionsOpen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: validationSubsystem,
				Name:      "sessions_open",
				Help:      "Review sessions currently open in memory",
			},
		),
	}
	return Default
}

// RecordRating increments the rating counter for a submission outcome.
// Safe to call when metrics are not initialized (unit tests).
func RecordRating(status string) {
	if Default == nil {
		return
	}
	Default.RatingsTotal.WithLabelValues(status).Inc()
}

// RecordNext increments the next-item counter.
func RecordNext(result string) {
	if Default == nil {
		return
	}
	Default.NextRequestsTotal.WithLabelValues(result).Inc()
}

// ObserveAppend records one durable append latency sample.
func ObserveAppend(seconds float64) {
	if Default == nil {
		return
	}
	Default.AppendDurationSeconds.Observe(seconds)
}

// SessionOpened bumps the open-session gauge.
func SessionOpened() {
	if Default == nil {
		return
	}
	Default.SessionsOpen.Inc()
}

// SessionClosed drops the open-session gauge when a session log is
// released.
func SessionClosed() {
	if Default == nil {
		return
	}
	Default.SessionsOpen.Dec()
}
