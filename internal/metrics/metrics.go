// seatimed - Automated Sea-Time Detection for Mariner Certification
// Copyright 2026 Harborlog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harborlog/seatimed

// Package metrics exposes Prometheus instrumentation for the engine:
// scheduler tick behavior, provider call outcomes, circuit breaker
// state, sea-time entry lifecycle, and database errors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler Metrics
	SchedulerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seatimed_scheduler_tick_duration_seconds",
			Help:    "Duration of a full scheduler tick in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SchedulerTicksSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatimed_scheduler_ticks_skipped_total",
			Help: "Ticks skipped because a previous tick was still running",
		},
	)

	SchedulerTasksDue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seatimed_scheduler_tasks_due",
			Help: "Number of tasks due at the most recent tick",
		},
	)

	SchedulerTaskFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatimed_scheduler_task_failures_total",
			Help: "Task executions that ended in an error",
		},
		[]string{"kind"},
	)

	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatimed_provider_requests_total",
			Help: "AIS provider requests by outcome",
		},
		[]string{"outcome"}, // "success", "error", "rate_limited", "breaker_open"
	)

	ProviderRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seatimed_provider_request_duration_seconds",
			Help:    "Duration of AIS provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seatimed_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatimed_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"from", "to"},
	)

	// Sea-Time Entry Metrics
	EntriesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatimed_entries_created_total",
			Help: "New pending sea-time entries created",
		},
	)

	EntriesExtended = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatimed_entries_extended_total",
			Help: "Existing same-day entries extended in place",
		},
	)

	EntriesReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatimed_entries_reviewed_total",
			Help: "Entries confirmed or rejected through the API",
		},
		[]string{"status"},
	)

	// Notification Metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatimed_notifications_sent_total",
			Help: "Webhook notifications by outcome",
		},
		[]string{"outcome"}, // "success", "error", "dropped"
	)

	// Database Metrics
	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seatimed_duckdb_query_errors_total",
			Help: "DuckDB query errors by operation and table",
		},
		[]string{"operation", "table"},
	)

	AuditRecordsPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seatimed_audit_records_purged_total",
			Help: "Provider call audit records removed by retention cleanup",
		},
	)
)

// ObserveTick records a completed scheduler tick.
func ObserveTick(start time.Time) {
	SchedulerTickDuration.Observe(time.Since(start).Seconds())
}

// ObserveProviderRequest records a provider request outcome and duration.
func ObserveProviderRequest(outcome string, start time.Time) {
	ProviderRequests.WithLabelValues(outcome).Inc()
	ProviderRequestDuration.Observe(time.Since(start).Seconds())
}
