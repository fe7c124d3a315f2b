// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_jobs_total",
			Help: "Total number of pipeline jobs by outcome",
		},
		[]string{"outcome", "kind", "mode"},
	)

	JobsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clipper_jobs_rejected_total",
			Help: "Total number of job submissions rejected because the user was busy",
		},
	)

	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipper_jobs_active",
			Help: "Number of pipeline jobs currently running",
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipper_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"stage"},
	)

	JobFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_job_failures_total",
			Help: "Total number of failed jobs by error kind",
		},
		[]string{"kind"},
	)
)

// Delivery metrics
var (
	SegmentsDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clipper_segments_delivered_total",
			Help: "Total number of files delivered to users",
		},
	)

	SegmentsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_segments_skipped_total",
			Help: "Total number of produced files that were not delivered",
		},
		[]string{"reason"},
	)

	DeliveredBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clipper_delivered_bytes_total",
			Help: "Total bytes uploaded to users",
		},
	)
)

// Status message metrics
var (
	StatusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_status_updates_total",
			Help: "Status message updates by result",
		},
		[]string{"result"}, // "emitted", "suppressed", "failed"
	)

	StatusRetryAfterTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clipper_status_retry_after_total",
			Help: "Status updates that were throttled by the transport",
		},
	)
)

// Chat metrics
var (
	UsersDeactivatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clipper_users_deactivated_total",
			Help: "Users marked inactive after the transport reported them unreachable",
		},
	)

	UpdatesHandledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipper_updates_handled_total",
			Help: "Inbound chat updates by type",
		},
		[]string{"type"},
	)
)
