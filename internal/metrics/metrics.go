// Package metrics owns the worker's internal Prometheus registry: the
// items_processed/last_poll/per-stage-duration counters and gauges
// SPEC_FULL.md's observability section calls out. The HTTP exposition of
// this registry belongs to the external API layer; this worker only
// publishes the gauges/counters it owns, grounded on the teacher's
// crawler/internal/scheduler/v2/observability.Metrics shape (promauto
// factory, Namespace/Subsystem-scoped names, Record* setters) trimmed to
// the stages and outcomes this worker actually has.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "job_finder_worker"

// Registry holds the metrics the dispatcher and scheduler publish.
type Registry struct {
	ItemsProcessedTotal *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	LastPollTimestamp   *prometheus.GaugeVec
}

// New registers the worker's metrics against reg, falling back to the
// default global registerer when reg is nil.
func New(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Registry{
		ItemsProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_processed_total",
				Help:      "Total number of tasks processed, by task kind and terminal status",
			},
			[]string{"kind", "status"},
		),
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Duration of a task handler or sweep in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
			},
			[]string{"stage"},
		),
		LastPollTimestamp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_poll_timestamp_seconds",
				Help:      "Unix timestamp at which a named poll/sweep last completed",
			},
			[]string{"stage"},
		),
	}
}

// RecordTask records a dispatched task's terminal outcome and the
// wall-clock time its handler took to reach it.
func (r *Registry) RecordTask(kind, status string, durationSeconds float64) {
	if r == nil {
		return
	}
	r.ItemsProcessedTotal.WithLabelValues(kind, status).Inc()
	r.StageDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordPoll stamps the last-poll gauge and duration histogram for a
// named cron stage (e.g. "health_sweep").
func (r *Registry) RecordPoll(stage string, durationSeconds float64) {
	if r == nil {
		return
	}
	r.LastPollTimestamp.WithLabelValues(stage).SetToCurrentTime()
	r.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}
