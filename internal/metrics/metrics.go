// Package metrics exposes Prometheus instrumentation for the analyzer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scheduler metrics
	TasksSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_tasks_submitted_total",
			Help: "Total number of tasks submitted to the scheduler",
		},
		[]string{"kind", "priority"},
	)

	TasksCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_tasks_completed_total",
			Help: "Total number of tasks completed successfully",
		},
	)

	TasksFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_tasks_failed_total",
			Help: "Total number of tasks that ended in failure",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analyzer_queue_depth",
			Help: "Current number of tasks waiting in the scheduler queue",
		},
	)

	ActiveWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "analyzer_active_workers",
			Help: "Number of workers currently executing a task",
		},
	)

	WorkerRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_worker_restarts_total",
			Help: "Total number of workers replaced after an unexpected exit",
		},
	)

	// Pipeline metrics
	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analyzer_analysis_duration_seconds",
			Help:    "Duration of full analysis runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EventsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_events_analyzed_total",
			Help: "Total number of normalized events run through the rule set",
		},
	)

	FindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_findings_total",
			Help: "Total findings produced, by severity",
		},
		[]string{"severity"},
	)

	// Alerting metrics
	AlertsEmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_alerts_emitted_total",
			Help: "Total alerts handed to the alert sink",
		},
	)

	AlertDeliveryErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analyzer_alert_delivery_errors_total",
			Help: "Total alert deliveries that failed",
		},
	)
)
