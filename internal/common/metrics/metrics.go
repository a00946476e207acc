// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "award_evaluations_total",
			Help: "Total number of job evaluations by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "award_evaluation_duration_seconds",
			Help:    "Duration of a single job evaluation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)

	WinningScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "award_winning_score",
			Help:    "Total score of the best bid at evaluation time",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	TriggersArmed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "award_triggers_armed_total",
			Help: "Total number of evaluation windows armed",
		},
	)

	TriggersDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "award_triggers_dispatched_total",
			Help: "Total number of evaluation requests dispatched by trigger",
		},
		[]string{"trigger"},
	)

	DispatchQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "award_dispatch_queue_depth",
			Help: "Evaluation requests waiting for a runner",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "award_notifications_total",
			Help: "Notification deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)

	LockWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "award_lock_wait_seconds",
			Help:    "Time spent waiting for the per-job evaluation lock",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of Zeebe jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of Zeebe jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)
