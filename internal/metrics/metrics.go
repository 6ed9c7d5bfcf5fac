package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tenancy"

var (
	// Batch job metrics
	JobRunsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Total number of batch job runs by outcome",
		},
		[]string{"job", "outcome"},
	)

	JobDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of batch job runs in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	// Lifecycle metrics
	RecordsExpiredCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_expired_total",
			Help:      "Total number of leases and contracts moved to expired",
		},
		[]string{"entity"},
	)

	RecordFailuresCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_failures_total",
			Help:      "Total number of per-record failures inside batch jobs",
		},
		[]string{"job"},
	)

	RenewalsMaterializedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "renewals_materialized_total",
		Help:      "Total number of renewals turned into successor contracts",
	})

	// Reminder metrics
	RemindersScheduledGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "reminders_armed",
		Help:      "Number of reminder timers currently armed in this process",
	})

	RemindersFiredCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Total number of reminders delivered by outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Request metrics
	RequestDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
