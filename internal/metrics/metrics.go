package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Conversion job metrics
var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convertz_jobs_total",
			Help: "Total number of conversion jobs by terminal status",
		},
		[]string{"status"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "convertz_job_duration_seconds",
			Help:    "Wall time of a single ffmpeg conversion job",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "convertz_jobs_in_flight",
			Help: "Number of ffmpeg subprocesses currently running",
		},
	)
)

// Delivery metrics
var (
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convertz_deliveries_total",
			Help: "Total number of deliveries by kind (file or archive)",
		},
		[]string{"kind"},
	)

	ArchiveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "convertz_archive_errors_total",
			Help: "Total number of zip archiving failures",
		},
	)
)

// Sweeper metrics
var (
	SweptFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "convertz_swept_files_total",
			Help: "Total number of artifacts deleted by the retention sweeper",
		},
	)

	SweepQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "convertz_sweep_queue_size",
			Help: "Number of artifacts currently scheduled for retention deletion",
		},
	)
)
