package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "telemetry"

var (
	// RequestsTotal counts HTTP requests by route template.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReadingsIngested counts readings appended to the store.
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "readings_ingested_total",
			Help:      "Total number of readings appended to the store",
		},
		[]string{"class"},
	)

	// NotificationsRejected counts notifications refused before any write.
	NotificationsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_rejected_total",
			Help:      "Total number of rejected notifications",
		},
		[]string{"class", "reason"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of failed store operations",
		},
		[]string{"operation"},
	)

	// PublishFailures counts best-effort broadcasts that failed per transport.
	PublishFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Total number of failed live publishes",
		},
		[]string{"transport"},
	)

	StatisticsQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_queries_total",
			Help:      "Total number of statistics queries",
		},
		[]string{"class", "granularity"},
	)

	// UnmatchedRows counts store rows whose bucket start was not a calendar key.
	// Non-zero means the store and calendar disagree on truncation.
	UnmatchedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statistics_unmatched_rows_total",
			Help:      "Aggregate rows that did not match any calendar bucket",
		},
		[]string{"class"},
	)

	StatisticsLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "statistics_latency_seconds",
			Help:      "Statistics query latency in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"granularity"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected websocket subscribers",
		},
	)

	// WebsocketDropped counts frames dropped because a subscriber's buffer was full.
	WebsocketDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "websocket_dropped_frames_total",
			Help:      "Frames dropped for slow websocket subscribers",
		},
	)

	DeviceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_cache_lookups_total",
			Help:      "Device directory cache lookups",
		},
		[]string{"result"},
	)
)
