package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	AppointmentsTotal   *prometheus.CounterVec
	SchedulingConflicts *prometheus.CounterVec
	AvailabilityQueries prometheus.Counter
	SlotsGenerated      prometheus.Histogram

	CacheRequests *prometheus.CounterVec
	CacheErrors   *prometheus.CounterVec

	DBConnections prometheus.Gauge

	AuditEntriesTotal  prometheus.Counter
	AuditBufferDropped prometheus.Counter
}

// NewCollector registers every metric on reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func NewCollector(serviceName string, reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		AppointmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "appointments_total",
			Help:      "Committed appointment mutations by action and resulting status.",
		}, []string{"action", "status"}),

		SchedulingConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Rejected bookings by reason (working_hours or overlap).",
		}, []string{"reason"}),

		AvailabilityQueries: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "availability_queries_total",
			Help:      "Total slot availability queries served.",
		}),

		SlotsGenerated: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "scheduling",
			Name:      "slots_per_query",
			Help:      "Number of candidate slots generated per availability query.",
			Buckets:   []float64{0, 4, 8, 16, 24, 32, 48},
		}),

		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups by cache name and result (hit or miss).",
		}, []string{"cache", "result"}),

		CacheErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "cache",
			Name:      "errors_total",
			Help:      "Cache store failures by operation. Reads degrade to misses.",
		}, []string{"operation"}),

		DBConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),

		AuditEntriesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "entries_total",
			Help:      "Total audit log entries written.",
		}),

		AuditBufferDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "audit",
			Name:      "buffer_dropped_total",
			Help:      "Audit entries dropped due to full buffer. Alert if non-zero.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
