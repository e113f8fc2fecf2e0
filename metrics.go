package ng

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request lifecycle
// and the admission gate. It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal          *prometheus.CounterVec
	retryAfterHonored     *prometheus.CounterVec
	gateWaitDuration      *prometheus.HistogramVec
	permitEarlyReleases   prometheus.Counter
	permitReacquireFailed prometheus.Counter

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer, letting tests isolate metric state.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ng_requests_total",
				Help: "Total number of logical HTTP requests completed",
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ng_request_duration_seconds",
				Help:    "Duration of logical HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status_code", "endpoint"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ng_requests_in_flight",
				Help: "Number of logical HTTP requests currently in flight",
			},
			[]string{"method", "endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ng_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"method", "endpoint", "attempt"},
		),
		retryAfterHonored: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ng_retry_after_honored_total",
				Help: "Times a server Retry-After directive was honored",
			},
			[]string{"method", "endpoint"},
		),
		gateWaitDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ng_gate_wait_seconds",
				Help:    "Time spent waiting for admission in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		permitEarlyReleases: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "ng_permit_early_releases_total",
				Help: "Permits released ahead of a long wait",
			},
		),
		permitReacquireFailed: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "ng_permit_reacquire_failures_total",
				Help: "Bounded permit re-acquisitions that timed out",
			},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "ng_errors_total",
				Help: "Total errors by kind",
			},
			[]string{"kind", "method", "endpoint"},
		),
	}
}

// RecordRequestStart marks a logical request entering flight.
func (mc *MetricsCollector) RecordRequestStart(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Inc()
}

// RecordRequestEnd marks a logical request leaving flight.
func (mc *MetricsCollector) RecordRequestEnd(method, endpoint string) {
	mc.requestsInFlight.WithLabelValues(method, endpoint).Dec()
}

// RecordRequest records the final status and duration of a logical request.
func (mc *MetricsCollector) RecordRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(method, status, endpoint).Inc()
	mc.requestDuration.WithLabelValues(method, status, endpoint).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (mc *MetricsCollector) RecordRetry(method, endpoint string, attempt int) {
	mc.retriesTotal.WithLabelValues(method, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordRetryAfter records an honored server wait directive.
func (mc *MetricsCollector) RecordRetryAfter(method, endpoint string) {
	mc.retryAfterHonored.WithLabelValues(method, endpoint).Inc()
}

// RecordGateWait records time spent waiting for admission.
func (mc *MetricsCollector) RecordGateWait(method, endpoint string, wait time.Duration) {
	mc.gateWaitDuration.WithLabelValues(method, endpoint).Observe(wait.Seconds())
}

// RecordEarlyRelease records a permit released ahead of a long wait.
func (mc *MetricsCollector) RecordEarlyRelease() {
	mc.permitEarlyReleases.Inc()
}

// RecordReacquireFailure records a timed-out permit re-acquisition.
func (mc *MetricsCollector) RecordReacquireFailure() {
	mc.permitReacquireFailed.Inc()
}

// RecordError records an error by kind.
func (mc *MetricsCollector) RecordError(kind, method, endpoint string) {
	mc.errorsTotal.WithLabelValues(kind, method, endpoint).Inc()
}
