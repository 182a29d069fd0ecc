// Package metrics exposes Prometheus metrics for pipeline stages, inference calls and the HTTP API.
//
// Every recording method is safe to call on a nil *Manager, so components can be built without metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bookrec"

// Manager owns a private registry and the collectors registered on it.
type Manager struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	stageRows     *prometheus.CounterVec
	stageFailures *prometheus.CounterVec

	inferenceRequests *prometheus.CounterVec
	inferenceLatency  *prometheus.HistogramVec
	breakerState      *prometheus.GaugeVec

	recommendations  *prometheus.CounterVec
	recommendResults prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager creates a manager with a fresh registry that also carries Go runtime and process collectors.
func NewManager() *Manager {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	return &Manager{
		registry: reg,

		stageDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"stage"}),
		stageRows: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_total",
			Help:      "Rows written by each pipeline stage.",
		}, []string{"stage"}),
		stageFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that ended in an error.",
		}, []string{"stage"}),

		inferenceRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Inference API calls by task, model and outcome.",
		}, []string{"task", "model", "outcome"}),
		inferenceLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "request_duration_seconds",
			Help:      "Inference API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task", "model"}),
		breakerState: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per endpoint: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),

		recommendations: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "requests_total",
			Help:      "Recommendation requests by outcome.",
		}, []string{"outcome"}),
		recommendResults: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "recommend",
			Name:      "results",
			Help:      "Books returned per recommendation request after filtering.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),

		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveStage records a finished pipeline stage.
func (m *Manager) ObserveStage(stage string, d time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
		return
	}
	m.stageRows.WithLabelValues(stage).Add(float64(rows))
}

// ObserveInference records one inference API call. outcome is "ok", "error" or "rejected".
func (m *Manager) ObserveInference(task, model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.inferenceRequests.WithLabelValues(task, model, outcome).Inc()
	m.inferenceLatency.WithLabelValues(task, model).Observe(d.Seconds())
}

// SetBreakerState records a circuit breaker transition.
func (m *Manager) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(state)
}

// ObserveRecommendation records one recommendation request.
func (m *Manager) ObserveRecommendation(results int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.recommendations.WithLabelValues("error").Inc()
		return
	}
	outcome := "ok"
	if results == 0 {
		outcome = "empty"
	}
	m.recommendations.WithLabelValues(outcome).Inc()
	m.recommendResults.Observe(float64(results))
}

// ObserveHTTP records one served HTTP request.
func (m *Manager) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
