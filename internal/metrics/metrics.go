// Package metrics holds the Prometheus collectors for jsgate.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "jsgate"

// Rejection reasons for requests that never reach an evaluator.
const (
	ReasonSaturated = "saturated"
	ReasonTooLarge  = "too_large"
)

// Collector holds all Prometheus metrics for jsgate.
// Uses a custom registry, no global state.
type Collector struct {
	Registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	InFlight           prometheus.Gauge
	RejectedTotal      *prometheus.CounterVec

	HTTPRequestsTotal *prometheus.CounterVec
}

// New creates a Collector with all metrics registered on a custom prometheus.Registry,
// together with the Go runtime and process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,

		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "evaluations_total",
			Help:      "Total evaluations by outcome kind.",
		}, []string{"kind"}),

		EvaluationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "duration_seconds",
			Help:      "Evaluation duration in seconds, including parsing and compilation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"kind"}),

		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "eval",
			Name:      "in_flight",
			Help:      "Number of evaluations currently running.",
		}),

		RejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected before evaluation.",
		}, []string{"reason"}),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"method", "route", "status_code"}),
	}

	reg.MustRegister(
		c.EvaluationsTotal,
		c.EvaluationDuration,
		c.InFlight,
		c.RejectedTotal,
		c.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// InitKinds creates the per-kind evaluation series at zero so every outcome is exported
// before it first happens. Safe on a nil Collector.
func (c *Collector) InitKinds(kinds ...string) {
	if c == nil {
		return
	}
	for _, kind := range kinds {
		c.EvaluationsTotal.WithLabelValues(kind)
		c.EvaluationDuration.WithLabelValues(kind)
	}
}

// ObserveEvaluation records one finished evaluation. Safe on a nil Collector.
func (c *Collector) ObserveEvaluation(kind string, d time.Duration) {
	if c == nil {
		return
	}
	c.EvaluationsTotal.WithLabelValues(kind).Inc()
	c.EvaluationDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Reject records a request turned away before evaluation. Safe on a nil Collector.
func (c *Collector) Reject(reason string) {
	if c == nil {
		return
	}
	c.RejectedTotal.WithLabelValues(reason).Inc()
}

// ObserveHTTP records one HTTP response. Safe on a nil Collector.
func (c *Collector) ObserveHTTP(method, route string, status int) {
	if c == nil {
		return
	}
	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
