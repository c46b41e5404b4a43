// Package metrics owns the Prometheus collectors exposed on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry          *prometheus.Registry
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	uploads           *prometheus.CounterVec
	reconcileRuns     *prometheus.CounterVec
	reconcileRepaired prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offerapp",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "offerapp",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offerapp",
			Name:      "uploads_total",
			Help:      "Object storage uploads by folder and outcome.",
		}, []string{"folder", "outcome"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "offerapp",
			Name:      "reconcile_runs_total",
			Help:      "Vendor offer back-reference reconciliation runs by outcome.",
		}, []string{"outcome"}),
		reconcileRepaired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "offerapp",
			Name:      "reconcile_vendors_repaired_total",
			Help:      "Vendors whose offer list was rewritten by reconciliation.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.uploads,
		m.reconcileRuns,
		m.reconcileRepaired,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// The observe helpers accept a nil receiver so components can run without
// metrics wired in.

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveUpload(folder string, err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(folder, outcome(err)).Inc()
}

func (m *Metrics) ObserveReconcile(repaired int, err error) {
	if m == nil {
		return
	}
	m.reconcileRuns.WithLabelValues(outcome(err)).Inc()
	m.reconcileRepaired.Add(float64(repaired))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
