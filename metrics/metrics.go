// Package metrics exposes circulation counters and catalog gauges to Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kevinaaaquil/library/circulation"
	"github.com/kevinaaaquil/library/projection"
)

const namespace = "library"

type Metrics struct {
	registry      *prometheus.Registry
	transitions   *prometheus.CounterVec
	overdueAlerts prometheus.Counter
	books         *prometheus.GaugeVec
	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Circulation requests by action and outcome.",
		}, []string{"action", "outcome"}),
		overdueAlerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overdue_alerts_total",
			Help:      "Overdue alerts sent by the sweeper.",
		}),
		books: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "books",
			Help:      "Books by effective status at the last summary.",
		}, []string{"status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.transitions, m.overdueAlerts, m.books, m.requests, m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts a circulation request. outcome is "ok" or the
// policy error kind.
func (m *Metrics) ObserveTransition(action circulation.Action, err error) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(action), outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, circulation.ErrForbidden):
		return "forbidden"
	case errors.Is(err, circulation.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, circulation.ErrInvalidRequest):
		return "invalid_request"
	}
	return "error"
}

func (m *Metrics) OverdueAlert() {
	if m == nil {
		return
	}
	m.overdueAlerts.Inc()
}

// ObserveStats records the catalog gauges from a summary.
func (m *Metrics) ObserveStats(s projection.Stats) {
	if m == nil {
		return
	}
	m.books.WithLabelValues("available").Set(float64(s.Available))
	m.books.WithLabelValues("issued").Set(float64(s.Issued))
	m.books.WithLabelValues("overdue").Set(float64(s.Overdue))
	m.books.WithLabelValues("reserved").Set(float64(s.Reserved))
}

// Middleware counts requests by chi route pattern, so ids do not explode the label set.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
