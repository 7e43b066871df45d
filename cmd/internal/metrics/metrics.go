// Package metrics provides Prometheus instrumentation for the hello server:
// HTTP throughput and latency, login outcomes, live sessions, and item
// validation failures by field.
//
// Each Metrics owns its registry, so tests can build as many as they like.
// All methods are safe on a nil receiver.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login attempt results.
const (
	LoginSuccess = "success"
	LoginFail    = "fail"
	LoginInvalid = "invalid"
	LoginError   = "error"
)

// Metrics bundles the server's collectors and their registry.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	loginAttempts  *prometheus.CounterVec
	itemValidation *prometheus.CounterVec
}

// New builds a Metrics with Go runtime and process collectors registered.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hello_http_requests_total",
			Help: "Total HTTP requests by method and status class",
		}, []string{"method", "status_class"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hello_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method"}),

		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hello_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}), // result = success, fail, invalid, error

		itemValidation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hello_item_validation_failures_total",
			Help: "Item form validation failures by field",
		}, []string{"field"}),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.loginAttempts,
		m.itemValidation,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// RegisterActiveSessions exposes fn as the hello_sessions_active gauge.
func (m *Metrics) RegisterActiveSessions(fn func() float64) {
	if m == nil || fn == nil {
		return
	}
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "hello_sessions_active",
		Help: "Current number of live login sessions",
	}, fn))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, StatusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// LoginAttempt counts a login outcome.
func (m *Metrics) LoginAttempt(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// ItemInvalid counts each failing item field.
func (m *Metrics) ItemInvalid(fields []string) {
	if m == nil {
		return
	}
	for _, f := range fields {
		m.itemValidation.WithLabelValues(f).Inc()
	}
}

// StatusClass buckets an HTTP status as "2xx" and so on, or "unknown".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
