package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/event-service/internal/dispatch"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrorsTotal     *prometheus.CounterVec

	AuthGateDecisions *prometheus.CounterVec
	LoginAttempts     *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_service_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "event_service_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_service_http_errors_total",
				Help: "Total number of error responses by error code",
			},
			[]string{"method", "path", "code"},
		),
		AuthGateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_service_auth_gate_decisions_total",
				Help: "Auth gate decisions by outcome and rejection reason",
			},
			[]string{"outcome", "reason"},
		),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "event_service_login_attempts_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPErrorsTotal,
		m.AuthGateDecisions,
		m.LoginAttempts,
	)
	return m
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordError counts an error response by its client-facing code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.HTTPErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveGate records an auth gate decision.
func (m *Metrics) ObserveGate(admitted bool, reason string) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if admitted {
		outcome = "admitted"
		reason = ""
	}
	m.AuthGateDecisions.WithLabelValues(outcome, reason).Inc()
}

// RecordLogin counts a login attempt. outcome is "success" or "failure".
func (m *Metrics) RecordLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

// SubscribeLogins counts login outcomes from the dispatcher.
func (m *Metrics) SubscribeLogins(d dispatch.Dispatcher) {
	if m == nil || d == nil {
		return
	}
	d.Subscribe(dispatch.TopicUserLoggedIn, func(context.Context, dispatch.Message) error {
		m.RecordLogin("success")
		return nil
	})
	d.Subscribe(dispatch.TopicUserLoginFailed, func(context.Context, dispatch.Message) error {
		m.RecordLogin("failure")
		return nil
	})
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
