// Package metrics exposes Prometheus collectors for the stream client.
//
// All recording methods are nil-safe so components can run without metrics wired.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webitel/checkin-notifier/internal/domain/model"
)

const namespace = "checkin_notifier"

// Metrics owns a private registry so tests and embedders do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	connectAttempts prometheus.Counter
	connectFailures prometheus.Counter
	connectionState prometheus.Gauge
	framesReceived  *prometheus.CounterVec
	framesDropped   prometheus.Counter
	notifications   *prometheus.CounterVec
	pingsSent       prometheus.Counter
	presenterErrors *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_attempts_total",
			Help:      "Total stream connection attempts",
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_failures_total",
			Help:      "Total failed stream connection or subscribe attempts",
		}),
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "Current connection state (0=disconnected, 1=connecting, 2=connected)",
		}),
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Inbound frames by kind",
		}, []string{"kind"}),
		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Text frames that did not decode into an event",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Classified notifications by severity",
		}, []string{"severity"}),
		pingsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalive_pings_total",
			Help:      "Keepalive pings sent on idle connections",
		}),
		presenterErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presenter_errors_total",
			Help:      "Failed presenter hand-offs by operation",
		}, []string{"operation"}),
	}

	m.registry.MustRegister(
		m.connectAttempts,
		m.connectFailures,
		m.connectionState,
		m.framesReceived,
		m.framesDropped,
		m.notifications,
		m.pingsSent,
		m.presenterErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ConnectAttempt() {
	if m == nil {
		return
	}
	m.connectAttempts.Inc()
}

func (m *Metrics) ConnectFailure() {
	if m == nil {
		return
	}
	m.connectFailures.Inc()
}

func (m *Metrics) SetState(s model.ConnectionState) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(s))
}

func (m *Metrics) FrameReceived(kind string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) FrameDropped() {
	if m == nil {
		return
	}
	m.framesDropped.Inc()
}

func (m *Metrics) NotificationClassified(s model.Severity) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) PingSent() {
	if m == nil {
		return
	}
	m.pingsSent.Inc()
}

func (m *Metrics) PresenterError(operation string) {
	if m == nil {
		return
	}
	m.presenterErrors.WithLabelValues(operation).Inc()
}
