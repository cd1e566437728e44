// Package observability turns session hooks into Prometheus metrics.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	marionette "github.com/puppetwire/marionette"
	"github.com/puppetwire/marionette/pkg/force"
	"github.com/puppetwire/marionette/pkg/protocol"
)

// Metrics holds the protocol-level collectors. Register one instance
// per process, then attach its Hooks to each session.
type Metrics struct {
	inboundFrames  *prometheus.CounterVec
	outboundFrames *prometheus.CounterVec
	invocations    *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	forcesIssued   prometheus.Counter
	forceDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inboundFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marionette_inbound_frames_total",
				Help: "Inbound frames handled, by command kind",
			},
			[]string{"kind"},
		),
		outboundFrames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marionette_outbound_frames_total",
				Help: "Outbound frames emitted, by command kind",
			},
			[]string{"kind"},
		),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marionette_invocations_total",
				Help: "Accepted action invocations, by action name",
			},
			[]string{"action", "forced"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marionette_rejections_total",
				Help: "Rejected action invocations, by action name",
			},
			[]string{"action"},
		),
		forcesIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "marionette_forces_issued_total",
				Help: "Forced choices issued to the agent",
			},
		),
		forceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "marionette_force_duration_seconds",
				Help: "Time from issuing a forced choice to its settlement",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(
		m.inboundFrames,
		m.outboundFrames,
		m.invocations,
		m.rejections,
		m.forcesIssued,
		m.forceDuration,
	)
	return m
}

// Hooks returns session hooks feeding these collectors.
func (m *Metrics) Hooks() marionette.Hooks {
	return marionette.Hooks{
		OnInbound: func(kind protocol.Kind) {
			m.inboundFrames.WithLabelValues(string(kind)).Inc()
		},
		OnOutbound: func(kind protocol.Kind) {
			m.outboundFrames.WithLabelValues(string(kind)).Inc()
		},
		OnActionInvoked: func(name string, forced bool) {
			label := "false"
			if forced {
				label = "true"
			}
			m.invocations.WithLabelValues(name, label).Inc()
		},
		OnActionRejected: func(name string) {
			m.rejections.WithLabelValues(name).Inc()
		},
		OnForceIssued: func() {
			m.forcesIssued.Inc()
		},
		OnForceSettled: func(status force.State, age time.Duration) {
			m.forceDuration.WithLabelValues(string(status)).Observe(age.Seconds())
		},
	}
}

// Handler serves the metrics registered on reg, for mounting at
// /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
