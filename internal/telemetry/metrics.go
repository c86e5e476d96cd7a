package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics counts protocol events. A nil *Metrics records nothing.
type Metrics struct {
	Handshakes      *prometheus.CounterVec
	Registrations   *prometheus.CounterVec
	Authentications *prometheus.CounterVec
	Violations      *prometheus.CounterVec
	Sessions        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when reg is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Handshakes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netauth",
			Name:      "handshakes_total",
			Help:      "Key exchanges by result.",
		}, []string{"result"}),
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netauth",
			Name:      "registrations_total",
			Help:      "Registration requests by result.",
		}, []string{"result"}),
		Authentications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netauth",
			Name:      "authentications_total",
			Help:      "Authentication requests by result.",
		}, []string{"result"}),
		Violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netauth",
			Name:      "protocol_violations_total",
			Help:      "Messages rejected by the connection state machine, by kind.",
		}, []string{"kind"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netauth",
			Name:      "sessions",
			Help:      "Live connection sessions.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Handshakes, m.Registrations, m.Authentications, m.Violations, m.Sessions)
	}
	return m
}

func (m *Metrics) Handshake(result string) {
	if m != nil {
		m.Handshakes.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Registration(result string) {
	if m != nil {
		m.Registrations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Authentication(result string) {
	if m != nil {
		m.Authentications.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Violation(kind string) {
	if m != nil {
		m.Violations.WithLabelValues(kind).Inc()
	}
}

// SessionOpened and SessionClosed track the live session gauge.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.Sessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.Sessions.Dec()
	}
}
