package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PresenceMetrics records connection lifecycle activity per platform.
type PresenceMetrics struct {
	connects    *prometheus.CounterVec
	disconnects *prometheus.CounterVec
	online      *prometheus.GaugeVec
	failures    *prometheus.CounterVec
}

// NewPresenceMetrics registers the presence metrics on the provided registerer.
func NewPresenceMetrics(reg prometheus.Registerer) *PresenceMetrics {
	if reg == nil {
		return &PresenceMetrics{}
	}
	connects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_connects_total",
		Help: "Socket connections accepted.",
	}, []string{"platform"})
	disconnects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_disconnects_total",
		Help: "Socket disconnections processed.",
	}, []string{"platform"})
	online := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "presence_online_sockets",
		Help: "Sockets currently tracked as online.",
	}, []string{"platform"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "presence_failures_total",
		Help: "Presence operations that could not be applied.",
	}, []string{"operation"})
	reg.MustRegister(connects, disconnects, online, failures)
	return &PresenceMetrics{
		connects:    connects,
		disconnects: disconnects,
		online:      online,
		failures:    failures,
	}
}

// IncConnect increments the accepted-connection counter for the platform.
func (p *PresenceMetrics) IncConnect(platform string) {
	if p == nil || p.connects == nil {
		return
	}
	p.connects.WithLabelValues(normalizeLabel(platform)).Inc()
	if p.online != nil {
		p.online.WithLabelValues(normalizeLabel(platform)).Inc()
	}
}

// IncDisconnect increments the disconnection counter for the platform.
func (p *PresenceMetrics) IncDisconnect(platform string) {
	if p == nil || p.disconnects == nil {
		return
	}
	p.disconnects.WithLabelValues(normalizeLabel(platform)).Inc()
	if p.online != nil {
		p.online.WithLabelValues(normalizeLabel(platform)).Dec()
	}
}

// IncFailure increments the failure counter for the named operation.
func (p *PresenceMetrics) IncFailure(operation string) {
	if p == nil || p.failures == nil {
		return
	}
	p.failures.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
