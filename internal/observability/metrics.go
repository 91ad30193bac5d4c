package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	connectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsonmux",
			Subsystem: "transport",
			Name:      "connections_total",
			Help:      "Connections opened, by endpoint role.",
		},
		[]string{"role"},
	)
	connectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "jsonmux",
			Subsystem: "transport",
			Name:      "connections_active",
			Help:      "Connections currently open, by endpoint role.",
		},
		[]string{"role"},
	)
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsonmux",
			Subsystem: "protocol",
			Name:      "frames_total",
			Help:      "Frames moved across the wire, by role and direction.",
		},
		[]string{"role", "direction"},
	)
	frameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jsonmux",
			Subsystem: "protocol",
			Name:      "frame_errors_total",
			Help:      "Frame-level failures, by role and kind.",
		},
		[]string{"role", "kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(connectionsTotal, connectionsActive, framesTotal, frameErrors)
	})
}

func RecordConnectionOpened(role string) {
	RegisterMetrics()
	connectionsTotal.WithLabelValues(role).Inc()
	connectionsActive.WithLabelValues(role).Inc()
}

func RecordConnectionClosed(role string) {
	RegisterMetrics()
	connectionsActive.WithLabelValues(role).Dec()
}

func RecordFrame(role, direction string) {
	RegisterMetrics()
	framesTotal.WithLabelValues(role, direction).Inc()
}

func RecordFrameError(role, kind string) {
	RegisterMetrics()
	frameErrors.WithLabelValues(role, kind).Inc()
}
