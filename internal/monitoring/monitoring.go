// Package monitoring provides Prometheus metrics for the I1 ingest path.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var namespace = "linescope"

var (
	// FramesReceived counts syntactically framed messages pulled off the
	// wire, per packet type name.
	FramesReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "i1",
			Name:      "frames_received_total",
			Help:      "Total number of I1 frames extracted from sensor connections",
		},
		[]string{"packet_type"},
	)

	// FrameErrors counts decode failures per error kind.
	FrameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "i1",
			Name:      "frame_errors_total",
			Help:      "Total number of I1 frames that failed validation or decoding",
		},
		[]string{"kind"},
	)

	// AcksSent counts downlink ACKs, by status.
	AcksSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "i1",
			Name:      "acks_sent_total",
			Help:      "Total number of ACK frames written back to sensors",
		},
		[]string{"status"},
	)

	// ActiveConnections tracks live sensor connections.
	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "i1",
			Name:      "active_connections",
			Help:      "Number of currently connected sensor links",
		},
	)

	// WeatherRecords mirrors the current ring occupancy.
	WeatherRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "weather_records",
			Help:      "Number of fused weather records currently held",
		},
	)
)

func init() {
	prometheus.MustRegister(FramesReceived, FrameErrors, AcksSent, ActiveConnections, WeatherRecords)
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
