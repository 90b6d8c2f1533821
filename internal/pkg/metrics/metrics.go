package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every simetry collector. Binaries expose it on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// ConnectAttemptsTotal counts single connection attempts against an endpoint.
	ConnectAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simetry_connect_attempts_total",
			Help: "Total number of connection attempts against the telemetry endpoint.",
		},
		[]string{"result"}, // result: success/invalid_address/transport/decode
	)

	// PollsTotal counts polls by how they resolved.
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simetry_polls_total",
			Help: "Total number of telemetry polls by outcome.",
		},
		[]string{"outcome"}, // outcome: ok/timeout/transport/decode/mismatch
	)

	// PollLatency records the round trip of a single poll.
	PollLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "simetry_poll_latency_seconds",
			Help:    "Latency of a single telemetry poll round trip.",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		},
	)

	// SessionConnected is the number of clients currently bound to a live session.
	SessionConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "simetry_sessions_active",
			Help: "Number of telemetry sessions currently established.",
		},
	)

	// FramesForwardedTotal counts snapshots handed to agent sinks.
	FramesForwardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simetry_frames_forwarded_total",
			Help: "Total number of telemetry snapshots delivered to a sink.",
		},
		[]string{"sink", "status"}, // status: success/failed
	)

	// ServerRequestsTotal counts requests served by the companion endpoint.
	ServerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simetry_server_requests_total",
			Help: "Total number of requests served by the simulation state endpoint.",
		},
		[]string{"method", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		ConnectAttemptsTotal,
		PollsTotal,
		PollLatency,
		SessionConnected,
		FramesForwardedTotal,
		ServerRequestsTotal,
	)
}
