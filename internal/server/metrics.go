package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Name-check outcomes recorded in NameChecks
const (
	checkResultValid = "valid"
	checkResultTaken = "taken"
	checkResultError = "error"
)

// frameTypeUnknown labels websocket frames of any type the server does not
// answer
const frameTypeUnknown = "unknown"

// Metrics holds the directory server's Prometheus collectors
type Metrics struct {
	Requests          *prometheus.CounterVec
	RequestSeconds    *prometheus.HistogramVec
	NameChecks        *prometheus.CounterVec
	WebSocketSessions prometheus.Gauge
	WebSocketFrames   *prometheus.CounterVec
}

// NewMetrics registers the server collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nameloc_http_requests_total",
			Help: "Total number of HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nameloc_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		NameChecks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nameloc_name_checks_total",
			Help: "Total number of name checks answered, by result.",
		}, []string{"result"}),
		WebSocketSessions: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nameloc_websocket_sessions",
			Help: "Current number of open websocket sessions.",
		}),
		WebSocketFrames: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nameloc_websocket_frames_total",
			Help: "Total number of websocket request frames by type (unrecognized types count as unknown).",
		}, []string{"type"}),
	}
}
