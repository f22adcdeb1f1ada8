package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "graspgate_build_info",
			Help:        "Build information",
			ConstLabels: prometheus.Labels{"component": "server"},
		},
		[]string{"date", "sha", "version"},
	)

	sessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "graspgate_sessions",
			Help: "Number of open websocket sessions",
		},
	)

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graspgate_requests_total",
			Help: "Number of grasp requests by outcome",
		},
		[]string{"outcome"},
	)

	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graspgate_inference_duration_seconds",
			Help:    "Engine inference duration",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	pointsReceived = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graspgate_points_received",
			Help:    "Point cloud sizes per request",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)

	candidatesReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graspgate_candidates_returned",
			Help:    "Grasp candidates returned per successful request",
			Buckets: prometheus.LinearBuckets(0, 2, 11),
		},
	)
)

// Register registers all metrics with the provided registerer.
func Register(r prometheus.Registerer) {
	r.MustRegister(buildInfo, sessions, requests, inferenceDuration, pointsReceived, candidatesReturned)
}

// SetServerBuildInfo sets the build info metric for the server.
func SetServerBuildInfo(version, sha, date string) {
	buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// SessionOpened increments the open session gauge.
func SessionOpened() { sessions.Inc() }

// SessionClosed decrements the open session gauge.
func SessionClosed() { sessions.Dec() }

// RecordRequest increments the request counter.
func RecordRequest(outcome string) {
	requests.WithLabelValues(outcome).Inc()
}

// ObserveInference records the duration of one engine call.
func ObserveInference(d time.Duration) {
	inferenceDuration.Observe(d.Seconds())
}

// ObservePoints records the size of an incoming cloud.
func ObservePoints(n int) {
	pointsReceived.Observe(float64(n))
}

// ObserveCandidates records the number of grasps returned.
func ObserveCandidates(n int) {
	candidatesReturned.Observe(float64(n))
}
