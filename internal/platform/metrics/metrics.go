package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	SessionsStarted       prometheus.Counter
	SessionsCancelled     prometheus.Counter
	Uploads               *prometheus.CounterVec
	ExtractionFailures    *prometheus.CounterVec
	FaceMatchAttempts     prometheus.Counter
	FaceMatchFailures     prometheus.Counter
	ApplicationsSubmitted *prometheus.CounterVec
	CommitFailures        prometheus.Counter
	RequestDuration       *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankassist_onboarding_sessions_started_total",
			Help: "Onboarding flows started via the open-account intent",
		}),
		SessionsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankassist_onboarding_sessions_cancelled_total",
			Help: "Sessions reset by the global cancel command",
		}),
		Uploads: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankassist_onboarding_uploads_total",
			Help: "Document uploads by kind and outcome",
		}, []string{"kind", "outcome"}),
		ExtractionFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankassist_onboarding_extraction_failures_total",
			Help: "Extraction gateway failures by kind and reason",
		}, []string{"kind", "reason"}),
		FaceMatchAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankassist_onboarding_face_match_attempts_total",
			Help: "Live photo verification attempts",
		}),
		FaceMatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankassist_onboarding_face_match_failures_total",
			Help: "Live photo verification mismatches",
		}),
		ApplicationsSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bankassist_applications_submitted_total",
			Help: "Pending applications created, by KYC verification outcome",
		}, []string{"verified"}),
		CommitFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bankassist_applications_commit_failures_total",
			Help: "Failures persisting a pending application at final commit",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bankassist_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
