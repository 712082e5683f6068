package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for client operations.
type Metrics struct {
	LoginsTotal        *prometheus.CounterVec
	ConsentGateOpened  prometheus.Counter
	ConsentGateClosed  prometheus.Counter
	ConsentSyncFailed  prometheus.Counter
	SurveySubmissions  *prometheus.CounterVec
	SurveyRetriesTotal prometheus.Counter
	ChatMessagesTotal  *prometheus.CounterVec
	RequestLatency     *prometheus.HistogramVec
}

// New registers and returns client metrics collectors.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_logins_total",
			Help: "Total login and register attempts, labeled by mode and outcome",
		}, []string{"mode", "outcome"}),
		ConsentGateOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solace_consent_gate_opened_total",
			Help: "Times the consent gate evaluated open",
		}),
		ConsentGateClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solace_consent_gate_closed_total",
			Help: "Times the consent gate evaluated closed",
		}),
		ConsentSyncFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solace_consent_sync_failures_total",
			Help: "Best-effort consent notifications that failed to reach the backend",
		}),
		SurveySubmissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_survey_submissions_total",
			Help: "Survey submission outcomes",
		}, []string{"outcome"}),
		SurveyRetriesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "solace_survey_retries_total",
			Help: "Automatic survey submission retries",
		}),
		ChatMessagesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "solace_chat_messages_total",
			Help: "Chat exchanges, labeled by outcome",
		}, []string{"outcome"}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "solace_backend_request_latency_seconds",
			Help:    "Latency of backend requests in seconds, labeled by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
