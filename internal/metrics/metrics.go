package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airelay_requests_total",
			Help: "Total number of requests processed",
		},
		[]string{"endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airelay_request_duration_seconds",
			Help:    "Request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	TokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airelay_tokens_total",
			Help: "Total number of tokens processed",
		},
		[]string{"provider", "model", "type"},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airelay_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airelay_upstream_errors_total",
			Help: "Total number of upstream provider failures",
		},
		[]string{"provider"},
	)

	DeploymentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airelay_deployments_total",
			Help: "Total number of deployments stored",
		},
	)

	DeploymentBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airelay_deployment_bytes_total",
			Help: "Total bytes of deployed HTML documents",
		},
	)
)

func RecordRequest(endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(endpoint, status).Inc()
	RequestDuration.WithLabelValues(endpoint).Observe(durationSec)
}

func RecordTokens(provider, model string, inputTokens, outputTokens int) {
	TokensTotal.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	TokensTotal.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
}

func RecordRateLimitHit(endpoint string) {
	RateLimitHits.WithLabelValues(endpoint).Inc()
}

func RecordUpstreamError(provider string) {
	UpstreamErrors.WithLabelValues(provider).Inc()
}

func RecordDeployment(sizeBytes int) {
	DeploymentsTotal.Inc()
	DeploymentBytes.Add(float64(sizeBytes))
}
