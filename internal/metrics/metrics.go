package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loqui_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loqui_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CapabilityLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loqui_capability_latency_seconds",
			Help:    "Capability invocation latency in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15},
		},
		[]string{"capability", "status"},
	)

	CapabilityResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loqui_capability_results_total",
			Help: "Total capability results by status.",
		},
		[]string{"capability", "status"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loqui_pipeline_runs_total",
			Help: "Total pipeline runs by supervisor state.",
		},
		[]string{"state"},
	)

	AggregationPolicyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loqui_aggregation_policy_total",
			Help: "Total replies by aggregation policy.",
		},
		[]string{"policy"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		CapabilityLatency,
		CapabilityResultsTotal,
		PipelineRunsTotal,
		AggregationPolicyTotal,
	)
}
