package telemetry

import (
	"github.com/loqui-ai/loqui/internal/engine"
	"github.com/loqui-ai/loqui/internal/metrics"
)

// PrometheusSink feeds the shared pipeline metrics from run records.
type PrometheusSink struct{}

func NewPrometheusSink() PrometheusSink { return PrometheusSink{} }

func (PrometheusSink) Record(rec engine.RunRecord) {
	metrics.PipelineRunsTotal.WithLabelValues(string(rec.State)).Inc()
	if rec.Policy != "" {
		metrics.AggregationPolicyTotal.WithLabelValues(string(rec.Policy)).Inc()
	}
	for _, r := range rec.Results {
		metrics.CapabilityResultsTotal.
			WithLabelValues(string(r.Capability), string(r.Status)).Inc()
		metrics.CapabilityLatency.
			WithLabelValues(string(r.Capability), string(r.Status)).
			Observe(r.Latency.Seconds())
	}
}
