// Package telemetry provides engine.Telemetry sinks. Sinks are additive:
// each run record fans out to logging, Prometheus, and optionally NATS.
// A sink failure is logged and swallowed, never surfaced to the pipeline.
package telemetry

import "github.com/loqui-ai/loqui/internal/engine"

// Multi fans every record out to all child sinks.
type Multi []engine.Telemetry

func (m Multi) Record(rec engine.RunRecord) {
	for _, sink := range m {
		sink.Record(rec)
	}
}
