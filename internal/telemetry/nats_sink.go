package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/loqui-ai/loqui/internal/engine"
	inats "github.com/loqui-ai/loqui/internal/nats"
)

const publishTimeout = 2 * time.Second

// NATSSink publishes run records to JetStream for external consumers.
// Publishing happens on a detached goroutine so a slow broker cannot
// stall the request path.
type NATSSink struct {
	publisher *inats.Publisher
}

func NewNATSSink(publisher *inats.Publisher) *NATSSink {
	return &NATSSink{publisher: publisher}
}

func (s *NATSSink) Record(rec engine.RunRecord) {
	event := toPipelineEvent(rec)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.publisher.PublishPipelineEvent(ctx, event); err != nil {
			slog.Warn("failed to publish pipeline event",
				"conversation_id", rec.ConversationID, "error", err)
		}
	}()
}

func toPipelineEvent(rec engine.RunRecord) inats.PipelineEvent {
	caps := make([]string, len(rec.Plan.Capabilities))
	for i, c := range rec.Plan.Capabilities {
		caps[i] = string(c)
	}
	results := make([]inats.CapabilityOutcome, len(rec.Results))
	for i, r := range rec.Results {
		results[i] = inats.CapabilityOutcome{
			Capability: string(r.Capability),
			Status:     string(r.Status),
			LatencyMS:  r.Latency.Milliseconds(),
		}
	}
	return inats.PipelineEvent{
		ConversationID: rec.ConversationID,
		PlanMode:       string(rec.Plan.Mode),
		Capabilities:   caps,
		Rationale:      rec.Plan.Rationale,
		Results:        results,
		Policy:         string(rec.Policy),
		State:          string(rec.State),
		Cause:          rec.Cause,
		Timestamp:      time.Now().UTC(),
	}
}
