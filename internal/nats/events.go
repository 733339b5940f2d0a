package nats

import "time"

// Stream names.
const (
	StreamEvents = "LOQUI_EVENTS"
)

// Subject constants.
const (
	SubjectPipelineEvent = "loqui.events.pipeline"
)

// CapabilityOutcome is the settled outcome of one capability inside a
// pipeline event.
type CapabilityOutcome struct {
	Capability string `json:"capability"`
	Status     string `json:"status"`
	LatencyMS  int64  `json:"latency_ms"`
}

// PipelineEvent is published after every pipeline run for external
// observability consumers.
type PipelineEvent struct {
	ConversationID string              `json:"conversation_id"`
	PlanMode       string              `json:"plan_mode"`
	Capabilities   []string            `json:"capabilities"`
	Rationale      string              `json:"rationale,omitempty"`
	Results        []CapabilityOutcome `json:"results"`
	Policy         string              `json:"policy,omitempty"`
	State          string              `json:"state"`
	Cause          string              `json:"cause,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}
