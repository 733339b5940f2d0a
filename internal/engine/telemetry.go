package engine

// SupervisorState is the degradation supervisor's state for one run.
type SupervisorState string

const (
	StateNormal   SupervisorState = "normal"
	StateDegraded SupervisorState = "degraded"
	StateFailed   SupervisorState = "failed"
)

// RunRecord captures everything observability needs about one pipeline run:
// the plan, the settled results, the chosen aggregation policy, and the
// supervisor's final state with its transition cause.
type RunRecord struct {
	ConversationID string
	Plan           ExecutionPlan
	Results        []CapabilityResult
	Policy         AggregationPolicy
	State          SupervisorState
	Cause          string // empty unless the run left the normal state
}

// Telemetry receives run records. Implementations must be safe for
// concurrent use, must never block, and must never fail the pipeline.
type Telemetry interface {
	Record(rec RunRecord)
}

// NopTelemetry discards all records.
type NopTelemetry struct{}

func (NopTelemetry) Record(RunRecord) {}
