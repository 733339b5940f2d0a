package engine

import "errors"

// Pipeline error taxonomy. Capability-level timeouts and failures are
// recovered inside the dispatcher and aggregator; only ErrTotalFailure ever
// crosses the HandleTurn boundary.
var (
	// ErrAllCapabilitiesFailed is signalled by the dispatcher when every
	// result in a plan settled as failed or timed out.
	ErrAllCapabilitiesFailed = errors.New("all capabilities failed or timed out")

	// ErrAggregationFailed marks a synthesis error. The aggregator recovers
	// from it via priority merge; it is exported for telemetry causes.
	ErrAggregationFailed = errors.New("synthesis failed")

	// ErrDeadlineExceeded marks an overall pipeline deadline overrun.
	ErrDeadlineExceeded = errors.New("pipeline deadline exceeded")

	// ErrTotalFailure means the forced general-conversation fallback also
	// failed. It is the only error surfaced to callers of HandleTurn.
	ErrTotalFailure = errors.New("fallback capability failed: no reply could be produced")
)
