package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// AggregationPolicy names the strategy used to merge capability results.
type AggregationPolicy string

const (
	PolicyPassThrough        AggregationPolicy = "pass_through"
	PolicyPrimaryWithContext AggregationPolicy = "primary_with_context"
	PolicySequential         AggregationPolicy = "sequential_composition"
	PolicySynthesis          AggregationPolicy = "synthesis"
	PolicyPriorityMerge      AggregationPolicy = "priority_merge"
)

// Synthesizer is the combining capability: it merges multiple successful
// payloads into one coherent passage. It is just another external capability
// from the aggregator's point of view.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, contributions []CapabilityResult) (string, error)
}

// FallbackUtterance is returned when a single-capability plan produced no
// usable payload.
const FallbackUtterance = "Sorry, something went wrong while handling your request. Please try again in a moment."

// capabilityLabels prefix payloads in priority merges.
var capabilityLabels = map[CapabilityID]string{
	CapabilityCardExtraction:      "Business card",
	CapabilityCalendar:            "Calendar",
	CapabilityKnowledgeRetrieval:  "Knowledge base",
	CapabilityGeneralConversation: "Assistant",
}

// sequentialConnectives join parts of a sequential composition.
var sequentialConnectives = []string{"", "Also, ", "In addition, ", "Finally, "}

// Aggregator merges an ordered result set into one reply. Policy selection
// is deterministic in the plan shape and capability mix.
type Aggregator struct {
	synthesizer Synthesizer
}

// NewAggregator creates an aggregator. A nil synthesizer disables the
// synthesis policy; plans that would synthesize fall straight to priority
// merge.
func NewAggregator(synthesizer Synthesizer) *Aggregator {
	return &Aggregator{synthesizer: synthesizer}
}

// Aggregate combines the results of one dispatched plan. It never returns an
// error: any synthesis failure degrades to priority merge, and a fully
// failed single plan yields the generic fallback utterance marked degraded.
func (a *Aggregator) Aggregate(ctx context.Context, plan ExecutionPlan, turn *Turn, results []CapabilityResult) (AggregatedReply, AggregationPolicy) {
	succeeded := make([]CapabilityResult, 0, len(results))
	for _, r := range results {
		if r.Status == StatusOK {
			succeeded = append(succeeded, r)
		}
	}

	if plan.Mode == ModeSingle {
		if len(succeeded) == 0 {
			return AggregatedReply{Text: FallbackUtterance, Degraded: true}, PolicyPassThrough
		}
		return AggregatedReply{
			Text:         succeeded[0].Payload,
			Contributing: []CapabilityID{succeeded[0].Capability},
		}, PolicyPassThrough
	}

	switch {
	case len(succeeded) == 0:
		// The dispatcher signals total failure before aggregation; guard
		// anyway so the reply contract holds.
		return AggregatedReply{Text: FallbackUtterance, Degraded: true}, PolicyPrimaryWithContext

	case len(succeeded) == 1:
		// Primary with context: the one success carries the reply, failed
		// siblings are silently dropped.
		return AggregatedReply{
			Text:         succeeded[0].Payload,
			Contributing: []CapabilityID{succeeded[0].Capability},
		}, PolicyPrimaryWithContext

	case hasCapability(succeeded, CapabilityCardExtraction):
		return a.sequential(succeeded), PolicySequential

	default:
		reply, policy := a.synthesize(ctx, turn, succeeded)
		return reply, policy
	}
}

// sequential concatenates successful payloads in plan order with connective
// transitions. Card extraction is categorically primary and always leads.
func (a *Aggregator) sequential(succeeded []CapabilityResult) AggregatedReply {
	parts := make([]string, 0, len(succeeded))
	contributing := make([]CapabilityID, 0, len(succeeded))
	for i, r := range succeeded {
		connective := ""
		if i < len(sequentialConnectives) {
			connective = sequentialConnectives[i]
		}
		parts = append(parts, connective+r.Payload)
		contributing = append(contributing, r.Capability)
	}
	return AggregatedReply{
		Text:         strings.Join(parts, "\n\n"),
		Contributing: contributing,
	}
}

// synthesize merges payloads through the combining capability, falling back
// to a label-prefixed priority merge when synthesis errors.
func (a *Aggregator) synthesize(ctx context.Context, turn *Turn, succeeded []CapabilityResult) (AggregatedReply, AggregationPolicy) {
	if a.synthesizer != nil {
		text, err := a.synthesizer.Synthesize(ctx, turn.Text, succeeded)
		if err == nil && strings.TrimSpace(text) != "" {
			contributing := make([]CapabilityID, 0, len(succeeded))
			for _, r := range succeeded {
				contributing = append(contributing, r.Capability)
			}
			return AggregatedReply{Text: text, Contributing: contributing}, PolicySynthesis
		}
		if err != nil {
			slog.Warn("synthesis failed, falling back to priority merge", "error", err)
		}
	}
	return a.priorityMerge(succeeded), PolicyPriorityMerge
}

// priorityMerge concatenates successful payloads in the fixed priority
// order, each prefixed by its capability's label.
func (a *Aggregator) priorityMerge(succeeded []CapabilityResult) AggregatedReply {
	ordered := make([]CapabilityResult, len(succeeded))
	copy(ordered, succeeded)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Priority(ordered[i].Capability) < Priority(ordered[j].Capability)
	})

	parts := make([]string, 0, len(ordered))
	contributing := make([]CapabilityID, 0, len(ordered))
	for _, r := range ordered {
		label := capabilityLabels[r.Capability]
		parts = append(parts, fmt.Sprintf("%s: %s", label, r.Payload))
		contributing = append(contributing, r.Capability)
	}
	return AggregatedReply{
		Text:         strings.Join(parts, "\n\n"),
		Contributing: contributing,
	}
}

func hasCapability(results []CapabilityResult, id CapabilityID) bool {
	for _, r := range results {
		if r.Capability == id {
			return true
		}
	}
	return false
}
