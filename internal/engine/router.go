package engine

import (
	"fmt"
	"sort"
)

// DefaultMaxFanout caps how many capabilities a parallel plan may carry.
const DefaultMaxFanout = 3

// Router turns a classification into an execution plan.
type Router struct {
	maxFanout int
}

// NewRouter creates a router with the given parallel fan-out cap; values
// below 1 fall back to DefaultMaxFanout.
func NewRouter(maxFanout int) *Router {
	if maxFanout < 1 {
		maxFanout = DefaultMaxFanout
	}
	return &Router{maxFanout: maxFanout}
}

// Plan builds the execution plan. Simple turns run the top-ranked candidate
// alone; compound turns run all matched candidates in parallel, capped at
// the fan-out limit by match count with ties broken by fixed priority. The
// classifier's general-conversation default guarantees the capability set is
// never empty.
func (r *Router) Plan(cls Classification) ExecutionPlan {
	if len(cls.Candidates) == 0 {
		// Defensive only: the classifier always yields at least the default.
		return ExecutionPlan{
			Mode:         ModeSingle,
			Capabilities: []CapabilityID{CapabilityGeneralConversation},
			Rationale:    "empty classification, defaulting to general conversation",
		}
	}

	if cls.Complexity == ComplexitySimple || len(cls.Candidates) == 1 {
		top := cls.Candidates[0].Capability
		return ExecutionPlan{
			Mode:         ModeSingle,
			Capabilities: []CapabilityID{top},
			Rationale:    fmt.Sprintf("simple turn, top candidate %s", top),
		}
	}

	ranked := make([]Candidate, len(cls.Candidates))
	copy(ranked, cls.Candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Matches != ranked[j].Matches {
			return ranked[i].Matches > ranked[j].Matches
		}
		return Priority(ranked[i].Capability) < Priority(ranked[j].Capability)
	})

	caps := make([]CapabilityID, 0, r.maxFanout)
	seen := make(map[CapabilityID]struct{}, r.maxFanout)
	for _, cand := range ranked {
		if _, ok := seen[cand.Capability]; ok {
			continue
		}
		seen[cand.Capability] = struct{}{}
		caps = append(caps, cand.Capability)
		if len(caps) == r.maxFanout {
			break
		}
	}

	// An image candidate always leads, even after ranking by match count.
	for i, id := range caps {
		if id == CapabilityCardExtraction && i != 0 {
			copy(caps[1:i+1], caps[:i])
			caps[0] = CapabilityCardExtraction
		}
	}

	if len(caps) == 1 {
		return ExecutionPlan{
			Mode:         ModeSingle,
			Capabilities: caps,
			Rationale:    fmt.Sprintf("compound turn collapsed to %s after fan-out cap", caps[0]),
		}
	}

	return ExecutionPlan{
		Mode:         ModeParallel,
		Capabilities: caps,
		Rationale:    fmt.Sprintf("compound turn, %d capabilities in parallel", len(caps)),
	}
}
