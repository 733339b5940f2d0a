// Package engine routes a single conversation turn to one or more
// capabilities, executes them with the right concurrency strategy, and
// merges their outputs into one reply. The whole pipeline is bracketed by a
// degradation supervisor so a reply is always produced while any capability
// is still standing.
package engine

import "time"

// CapabilityID identifies one specialized handler. The set is closed; new
// capabilities extend these constants rather than passing arbitrary strings.
type CapabilityID string

const (
	CapabilityGeneralConversation CapabilityID = "general_conversation"
	CapabilityKnowledgeRetrieval  CapabilityID = "knowledge_retrieval"
	CapabilityCalendar            CapabilityID = "calendar"
	CapabilityCardExtraction      CapabilityID = "card_extraction"
)

// AllCapabilities lists every known capability in fixed priority order.
// Rank here breaks ties everywhere a deterministic order is needed.
var AllCapabilities = []CapabilityID{
	CapabilityCardExtraction,
	CapabilityCalendar,
	CapabilityKnowledgeRetrieval,
	CapabilityGeneralConversation,
}

// Priority returns the fixed priority rank of a capability; lower is higher
// priority. Unknown ids sort last.
func Priority(id CapabilityID) int {
	for i, c := range AllCapabilities {
		if c == id {
			return i
		}
	}
	return len(AllCapabilities)
}

// Role is the author of a prior message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// PriorMessage is one entry of the conversation history, in chronological
// order.
type PriorMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn is the immutable input of one pipeline run.
type Turn struct {
	Text           string
	Image          []byte // raw image bytes, nil when the turn has no image
	History        []PriorMessage
	UserID         string
	ConversationID string
}

// HasImage reports whether the turn carries an image.
func (t *Turn) HasImage() bool { return len(t.Image) > 0 }

// PlanMode is the concurrency shape of an execution plan.
type PlanMode string

const (
	ModeSingle   PlanMode = "single"
	ModeParallel PlanMode = "parallel"
)

// ExecutionPlan is the router's decision: which capabilities to invoke and
// how. Invariant: single mode carries exactly one capability, parallel mode
// at least two.
type ExecutionPlan struct {
	Mode         PlanMode
	Capabilities []CapabilityID
	Rationale    string
}

// ResultStatus classifies the outcome of one capability invocation.
type ResultStatus string

const (
	StatusOK       ResultStatus = "ok"
	StatusFailed   ResultStatus = "failed"
	StatusTimedOut ResultStatus = "timed_out"
)

// CapabilityResult is the settled outcome of one capability in a plan. A
// timeout produces a result too; the dispatcher never returns fewer results
// than the plan has capabilities.
type CapabilityResult struct {
	Capability CapabilityID
	Status     ResultStatus
	Payload    string
	Latency    time.Duration
}

// AggregatedReply is the single reply produced for a turn.
type AggregatedReply struct {
	Text         string
	Contributing []CapabilityID // ok capabilities, in contribution order
	Degraded     bool
}

// Complexity is the classifier's verdict on how many capabilities a turn
// touches.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityCompound Complexity = "compound"
)

// Candidate is one ranked classifier candidate with its cue-match count.
type Candidate struct {
	Capability CapabilityID
	Matches    int
}

// Classification is the classifier output: candidates ranked best-first plus
// the complexity verdict.
type Classification struct {
	Candidates []Candidate
	Complexity Complexity
}
