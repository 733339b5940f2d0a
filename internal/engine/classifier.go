package engine

import (
	"sort"
	"strings"
)

// Classifier produces a ranked candidate set and a complexity verdict for a
// turn. It is a pure function of the text, image presence, and the cue
// tables it was built with: identical input always yields the identical
// classification, and no input ever yields an error.
type Classifier struct {
	cues CueTable
}

// NewClassifier creates a classifier over the given cue tables.
func NewClassifier(cues CueTable) *Classifier {
	return &Classifier{cues: cues}
}

// Classify inspects the turn. Image handling always takes priority: an image
// puts card_extraction first regardless of text. Text is matched against the
// cue sets; no match falls through to general_conversation, never an error.
func (c *Classifier) Classify(turn *Turn) Classification {
	text := strings.ToLower(turn.Text)

	var candidates []Candidate
	textMatches := 0
	for _, id := range AllCapabilities {
		if id == CapabilityCardExtraction && turn.HasImage() {
			// Counted below so the image-first rule cannot be outvoted.
			continue
		}
		if n := countCues(text, c.cues[id]); n > 0 {
			candidates = append(candidates, Candidate{Capability: id, Matches: n})
			textMatches++
		}
	}

	// Rank by match count, ties by the fixed priority order. AllCapabilities
	// iteration order already encodes priority, so a stable sort suffices.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Matches > candidates[j].Matches
	})

	if turn.HasImage() {
		candidates = append([]Candidate{{Capability: CapabilityCardExtraction, Matches: 1}}, candidates...)
	}

	if len(candidates) == 0 {
		candidates = []Candidate{{Capability: CapabilityGeneralConversation, Matches: 0}}
	}

	complexity := ComplexitySimple
	switch {
	case turn.HasImage() && textMatches >= 1:
		// e.g. "analyze this card and tell me about the product"
		complexity = ComplexityCompound
	case len(distinctCapabilities(candidates)) >= 2 && !turn.HasImage():
		complexity = ComplexityCompound
	}

	return Classification{Candidates: candidates, Complexity: complexity}
}

func countCues(text string, cues []string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, cue := range cues {
		if strings.Contains(text, cue) {
			n++
		}
	}
	return n
}

func distinctCapabilities(candidates []Candidate) []CapabilityID {
	seen := make(map[CapabilityID]struct{}, len(candidates))
	var out []CapabilityID
	for _, c := range candidates {
		if _, ok := seen[c.Capability]; ok {
			continue
		}
		seen[c.Capability] = struct{}{}
		out = append(out, c.Capability)
	}
	return out
}
