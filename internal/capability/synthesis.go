package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/loqui-ai/loqui/internal/engine"
)

const synthesisSystemPrompt = `You merge answers from several specialized assistants into one reply.
Write a single coherent passage in the user's language. Keep every concrete
fact from the inputs, drop repetition, and do not mention the assistants.`

// Synthesizer is the combining capability: one completion over the ordered
// successful payloads plus the original question. It satisfies
// engine.Synthesizer.
type Synthesizer struct {
	client openai.Client
	model  string
}

// NewSynthesizer creates the synthesis adapter.
func NewSynthesizer(client openai.Client, model string) *Synthesizer {
	return &Synthesizer{client: client, model: model}
}

// Synthesize implements engine.Synthesizer.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, contributions []engine.CapabilityResult) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "User question: %s\n\nAnswers to merge:\n", question)
	for _, c := range contributions {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", c.Capability, c.Payload)
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(synthesisSystemPrompt),
			openai.UserMessage(b.String()),
		},
	})
	if err != nil {
		return "", fmt.Errorf("synthesis completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("synthesis completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
