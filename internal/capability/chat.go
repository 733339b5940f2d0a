package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/loqui-ai/loqui/internal/engine"
	"github.com/loqui-ai/loqui/internal/session"
)

const chatSystemPrompt = `You are a helpful sales assistant for an e-commerce platform.
Answer naturally and concisely in the user's language. Use the known user
profile when it is relevant, and never invent contact details.`

// ProfileReader loads the stored profile for a user. A nil profile means
// nothing is known yet.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*session.Profile, error)
}

// Chat is the general-conversation capability: one chat completion over the
// system prompt, recent history, and whatever profile context exists.
type Chat struct {
	client   openai.Client
	model    string
	profiles ProfileReader
}

// NewChat creates the general-conversation adapter. profiles may be nil.
func NewChat(client openai.Client, model string, profiles ProfileReader) *Chat {
	return &Chat{client: client, model: model, profiles: profiles}
}

// Invoke implements engine.Adapter.
func (c *Chat) Invoke(ctx context.Context, turn *engine.Turn) (string, error) {
	system := chatSystemPrompt
	if c.profiles != nil {
		if p, err := c.profiles.GetProfile(ctx, turn.UserID); err == nil && p != nil {
			system += "\n\nKnown user profile:\n" + formatProfile(p)
		}
	}

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}
	messages = append(messages, historyMessages(turn.History)...)
	messages = append(messages, openai.UserMessage(turn.Text))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// historyMessages converts prior messages into chat parameters, preserving
// chronological order.
func historyMessages(history []engine.PriorMessage) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	for _, m := range history {
		switch m.Role {
		case engine.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case engine.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func formatProfile(p *session.Profile) string {
	var b strings.Builder
	add := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, v)
		}
	}
	add("Name", p.Name)
	add("Company", p.Company)
	add("Title", p.Title)
	add("Phone", p.Phone)
	add("Email", p.Email)
	return b.String()
}
