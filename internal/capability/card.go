package capability

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"

	"github.com/loqui-ai/loqui/internal/engine"
	"github.com/loqui-ai/loqui/internal/session"
)

const cardSystemPrompt = `You extract contact details from business card images.
Respond with a single JSON object and nothing else, using exactly these keys:
{"name": "", "company": "", "title": "", "phone": "", "email": ""}
Leave a key empty when the card does not show that field.`

// ProfileWriter merges extracted contact fields into a user's profile.
type ProfileWriter interface {
	UpdateProfile(ctx context.Context, userID string, update session.Profile) error
}

// Card is the business-card extraction capability: a vision completion over
// the turn's image, strict-JSON contact extraction, then a profile update so
// later turns know who they are talking to.
type Card struct {
	client   openai.Client
	model    string
	profiles ProfileWriter
}

// NewCard creates the card-extraction adapter. profiles may be nil to skip
// persistence.
func NewCard(client openai.Client, model string, profiles ProfileWriter) *Card {
	return &Card{client: client, model: model, profiles: profiles}
}

// Invoke implements engine.Adapter.
func (c *Card) Invoke(ctx context.Context, turn *engine.Turn) (string, error) {
	if !turn.HasImage() {
		return "Please attach a photo of the business card you want me to read.", nil
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(turn.Image)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(cardSystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Extract the contact details from this business card."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("vision completion returned no choices")
	}

	contact, err := parseContact(resp.Choices[0].Message.Content)
	if err != nil {
		return "", fmt.Errorf("parsing extracted contact: %w", err)
	}

	if c.profiles != nil && turn.UserID != "" {
		if err := c.profiles.UpdateProfile(ctx, turn.UserID, *contact); err != nil {
			// Extraction still succeeded; losing the profile write degrades
			// later turns, not this one.
			slog.Warn("updating profile from card", "user_id", turn.UserID, "error", err)
		}
	}

	return formatContact(contact), nil
}

// parseContact decodes the model's JSON, tolerating a fenced code block
// around it.
func parseContact(raw string) (*session.Profile, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var contact session.Profile
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func formatContact(p *session.Profile) string {
	var b strings.Builder
	b.WriteString("Here is what I read from the card:\n")
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
	b.WriteString("I have saved these details to your profile.")
	return b.String()
}
