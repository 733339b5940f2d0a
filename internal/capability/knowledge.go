package capability

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"

	"github.com/loqui-ai/loqui/internal/engine"
	"github.com/loqui-ai/loqui/internal/knowledge"
)

const knowledgeSystemPrompt = `You answer product and technical questions for an e-commerce platform.
Ground every answer in the provided passages. If the passages do not cover
the question, say so instead of guessing.`

// NoPassagesReply is returned when the knowledge base has nothing relevant.
const NoPassagesReply = "I could not find anything about that in the knowledge base. Could you rephrase the question, or ask about our platform features, pricing, or integrations?"

// Knowledge is the retrieval capability: embed the query, search the
// passage store, answer grounded on the top hits.
type Knowledge struct {
	client         openai.Client
	chatModel      string
	embeddingModel string
	repo           knowledge.Repository
	limit          int
	threshold      float64
}

// NewKnowledge creates the knowledge-retrieval adapter.
func NewKnowledge(client openai.Client, chatModel, embeddingModel string, repo knowledge.Repository) *Knowledge {
	return &Knowledge{
		client:         client,
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
		repo:           repo,
		limit:          5,
		threshold:      0.3,
	}
}

// Invoke implements engine.Adapter.
func (k *Knowledge) Invoke(ctx context.Context, turn *engine.Turn) (string, error) {
	embedding, err := k.embed(ctx, turn.Text)
	if err != nil {
		return "", fmt.Errorf("embedding query: %w", err)
	}

	hits, err := k.repo.SearchSimilar(ctx, embedding, k.limit, k.threshold)
	if err != nil {
		return "", fmt.Errorf("searching knowledge base: %w", err)
	}
	if len(hits) == 0 {
		return NoPassagesReply, nil
	}

	var passages strings.Builder
	for i, hit := range hits {
		fmt.Fprintf(&passages, "[%d] (%s) %s\n", i+1, hit.Passage.Source, hit.Passage.Content)
	}

	resp, err := k.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: k.chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(knowledgeSystemPrompt),
			openai.UserMessage(fmt.Sprintf("Passages:\n%s\nQuestion: %s", passages.String(), turn.Text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("answering from passages: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("answer completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (k *Knowledge) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := k.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: k.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response is empty")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, v := range resp.Data[0].Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}
