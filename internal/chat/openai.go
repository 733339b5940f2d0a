package chat

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loqui-ai/loqui/internal/api"
	"github.com/loqui-ai/loqui/internal/engine"
)

// ModelID is the single model name the OpenAI-compatible surface serves.
const ModelID = "loqui-assistant"

// completionRequest mirrors the OpenAI chat completions wire format closely
// enough for off-the-shelf clients. Content is either a plain string or an
// array of typed parts, so it stays a RawMessage until parsed.
type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
	User     string              `json:"user,omitempty"`
}

type completionMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

type contentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
}

type completionChoice struct {
	Index        int               `json:"index"`
	Message      assistantMessage  `json:"message"`
	FinishReason string            `json:"finish_reason"`
}

type assistantMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelList struct {
	Object string      `json:"object"`
	Data   []modelInfo `json:"data"`
}

type modelInfo struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// ChatCompletions adapts the OpenAI chat completions format onto a pipeline
// turn: the last user message becomes the turn, everything before it becomes
// history, and a data-URL image part becomes the turn's image.
func (h *Handler) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req completionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if len(req.Messages) == 0 {
		api.HandleError(w, api.NewBadRequestError("messages must not be empty"))
		return
	}

	lastUser := -1
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUser = i
			break
		}
	}
	if lastUser == -1 {
		api.HandleError(w, api.NewBadRequestError("at least one user message is required"))
		return
	}

	text, image, err := parseContent(req.Messages[lastUser].Content)
	if err != nil {
		api.HandleError(w, api.NewBadRequestError(err.Error()))
		return
	}

	var history []engine.PriorMessage
	for _, msg := range req.Messages[:lastUser] {
		role := engine.Role(msg.Role)
		if role != engine.RoleUser && role != engine.RoleAssistant && role != engine.RoleSystem {
			continue
		}
		prior, _, err := parseContent(msg.Content)
		if err != nil || prior == "" {
			continue
		}
		history = append(history, engine.PriorMessage{Role: role, Content: prior})
	}

	conversationID := req.User
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	turn := &engine.Turn{
		Text:           text,
		Image:          image,
		History:        history,
		UserID:         conversationID,
		ConversationID: conversationID,
	}

	reply, err := h.engine.HandleTurn(r.Context(), turn)
	if err != nil {
		if engine.IsTotalFailure(err) {
			api.HandleError(w, api.ErrUnavailable)
			return
		}
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONRaw(w, http.StatusOK, completionResponse{
		ID:      "chatcmpl-" + uuid.New().String(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   ModelID,
		Choices: []completionChoice{{
			Message:      assistantMessage{Role: "assistant", Content: reply.Text},
			FinishReason: "stop",
		}},
	})
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	api.JSONRaw(w, http.StatusOK, modelList{
		Object: "list",
		Data: []modelInfo{{
			ID:      ModelID,
			Object:  "model",
			Created: time.Now().Unix(),
			OwnedBy: "loqui",
		}},
	})
}

// parseContent extracts text and an optional inline image from a message
// content field, which is either a JSON string or an array of typed parts.
func parseContent(raw json.RawMessage) (string, []byte, error) {
	if len(raw) == 0 {
		return "", nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil, nil
	}

	var parts []contentPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", nil, errInvalidContent
	}

	var sb strings.Builder
	var image []byte
	for _, p := range parts {
		switch p.Type {
		case "text":
			sb.WriteString(p.Text)
		case "image_url":
			decoded, err := decodeDataURL(p.ImageURL.URL)
			if err != nil {
				return "", nil, err
			}
			image = decoded
		}
	}
	return sb.String(), image, nil
}

var errInvalidContent = api.NewBadRequestError("message content must be a string or an array of parts")

// decodeDataURL decodes a base64 data URL. Remote image URLs are rejected:
// the service never fetches attacker-controlled URLs.
func decodeDataURL(url string) ([]byte, error) {
	const marker = ";base64,"
	if !strings.HasPrefix(url, "data:") {
		return nil, api.NewBadRequestError("image_url must be a base64 data URL")
	}
	idx := strings.Index(url, marker)
	if idx == -1 {
		return nil, api.NewBadRequestError("image_url must be base64-encoded")
	}
	decoded, err := base64.StdEncoding.DecodeString(url[idx+len(marker):])
	if err != nil {
		return nil, api.NewBadRequestError("image_url carries invalid base64 data")
	}
	return decoded, nil
}
