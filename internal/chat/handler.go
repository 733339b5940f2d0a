package chat

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loqui-ai/loqui/internal/api"
	"github.com/loqui-ai/loqui/internal/engine"
	"github.com/loqui-ai/loqui/internal/session"
)

// TurnEngine is the slice of the pipeline the HTTP layer depends on.
type TurnEngine interface {
	HandleTurn(ctx context.Context, turn *engine.Turn) (engine.AggregatedReply, error)
}

type Handler struct {
	engine       TurnEngine
	sessions     *session.Store
	validate     *validator.Validate
	historyLimit int
}

func NewHandler(eng TurnEngine, sessions *session.Store, historyLimit int) *Handler {
	if historyLimit <= 0 {
		historyLimit = session.DefaultMaxMessages
	}
	return &Handler{
		engine:       eng,
		sessions:     sessions,
		validate:     validator.New(),
		historyLimit: historyLimit,
	}
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	var image []byte
	if req.Image != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			api.HandleError(w, api.NewBadRequestError("image must be base64-encoded"))
			return
		}
		image = decoded
	}

	userID := req.UserID
	if userID == "" {
		userID = req.ConversationID
	}

	history, err := h.sessions.History(r.Context(), req.ConversationID, h.historyLimit)
	if err != nil {
		slog.Warn("loading conversation history",
			"conversation_id", req.ConversationID, "error", err)
		history = nil
	}

	turn := &engine.Turn{
		Text:           req.Message,
		Image:          image,
		History:        history,
		UserID:         userID,
		ConversationID: req.ConversationID,
	}

	reply, err := h.engine.HandleTurn(r.Context(), turn)
	if err != nil {
		if engine.IsTotalFailure(err) {
			api.HandleError(w, api.ErrUnavailable)
			return
		}
		slog.Error("handling turn", "conversation_id", req.ConversationID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	h.persistExchange(r.Context(), req.ConversationID, req.Message, reply.Text)

	caps := make([]string, len(reply.Contributing))
	for i, c := range reply.Contributing {
		caps[i] = string(c)
	}

	api.JSON(w, http.StatusOK, ChatResponse{
		ConversationID: req.ConversationID,
		Reply:          reply.Text,
		Capabilities:   caps,
		Degraded:       reply.Degraded,
		CreatedAt:      time.Now().UTC(),
	})
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.sessions.Clear(r.Context(), conversationID); err != nil {
		slog.Error("clearing session", "conversation_id", conversationID, "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSONMessage(w, http.StatusOK, "session cleared")
}

// persistExchange appends the user and assistant messages to history.
// Failures are logged, not surfaced: the reply has already been produced.
func (h *Handler) persistExchange(ctx context.Context, conversationID, userText, replyText string) {
	now := time.Now().UTC()
	if userText != "" {
		if err := h.sessions.Append(ctx, conversationID, engine.PriorMessage{
			Role: engine.RoleUser, Content: userText, Timestamp: now,
		}); err != nil {
			slog.Warn("persisting user message",
				"conversation_id", conversationID, "error", err)
			return
		}
	}
	if err := h.sessions.Append(ctx, conversationID, engine.PriorMessage{
		Role: engine.RoleAssistant, Content: replyText, Timestamp: now,
	}); err != nil {
		slog.Warn("persisting assistant message",
			"conversation_id", conversationID, "error", err)
	}
}
