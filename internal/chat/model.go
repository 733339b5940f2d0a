package chat

import "time"

// ChatRequest is the native conversation endpoint's request body. Image is
// base64-encoded when present.
type ChatRequest struct {
	ConversationID string `json:"conversation_id" validate:"required,min=1,max=128"`
	UserID         string `json:"user_id" validate:"omitempty,max=128"`
	Message        string `json:"message" validate:"required_without=Image,max=8192"`
	Image          string `json:"image,omitempty" validate:"omitempty,base64"`
}

type ChatResponse struct {
	ConversationID string   `json:"conversation_id"`
	Reply          string   `json:"reply"`
	Capabilities   []string `json:"capabilities"`
	Degraded       bool     `json:"degraded,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
