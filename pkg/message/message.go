package message

import "time"

// Message is one assistant turn being streamed. The chat/agent UI layer owns
// the surrounding conversation; the decoder only fills in Parts.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "assistant"
	Parts     []Part    `json:"parts"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAssistantMessage creates an empty assistant message ready to receive
// streamed parts.
func NewAssistantMessage(id string) Message {
	return Message{
		ID:        id,
		Role:      "assistant",
		CreatedAt: time.Now(),
	}
}
