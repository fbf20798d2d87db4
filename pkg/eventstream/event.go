package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// Event types for dispatched editor commands.
	EventTypeInsertText     = "vellum.editor.insert_text"
	EventTypeDeleteText     = "vellum.editor.delete_text"
	EventTypeInsertCitation = "vellum.editor.insert_citation"
	EventTypeSetThema       = "vellum.agent.set_thema"
)

// CommandEvent is a transport-neutral envelope for one dispatched editor
// command.
type CommandEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Command       any         `json:"command"`
}

// EventSource identifies the decode session a command originated from.
type EventSource struct {
	SessionID string `json:"session_id,omitempty"`
	Protocol  string `json:"protocol,omitempty"` // "marker" or "sse"
}

// NewCommandEvent wraps a command payload in a v1 envelope.
func NewCommandEvent(eventType string, source EventSource, command any) *CommandEvent {
	return &CommandEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Command:       command,
	}
}
