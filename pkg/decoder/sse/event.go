package sse

// Event types emitted by the chat backend.
const (
	EventReasoningDelta      = "reasoning-delta"
	EventTextDelta           = "text-delta"
	EventToolInputStart      = "tool-input-start"
	EventToolInputAvailable  = "tool-input-available"
	EventToolOutputAvailable = "tool-output-available"
	EventTextEnd             = "text-end"
	EventFinish              = "finish"
	EventFinishStep          = "finish-step"
)

// Event is one decoded data line. Only the fields relevant to the event's
// type are populated; unknown fields are ignored.
type Event struct {
	Type          string         `json:"type"`
	Delta         string         `json:"delta,omitempty"`
	ToolName      string         `json:"toolName,omitempty"`
	ToolCallID    string         `json:"toolCallId,omitempty"`
	Input         map[string]any `json:"input,omitempty"`
	Output        map[string]any `json:"output,omitempty"`
	Reasoning     string         `json:"reasoning,omitempty"`
	ReasoningText string         `json:"reasoningText,omitempty"`
}
