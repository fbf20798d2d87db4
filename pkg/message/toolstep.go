package message

import "time"

// StepStatus is the lifecycle status of a tool step.
// Transitions are monotonic: running -> completed or running -> error,
// never reversed.
type StepStatus string

const (
	StatusRunning   StepStatus = "running"
	StatusCompleted StepStatus = "completed"
	StatusError     StepStatus = "error"
)

// Terminal reports whether the status is a terminal state.
func (s StepStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ToolStep records one agent tool call. Created only by a START token with
// status running; mutated in place by the matching END token, which sets a
// terminal status and CompletedAt. The ID is unique within a message.
type ToolStep struct {
	ID          string         `json:"id"`
	ToolName    string         `json:"tool_name"`
	Status      StepStatus     `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// ToolInvocation records one tool call in the chat (SSE) protocol,
// identified by its provider-assigned call id.
type ToolInvocation struct {
	ToolCallID string         `json:"tool_call_id"`
	ToolName   string         `json:"tool_name"`
	State      StepStatus     `json:"state"`
	Input      map[string]any `json:"input,omitempty"`
	Output     map[string]any `json:"output,omitempty"`
}
