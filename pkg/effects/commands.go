// Package effects dispatches editor-side effects derived from terminal tool
// events. The decoder stays host-agnostic: every outbound command goes
// through an injected Ports implementation, so the same decode path serves
// a browser bridge, an event stream, or a test double.
package effects

import "github.com/google/uuid"

// InsertTextCommand asks the editor layer to insert markdown content.
type InsertTextCommand struct {
	CommandID       string `json:"command_id"`
	Markdown        string `json:"markdown"`
	Position        string `json:"position,omitempty"`
	TargetText      string `json:"target_text,omitempty"`
	TargetHeading   string `json:"target_heading,omitempty"`
	FocusOnHeadings bool   `json:"focus_on_headings"`
}

// DeleteTextCommand asks the editor layer to delete content.
type DeleteTextCommand struct {
	CommandID     string `json:"command_id"`
	TargetText    string `json:"target_text,omitempty"`
	TargetHeading string `json:"target_heading,omitempty"`
	Mode          string `json:"mode,omitempty"`
	StartText     string `json:"start_text,omitempty"`
	EndText       string `json:"end_text,omitempty"`
}

// InsertCitationCommand asks the editor layer to insert a formatted
// citation at the cursor or near target text.
type InsertCitationCommand struct {
	CommandID  string   `json:"command_id"`
	SourceID   string   `json:"source_id"`
	Title      string   `json:"title"`
	Year       string   `json:"year,omitempty"`
	Authors    []string `json:"authors"`
	DOI        string   `json:"doi,omitempty"`
	URL        string   `json:"url,omitempty"`
	AccessDate string   `json:"access_date,omitempty"`
	TargetText string   `json:"target_text,omitempty"`
}

// SetThemaCommand tells the assistant UI which topic the agent settled on.
type SetThemaCommand struct {
	CommandID string `json:"command_id"`
	Thema     string `json:"thema"`
}

func newCommandID() string {
	return uuid.NewString()
}
