// Package message defines the shared part model for streamed assistant
// messages. A message is assembled incrementally by a decoder session: the
// decoder appends and mutates parts, the UI layer only reads them.
package message

// PartKind discriminates the Part union. The set is closed; decoders switch
// exhaustively over it.
type PartKind string

const (
	// PartText is literal prose. Consecutive text parts are coalesced.
	PartText PartKind = "text"

	// PartReasoning is the model's intermediate reasoning. A message holds
	// at most one live reasoning part, surfaced before all other parts.
	PartReasoning PartKind = "reasoning"

	// PartToolStep is a long-lived record of one agent tool call,
	// identity-stable across its running -> terminal lifecycle.
	PartToolStep PartKind = "tool-step"

	// PartToolInvocation is the simpler call/result record used by the
	// chat (SSE) protocol, identified by its tool call id.
	PartToolInvocation PartKind = "tool-invocation"

	// PartSource is a cited or crawled reference, deduplicated by URL
	// across the whole part list.
	PartSource PartKind = "source"
)

// Part is one typed fragment of an assistant message. Kind determines which
// payload field is populated.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text content (kind=text)
	Text string `json:"text,omitempty"`

	// Reasoning content (kind=reasoning)
	Reasoning string `json:"reasoning,omitempty"`

	// Tool step (kind=tool-step)
	ToolStep *ToolStep `json:"tool_step,omitempty"`

	// Tool invocation (kind=tool-invocation)
	ToolInvocation *ToolInvocation `json:"tool_invocation,omitempty"`

	// Source reference (kind=source)
	Source *Source `json:"source,omitempty"`
}

// Source is a cited or crawled reference.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
	ID    string `json:"id,omitempty"`
}

// TextPart creates a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ReasoningPart creates a reasoning part.
func ReasoningPart(reasoning string) Part {
	return Part{Kind: PartReasoning, Reasoning: reasoning}
}

// SourcePart creates a source part.
func SourcePart(src Source) Part {
	return Part{Kind: PartSource, Source: &src}
}
