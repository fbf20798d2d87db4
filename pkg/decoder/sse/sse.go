// Package sse decodes the chat-mode wire format: a Server-Sent-Events style
// stream of "data: {...}" lines, one JSON event per line, plus a legacy
// fallback that scans the finished text for whole-message markers.
package sse

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/scriptoriumco/vellum/pkg/decoder"
	"github.com/scriptoriumco/vellum/pkg/message"
)

// Decoder implements decoder.Protocol for the SSE wire format.
type Decoder struct {
	buf string
}

// New creates an SSE protocol decoder.
func New() *Decoder {
	return &Decoder{}
}

// Name implements decoder.Protocol.
func (d *Decoder) Name() string {
	return "sse"
}

// Feed splits the growing buffer into complete lines, holding back the
// trailing partial line for the next chunk. Each complete line is handled
// individually so one malformed line never affects the rest of the stream.
func (d *Decoder) Feed(ctx context.Context, s *decoder.Session, text string) {
	d.buf += text
	for {
		i := strings.IndexByte(d.buf, '\n')
		if i < 0 {
			return
		}
		line := d.buf[:i]
		d.buf = d.buf[i+1:]
		d.handleLine(ctx, s, line)
	}
}

// Finish handles the final unterminated line, then runs the legacy
// whole-message marker fallback over the accumulated text.
func (d *Decoder) Finish(ctx context.Context, s *decoder.Session) {
	if d.buf != "" {
		d.handleLine(ctx, s, d.buf)
		d.buf = ""
	}
	applyLegacyMarkers(ctx, s)
}

func (d *Decoder) handleLine(ctx context.Context, s *decoder.Session, line string) {
	line = strings.TrimSuffix(line, "\r")
	if line == "" {
		return
	}

	payload, ok := strings.CutPrefix(line, "data:")
	if !ok {
		// Comments and non-data fields carry nothing we consume.
		return
	}
	payload = strings.TrimPrefix(payload, " ")

	// A [DONE] sentinel is tolerated but carries no event.
	if payload == "" || payload == "[DONE]" {
		return
	}

	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.Logger().Warn("sse event parse failed, line skipped", "error", err)
		return
	}
	d.handleEvent(ctx, s, ev)
}

func (d *Decoder) handleEvent(ctx context.Context, s *decoder.Session, ev Event) {
	switch ev.Type {
	case EventReasoningDelta:
		s.AppendReasoning(ev.Delta)

	case EventTextDelta:
		// Text produced between a tool call and its result is treated as
		// reasoning.
		if s.TextGoesToReasoning() {
			s.AppendReasoning(ev.Delta)
		} else {
			s.AppendText(ev.Delta)
		}

	case EventToolInputStart:
		s.NoteToolCall()

	case EventToolInputAvailable:
		s.AddPendingTool(ev.ToolCallID)
		s.UpsertToolInvocation(ev.ToolCallID, func(inv *message.ToolInvocation) {
			inv.ToolName = ev.ToolName
			inv.State = message.StatusRunning
			inv.Input = ev.Input
		})

	case EventToolOutputAvailable:
		s.ResolvePendingTool(ev.ToolCallID)
		// Output events may omit the tool name; the invocation created at
		// tool-input-available still knows it.
		toolName := ev.ToolName
		s.UpsertToolInvocation(ev.ToolCallID, func(inv *message.ToolInvocation) {
			if ev.ToolName != "" {
				inv.ToolName = ev.ToolName
			}
			toolName = inv.ToolName
			inv.State = message.StatusCompleted
			inv.Output = ev.Output
		})
		s.DispatchToolResult(ctx, toolName, ev.Output)

	case EventTextEnd:
		s.CloseReasoningIfIdle()

	case EventFinish, EventFinishStep:
		if reasoning := finalReasoning(ev); reasoning != "" {
			s.SetReasoning(reasoning)
		}
		s.ClearPendingTools()

	default:
		// Unknown event types are ignored.
	}
}

// finalReasoning returns the full reasoning text a finish event carries, if
// any. Backends have used both field names.
func finalReasoning(ev Event) string {
	if ev.Reasoning != "" {
		return ev.Reasoning
	}
	return ev.ReasoningText
}
