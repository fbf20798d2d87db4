package sse

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/scriptoriumco/vellum/pkg/decoder"
	"github.com/scriptoriumco/vellum/pkg/message"
)

// Legacy whole-message marker tags. Older chat backends append these to the
// end of the plain text instead of emitting typed events.
const (
	legacyReasoning       = "REASONING"
	legacySearchSources   = "WEB_SEARCH_SOURCES"
	legacyToolInvocations = "TOOL_INVOCATIONS"
)

var legacyTags = []string{legacyReasoning, legacySearchSources, legacyToolInvocations}

// applyLegacyMarkers scans the full accumulated text once, at stream end,
// for whole-message markers, merges their payloads into the part list, and
// strips every marker substring from the displayed text. Markers whose
// payload fails to decode are still stripped; a broken marker must not leak
// into the prose.
func applyLegacyMarkers(ctx context.Context, s *decoder.Session) {
	text := s.Text()

	for _, tag := range legacyTags {
		prefix := "[" + tag + ":"
		rest := text

		for {
			i := strings.Index(rest, prefix)
			if i < 0 {
				break
			}
			j := strings.IndexByte(rest[i+len(prefix):], ']')
			if j < 0 {
				break
			}

			full := rest[i : i+len(prefix)+j+1]
			payload := rest[i+len(prefix) : i+len(prefix)+j]
			rest = rest[i+len(prefix)+j+1:]

			mergeLegacyPayload(ctx, s, tag, payload)
			s.RemoveFromText(full)
		}
	}
}

func mergeLegacyPayload(ctx context.Context, s *decoder.Session, tag, payload string) {
	raw, err := decodeBase64(payload)
	if err != nil {
		s.Logger().Warn("legacy marker decode failed", "tag", tag, "error", err)
		return
	}

	switch tag {
	case legacyReasoning:
		if !utf8.Valid(raw) {
			s.Logger().Warn("legacy reasoning payload is not valid utf-8")
			return
		}
		s.SetReasoning(string(raw))

	case legacySearchSources:
		var sources []message.Source
		if err := json.Unmarshal(raw, &sources); err != nil {
			s.Logger().Warn("legacy search sources parse failed", "error", err)
			return
		}
		s.AddSources(sources)

	case legacyToolInvocations:
		var invocations []legacyInvocation
		if err := json.Unmarshal(raw, &invocations); err != nil {
			s.Logger().Warn("legacy tool invocations parse failed", "error", err)
			return
		}
		for _, li := range invocations {
			s.UpsertToolInvocation(li.ToolCallID, func(inv *message.ToolInvocation) {
				inv.ToolName = li.ToolName
				inv.State = invocationState(li.State)
				inv.Input = li.Input
				inv.Output = li.Output
			})
			if invocationState(li.State) == message.StatusCompleted {
				s.DispatchToolResult(ctx, li.ToolName, li.Output)
			}
		}
	}
}

type legacyInvocation struct {
	ToolCallID string         `json:"toolCallId"`
	ToolName   string         `json:"toolName"`
	State      string         `json:"state"`
	Input      map[string]any `json:"input"`
	Output     map[string]any `json:"output"`
}

// invocationState maps the loose wire state onto the part model. A missing
// state on a legacy record means the call finished before the message did.
func invocationState(s string) message.StepStatus {
	switch s {
	case string(message.StatusRunning):
		return message.StatusRunning
	case string(message.StatusError):
		return message.StatusError
	default:
		return message.StatusCompleted
	}
}

// decodeBase64 accepts padded or raw standard encoding.
func decodeBase64(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}
