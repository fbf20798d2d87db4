// Package marker decodes the agent-mode wire format: free text with embedded
// [TAG:base64] control markers. Markers can straddle chunk boundaries, so the
// decoder keeps a growing text buffer and only consumes complete markers.
package marker

import (
	"context"
	"strings"

	"github.com/scriptoriumco/vellum/pkg/decoder"
	"github.com/scriptoriumco/vellum/pkg/message"
	"github.com/scriptoriumco/vellum/pkg/utils"
)

// Tag is a recognized marker tag. The set is closed; the scanner matches the
// full "[TAG:" prefix so a tag that is a prefix of another never collides.
type Tag string

const (
	TagToolStepStart  Tag = "TOOL_STEP_START"
	TagToolStepEnd    Tag = "TOOL_STEP_END"
	TagToolResult     Tag = "TOOL_RESULT"
	TagToolResultB64  Tag = "TOOL_RESULT_B64"
	TagReasoningDelta Tag = "REASONING_DELTA"
)

var tags = []Tag{
	TagToolStepStart,
	TagToolStepEnd,
	TagToolResult,
	TagToolResultB64,
	TagReasoningDelta,
}

// holdback is how many trailing characters a lone '[' is held back from
// literal-text emission, guarding against a marker prefix split across
// chunks. The longest prefix, "[TOOL_RESULT_B64:", is 17 characters.
const holdback = 20

// payloadPreview bounds how much of a bad payload the decode-failure
// warnings carry.
const payloadPreview = 64

// Decoder implements decoder.Protocol for the marker wire format.
type Decoder struct {
	buf string
}

// New creates a marker protocol decoder.
func New() *Decoder {
	return &Decoder{}
}

// Name implements decoder.Protocol.
func (d *Decoder) Name() string {
	return "marker"
}

// Feed appends text to the scan buffer and consumes every complete marker
// and literal-text run currently in it.
func (d *Decoder) Feed(ctx context.Context, s *decoder.Session, text string) {
	d.buf += text
	d.scan(ctx, s, false)
}

// Finish drains the buffer at stream end. A marker prefix that never saw its
// terminator is a protocol violation; the remainder is dropped, not surfaced
// as text. A buffer without any marker prefix is emitted as literal text,
// including any '[' the holdback heuristic was guarding.
func (d *Decoder) Finish(ctx context.Context, s *decoder.Session) {
	d.scan(ctx, s, true)
}

func (d *Decoder) scan(ctx context.Context, s *decoder.Session, final bool) {
	for {
		start, tag := earliestMarker(d.buf)
		if start < 0 {
			d.emitLiteral(s, final)
			return
		}

		// Literal text before the marker is emitted immediately.
		if start > 0 {
			s.AppendText(d.buf[:start])
			d.buf = d.buf[start:]
			start = 0
		}

		prefixLen := len(tag) + 2
		end := strings.IndexByte(d.buf[prefixLen:], ']')
		if end < 0 {
			// Terminator not arrived yet. The payload is base64, so the
			// first ']' is always ours once it shows up.
			if final {
				s.Logger().Warn("unterminated marker at stream end, dropped",
					"tag", string(tag), "buffered", len(d.buf))
				d.buf = ""
			}
			return
		}

		payload := d.buf[prefixLen : prefixLen+end]
		d.buf = d.buf[prefixLen+end+1:]
		d.handleMarker(ctx, s, tag, payload)
	}
}

// emitLiteral flushes the buffer as literal text. While the stream is live,
// a '[' inside the trailing holdback window is kept buffered in case it is
// the start of a marker prefix split across chunks.
func (d *Decoder) emitLiteral(s *decoder.Session, final bool) {
	cut := len(d.buf)
	if !final {
		if i := strings.LastIndexByte(d.buf, '['); i >= 0 && len(d.buf)-i <= holdback {
			cut = i
		}
	}
	if cut > 0 {
		s.AppendText(d.buf[:cut])
		d.buf = d.buf[cut:]
	}
}

func (d *Decoder) handleMarker(ctx context.Context, s *decoder.Session, tag Tag, payload string) {
	switch tag {
	case TagReasoningDelta:
		text, err := decodeText(payload)
		if err != nil {
			s.Logger().Warn("reasoning delta decode failed",
				"error", err, "payload", utils.Truncate(payload, payloadPreview))
			return
		}
		s.AppendReasoning(text)

	case TagToolStepStart:
		var tok toolStepStart
		if err := decodeJSON(payload, &tok); err != nil {
			s.Logger().Warn("tool step start decode failed",
				"error", err, "payload", utils.Truncate(payload, payloadPreview))
			return
		}
		s.StartToolStep(tok.ID, tok.ToolName, tok.Input)

	case TagToolStepEnd:
		var tok toolStepEnd
		if err := decodeJSON(payload, &tok); err != nil {
			s.Logger().Warn("tool step end decode failed",
				"error", err, "payload", utils.Truncate(payload, payloadPreview))
			return
		}
		s.FinishToolStep(ctx, tok.ID, stepStatus(tok.Status), tok.Output, tok.Error)

	case TagToolResult, TagToolResultB64:
		var tok toolResult
		if err := decodeResultJSON(tag, payload, &tok); err != nil {
			s.Logger().Warn("tool result decode failed", "tag", string(tag),
				"error", err, "payload", utils.Truncate(payload, payloadPreview))
			return
		}
		s.DispatchToolResult(ctx, tok.ToolName, tok.Output)
	}
}

// earliestMarker finds the first occurrence of any recognized "[TAG:" prefix
// in buf, returning its index and tag, or -1 when none is present.
func earliestMarker(buf string) (int, Tag) {
	best := -1
	var bestTag Tag
	for _, t := range tags {
		if i := strings.Index(buf, "["+string(t)+":"); i >= 0 && (best < 0 || i < best) {
			best = i
			bestTag = t
		}
	}
	return best, bestTag
}

// stepStatus maps a wire status onto the part model. Anything that is not
// explicitly an error counts as completed.
func stepStatus(s string) message.StepStatus {
	if s == string(message.StatusError) {
		return message.StatusError
	}
	return message.StatusCompleted
}
