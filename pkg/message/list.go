package message

import "strings"

// List is an ordered part list under assembly. The mutation helpers keep the
// list's structural invariants: trailing text parts merge, the reasoning
// part stays at the front, and sources are unique by URL.
//
// List is not safe for concurrent use; the owning decoder session serializes
// access.
type List struct {
	parts []Part
}

// Parts returns the underlying part slice. Callers must not mutate it.
func (l *List) Parts() []Part {
	return l.parts
}

// Len returns the number of parts.
func (l *List) Len() int {
	return len(l.parts)
}

// Snapshot returns a copy of the part list safe to hand across goroutines.
// Part payloads are pointers into live state; consumers treat them as
// read-only.
func (l *List) Snapshot() []Part {
	out := make([]Part, len(l.parts))
	copy(out, l.parts)
	return out
}

// AppendText appends literal text, merging into a trailing text part if one
// exists. Empty input is a no-op.
func (l *List) AppendText(text string) {
	if text == "" {
		return
	}
	if n := len(l.parts); n > 0 && l.parts[n-1].Kind == PartText {
		l.parts[n-1].Text += text
		return
	}
	l.parts = append(l.parts, TextPart(text))
}

// AppendReasoning appends to the message's single reasoning part, inserting
// it at the front of the list when absent. Reasoning is always surfaced
// before other parts.
func (l *List) AppendReasoning(delta string) {
	if delta == "" {
		return
	}
	if idx := l.reasoningIndex(); idx >= 0 {
		l.parts[idx].Reasoning += delta
		return
	}
	l.parts = append([]Part{ReasoningPart(delta)}, l.parts...)
}

// SetReasoning replaces the reasoning part content, front-inserting the part
// when absent. Used when a finish event carries the full reasoning text.
func (l *List) SetReasoning(reasoning string) {
	if reasoning == "" {
		return
	}
	if idx := l.reasoningIndex(); idx >= 0 {
		l.parts[idx].Reasoning = reasoning
		return
	}
	l.parts = append([]Part{ReasoningPart(reasoning)}, l.parts...)
}

// Reasoning returns the current reasoning content, or "" if none.
func (l *List) Reasoning() string {
	if idx := l.reasoningIndex(); idx >= 0 {
		return l.parts[idx].Reasoning
	}
	return ""
}

func (l *List) reasoningIndex() int {
	for i := range l.parts {
		if l.parts[i].Kind == PartReasoning {
			return i
		}
	}
	return -1
}

// Append adds a part at the end of the list and returns its index.
func (l *List) Append(p Part) int {
	l.parts = append(l.parts, p)
	return len(l.parts) - 1
}

// At returns a pointer to the part at index i for in-place mutation.
func (l *List) At(i int) *Part {
	return &l.parts[i]
}

// AddSource appends a source part unless a source with the same URL already
// exists anywhere in the list. Reports whether the part was added.
func (l *List) AddSource(src Source) bool {
	if src.URL == "" {
		return false
	}
	for i := range l.parts {
		if l.parts[i].Kind == PartSource && l.parts[i].Source.URL == src.URL {
			return false
		}
	}
	l.parts = append(l.parts, SourcePart(src))
	return true
}

// Text returns the concatenated content of all text parts.
func (l *List) Text() string {
	var out string
	for i := range l.parts {
		if l.parts[i].Kind == PartText {
			out += l.parts[i].Text
		}
	}
	return out
}

// RemoveFromText deletes the first occurrence of sub from the concatenated
// text content. The match may span several text parts when other part kinds
// are interleaved; each affected part loses only its slice of the match. Used
// by the legacy chat fallback to strip whole-message marker substrings from
// displayed text.
func (l *List) RemoveFromText(sub string) {
	if sub == "" {
		return
	}

	// Offsets of each text part within the concatenation.
	starts := make([]int, len(l.parts))
	var b strings.Builder
	for i := range l.parts {
		if l.parts[i].Kind != PartText {
			continue
		}
		starts[i] = b.Len()
		b.WriteString(l.parts[i].Text)
	}

	pos := strings.Index(b.String(), sub)
	if pos < 0 {
		return
	}
	end := pos + len(sub)

	for i := range l.parts {
		if l.parts[i].Kind != PartText {
			continue
		}
		t := l.parts[i].Text
		pstart := starts[i]
		pend := pstart + len(t)
		if pend <= pos || pstart >= end {
			continue
		}
		l.parts[i].Text = t[:max(pos-pstart, 0)] + t[min(end-pstart, len(t)):]
	}
}
