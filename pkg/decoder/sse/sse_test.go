package sse_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scriptoriumco/vellum/pkg/decoder"
	"github.com/scriptoriumco/vellum/pkg/decoder/sse"
	"github.com/scriptoriumco/vellum/pkg/effects"
	"github.com/scriptoriumco/vellum/pkg/message"
)

func newSession() *decoder.Session {
	return decoder.NewSession(decoder.Config{
		SessionID:  "test-session",
		Dispatcher: effects.NewDispatcher(effects.NopPorts{}),
		Logger:     slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		Now:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
}

// line renders one data line from an event object.
func line(ev map[string]any) string {
	raw, err := json.Marshal(ev)
	Expect(err).NotTo(HaveOccurred())
	return "data: " + string(raw) + "\n"
}

func decodeAll(s *decoder.Session, chunks ...string) []message.Part {
	d := sse.New()
	ctx := context.Background()
	for _, c := range chunks {
		d.Feed(ctx, s, c)
	}
	d.Finish(ctx, s)
	return s.Snapshot()
}

var _ = Describe("SSE decoder", func() {
	var s *decoder.Session

	BeforeEach(func() {
		s = newSession()
	})

	Describe("text deltas", func() {
		It("concatenates deltas into one text part", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "text-delta", "delta": "Hi"}),
				line(map[string]any{"type": "text-delta", "delta": " there"}),
			)
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Kind).To(Equal(message.PartText))
			Expect(parts[0].Text).To(Equal("Hi there"))
		})

		It("reassembles a line split across chunks", func() {
			full := line(map[string]any{"type": "text-delta", "delta": "split"})
			parts := decodeAll(s, full[:10], full[10:])
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Text).To(Equal("split"))
		})

		It("handles a final line without a trailing newline", func() {
			full := line(map[string]any{"type": "text-delta", "delta": "tail"})
			parts := decodeAll(s, strings.TrimSuffix(full, "\n"))
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Text).To(Equal("tail"))
		})
	})

	Describe("reasoning classification", func() {
		It("routes reasoning-delta events to the reasoning part", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "reasoning-delta", "delta": "hm"}),
				line(map[string]any{"type": "text-delta", "delta": "answer"}),
			)
			Expect(parts).To(HaveLen(2))
			Expect(parts[0].Kind).To(Equal(message.PartReasoning))
			Expect(parts[0].Reasoning).To(Equal("hm"))
			Expect(parts[1].Text).To(Equal("answer"))
		})

		It("treats text between a tool call and its result as reasoning", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "tool-input-available", "toolCallId": "c1", "toolName": "webSearch"}),
				line(map[string]any{"type": "text-delta", "delta": "searching..."}),
				line(map[string]any{"type": "tool-output-available", "toolCallId": "c1", "toolName": "webSearch", "output": map[string]any{}}),
				line(map[string]any{"type": "text-delta", "delta": "the answer"}),
			)

			Expect(parts[0].Kind).To(Equal(message.PartReasoning))
			Expect(parts[0].Reasoning).To(Equal("searching..."))

			var text string
			for _, p := range parts {
				if p.Kind == message.PartText {
					text += p.Text
				}
			}
			Expect(text).To(Equal("the answer"))
		})

		It("closes reasoning on text-end once tools are idle", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "tool-input-start", "toolName": "webSearch"}),
				line(map[string]any{"type": "text-end"}),
				line(map[string]any{"type": "text-delta", "delta": "final"}),
			)
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Kind).To(Equal(message.PartText))
			Expect(parts[0].Text).To(Equal("final"))
		})

		It("adopts the full reasoning text from a finish event", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "reasoning-delta", "delta": "partial"}),
				line(map[string]any{"type": "finish", "reasoningText": "the whole reasoning"}),
			)
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Reasoning).To(Equal("the whole reasoning"))
		})
	})

	Describe("tool invocations", func() {
		It("tracks one invocation across input and output events", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "tool-input-available", "toolCallId": "c1", "toolName": "webSearch", "input": map[string]any{"query": "bienen"}}),
				line(map[string]any{"type": "tool-output-available", "toolCallId": "c1", "toolName": "webSearch", "output": map[string]any{
					"results": []any{
						map[string]any{"url": "https://a", "title": "A"},
						map[string]any{"url": "https://a"},
						map[string]any{"url": "https://b"},
					},
				}}),
			)

			var invocations, sources int
			for _, p := range parts {
				switch p.Kind {
				case message.PartToolInvocation:
					invocations++
					Expect(p.ToolInvocation.ToolCallID).To(Equal("c1"))
					Expect(p.ToolInvocation.State).To(Equal(message.StatusCompleted))
					Expect(p.ToolInvocation.Input).To(HaveKeyWithValue("query", "bienen"))
					Expect(p.ToolInvocation.Output).To(HaveKey("results"))
				case message.PartSource:
					sources++
				}
			}
			Expect(invocations).To(Equal(1))
			Expect(sources).To(Equal(2))
		})

		It("falls back to the invocation's tool name when the output event omits it", func() {
			parts := decodeAll(s,
				line(map[string]any{"type": "tool-input-available", "toolCallId": "c1", "toolName": "webSearch"}),
				line(map[string]any{"type": "tool-output-available", "toolCallId": "c1", "output": map[string]any{
					"results": []any{
						map[string]any{"url": "https://x", "title": "X"},
					},
				}}),
			)

			var sources int
			for _, p := range parts {
				switch p.Kind {
				case message.PartToolInvocation:
					Expect(p.ToolInvocation.ToolName).To(Equal("webSearch"))
					Expect(p.ToolInvocation.State).To(Equal(message.StatusCompleted))
				case message.PartSource:
					sources++
					Expect(p.Source.URL).To(Equal("https://x"))
				}
			}
			Expect(sources).To(Equal(1))
		})
	})

	Describe("malformed input", func() {
		It("skips an unparseable line and keeps going", func() {
			parts := decodeAll(s,
				"data: {not json}\n",
				line(map[string]any{"type": "text-delta", "delta": "ok"}),
			)
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Text).To(Equal("ok"))
		})

		It("ignores [DONE], comments and unknown events", func() {
			parts := decodeAll(s,
				"data: [DONE]\n",
				": keep-alive\n",
				"\n",
				line(map[string]any{"type": "something-new"}),
				line(map[string]any{"type": "text-delta", "delta": "ok"}),
			)
			Expect(parts).To(HaveLen(1))
			Expect(parts[0].Text).To(Equal("ok"))
		})
	})
})

var _ = Describe("Legacy whole-message markers", func() {
	var s *decoder.Session

	BeforeEach(func() {
		s = newSession()
	})

	b64 := func(v any) string {
		raw, err := json.Marshal(v)
		Expect(err).NotTo(HaveOccurred())
		return base64.StdEncoding.EncodeToString(raw)
	}

	textDeltas := func(text string) []string {
		var lines []string
		for _, part := range []string{text[:len(text)/2], text[len(text)/2:]} {
			lines = append(lines, line(map[string]any{"type": "text-delta", "delta": part}))
		}
		return lines
	}

	It("extracts reasoning and strips the marker from the text", func() {
		marker := "[REASONING:" + base64.StdEncoding.EncodeToString([]byte("warum auch nicht")) + "]"
		parts := decodeAll(s, textDeltas("Antwort. "+marker)...)

		Expect(parts).To(HaveLen(2))
		Expect(parts[0].Kind).To(Equal(message.PartReasoning))
		Expect(parts[0].Reasoning).To(Equal("warum auch nicht"))
		Expect(parts[1].Text).To(Equal("Antwort. "))
	})

	It("extracts search sources with URL dedup", func() {
		marker := "[WEB_SEARCH_SOURCES:" + b64([]map[string]any{
			{"url": "https://a", "title": "A"},
			{"url": "https://a"},
		}) + "]"
		parts := decodeAll(s, textDeltas("Text "+marker)...)

		var sources int
		for _, p := range parts {
			if p.Kind == message.PartSource {
				sources++
				Expect(p.Source.URL).To(Equal("https://a"))
			}
		}
		Expect(sources).To(Equal(1))
		Expect(s.Text()).To(Equal("Text "))
	})

	It("merges tool invocations from the marker payload", func() {
		marker := "[TOOL_INVOCATIONS:" + b64([]map[string]any{
			{"toolCallId": "c9", "toolName": "webCrawl", "state": "completed", "output": map[string]any{"url": "https://crawled"}},
		}) + "]"
		parts := decodeAll(s, textDeltas("Haupttext "+marker)...)

		var foundInvocation, foundSource bool
		for _, p := range parts {
			switch p.Kind {
			case message.PartToolInvocation:
				foundInvocation = true
				Expect(p.ToolInvocation.ToolCallID).To(Equal("c9"))
				Expect(p.ToolInvocation.State).To(Equal(message.StatusCompleted))
			case message.PartSource:
				foundSource = true
				Expect(p.Source.URL).To(Equal("https://crawled"))
			}
		}
		Expect(foundInvocation).To(BeTrue())
		Expect(foundSource).To(BeTrue())
	})

	It("strips a marker whose payload does not decode", func() {
		parts := decodeAll(s, textDeltas("Text [REASONING:!!broken!!] Ende")...)
		Expect(parts).To(HaveLen(1))
		Expect(parts[0].Text).To(Equal("Text  Ende"))
	})

	It("strips a marker split across text parts by an interleaved source", func() {
		marker := "[REASONING:" + base64.StdEncoding.EncodeToString([]byte("verborgen")) + "]"
		half := len(marker) / 2

		parts := decodeAll(s,
			line(map[string]any{"type": "text-delta", "delta": "Intro " + marker[:half]}),
			line(map[string]any{"type": "tool-input-available", "toolCallId": "c1", "toolName": "webSearch"}),
			line(map[string]any{"type": "tool-output-available", "toolCallId": "c1", "toolName": "webSearch", "output": map[string]any{
				"results": []any{map[string]any{"url": "https://s"}},
			}}),
			line(map[string]any{"type": "text-delta", "delta": marker[half:] + " Ende"}),
		)

		Expect(s.Text()).To(Equal("Intro  Ende"))

		var foundReasoning, foundSource bool
		for _, p := range parts {
			switch p.Kind {
			case message.PartReasoning:
				foundReasoning = true
				Expect(p.Reasoning).To(Equal("verborgen"))
			case message.PartSource:
				foundSource = true
			}
		}
		Expect(foundReasoning).To(BeTrue())
		Expect(foundSource).To(BeTrue())
	})
})
