package decoder_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing/iotest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scriptoriumco/vellum/pkg/citations/inmemory"
	"github.com/scriptoriumco/vellum/pkg/decoder"
	"github.com/scriptoriumco/vellum/pkg/decoder/marker"
	"github.com/scriptoriumco/vellum/pkg/effects"
	"github.com/scriptoriumco/vellum/pkg/message"
	"github.com/scriptoriumco/vellum/pkg/scheduler"
)

func b64JSON(v any) string {
	raw, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return base64.StdEncoding.EncodeToString(raw)
}

// citationPorts captures insert-citation commands.
type citationPorts struct {
	effects.NopPorts
	commands []effects.InsertCitationCommand
}

func (p *citationPorts) InsertCitation(_ context.Context, cmd effects.InsertCitationCommand) error {
	p.commands = append(p.commands, cmd)
	return nil
}

var _ = Describe("Run", func() {
	It("always delivers a final update reflecting the complete part list", func() {
		clock := scheduler.NewManualClock()
		var updates [][]message.Part

		s := decoder.NewSession(decoder.Config{
			SessionID:        "final-flush",
			Logger:           slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
			OnUpdate:         func(parts []message.Part) { updates = append(updates, parts) },
			SchedulerOptions: []scheduler.Option{scheduler.WithClock(clock)},
		})

		stream := "Hallo " +
			"[TOOL_STEP_START:" + b64JSON(map[string]any{"id": "t1", "toolName": "webSearch"}) + "]" +
			" Welt"

		// The debounce clock never advances, so only the unconditional
		// final flush can deliver anything.
		err := decoder.Run(context.Background(), strings.NewReader(stream), s, marker.New())
		Expect(err).NotTo(HaveOccurred())

		Expect(updates).NotTo(BeEmpty())
		final := updates[len(updates)-1]
		Expect(final).To(HaveLen(3))
		Expect(final[0].Text).To(Equal("Hallo "))
		Expect(final[1].ToolStep.ID).To(Equal("t1"))
		Expect(final[2].Text).To(Equal(" Welt"))
	})

	It("coalesces rapid mutations into one debounced update", func() {
		clock := scheduler.NewManualClock()
		var updates [][]message.Part

		s := decoder.NewSession(decoder.Config{
			Logger:           slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
			OnUpdate:         func(parts []message.Part) { updates = append(updates, parts) },
			SchedulerOptions: []scheduler.Option{scheduler.WithClock(clock)},
		})

		d := marker.New()
		ctx := context.Background()
		d.Feed(ctx, s, "one ")
		d.Feed(ctx, s, "two ")
		d.Feed(ctx, s, "three")
		Expect(updates).To(BeEmpty())

		clock.Advance(scheduler.DefaultWindow)
		Expect(updates).To(HaveLen(1))
		Expect(updates[0][0].Text).To(Equal("one two three"))
	})

	It("returns the reader error and still flushes", func() {
		var updates int
		s := decoder.NewSession(decoder.Config{
			Logger:   slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
			OnUpdate: func([]message.Part) { updates++ },
		})

		readErr := errors.New("connection reset")
		err := decoder.Run(context.Background(), iotest.ErrReader(readErr), s, marker.New())
		Expect(err).To(MatchError(readErr))
		Expect(updates).To(Equal(1))
	})

	It("dispatches a placeholder citation for an unknown source id", func() {
		ports := &citationPorts{}
		dispatcher := effects.NewDispatcher(ports, effects.WithCitationStore(inmemory.NewDriver()))

		s := decoder.NewSession(decoder.Config{
			SessionID:  "scenario-d",
			Dispatcher: dispatcher,
			Logger:     slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
			Now:        func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		})

		stream := "[TOOL_STEP_START:" + b64JSON(map[string]any{"id": "t1", "toolName": "addCitation"}) + "]" +
			"[TOOL_STEP_END:" + b64JSON(map[string]any{
			"id":     "t1",
			"status": "completed",
			"output": map[string]any{"sourceId": "missing-1", "targetText": "siehe"},
		}) + "]"

		err := decoder.Run(context.Background(), strings.NewReader(stream), s, marker.New())
		Expect(err).NotTo(HaveOccurred())

		Expect(ports.commands).To(HaveLen(1))
		cmd := ports.commands[0]
		Expect(cmd.SourceID).To(Equal("missing-1"))
		Expect(cmd.Title).To(Equal("Quelle missing-1"))
		Expect(cmd.Authors).To(BeEmpty())
		Expect(cmd.TargetText).To(Equal("siehe"))
	})
})
