package eventstream_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scriptoriumco/vellum/pkg/eventstream"
	"github.com/scriptoriumco/vellum/pkg/eventstream/nop"
)

var _ = Describe("CommandEvent", func() {
	It("stamps envelope metadata", func() {
		src := eventstream.EventSource{SessionID: "s1", Protocol: "marker"}
		ev := eventstream.NewCommandEvent(eventstream.EventTypeSetThema, src, map[string]string{"thema": "Kafka"})

		Expect(ev.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(ev.EventType).To(Equal(eventstream.EventTypeSetThema))
		Expect(ev.EventID).NotTo(BeEmpty())
		Expect(ev.EmittedAt).NotTo(BeZero())
		Expect(ev.Source).To(Equal(src))
	})

	It("assigns unique event ids", func() {
		a := eventstream.NewCommandEvent(eventstream.EventTypeInsertText, eventstream.EventSource{}, nil)
		b := eventstream.NewCommandEvent(eventstream.EventTypeInsertText, eventstream.EventSource{}, nil)
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})
})

var _ = Describe("Nop publisher", func() {
	It("rejects nil events", func() {
		p := nop.NewPublisher()
		Expect(p.PublishCommand(context.Background(), nil)).To(MatchError(eventstream.ErrNilCommandEvent))
	})

	It("accepts events and closes cleanly", func() {
		p := nop.NewPublisher()
		ev := eventstream.NewCommandEvent(eventstream.EventTypeDeleteText, eventstream.EventSource{}, nil)
		Expect(p.PublishCommand(context.Background(), ev)).To(Succeed())
		Expect(p.Close()).To(Succeed())
	})
})
