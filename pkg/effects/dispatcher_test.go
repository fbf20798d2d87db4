package effects_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/scriptoriumco/vellum/pkg/citations"
	"github.com/scriptoriumco/vellum/pkg/citations/inmemory"
	"github.com/scriptoriumco/vellum/pkg/citations/reloader"
	"github.com/scriptoriumco/vellum/pkg/effects"
)

// capturePorts records every dispatched command.
type capturePorts struct {
	inserts   []effects.InsertTextCommand
	deletes   []effects.DeleteTextCommand
	citations []effects.InsertCitationCommand
	themen    []effects.SetThemaCommand
}

func (c *capturePorts) InsertText(_ context.Context, cmd effects.InsertTextCommand) error {
	c.inserts = append(c.inserts, cmd)
	return nil
}

func (c *capturePorts) DeleteText(_ context.Context, cmd effects.DeleteTextCommand) error {
	c.deletes = append(c.deletes, cmd)
	return nil
}

func (c *capturePorts) InsertCitation(_ context.Context, cmd effects.InsertCitationCommand) error {
	c.citations = append(c.citations, cmd)
	return nil
}

func (c *capturePorts) SetThema(_ context.Context, cmd effects.SetThemaCommand) error {
	c.themen = append(c.themen, cmd)
	return nil
}

// captureQueue records reload jobs without running them.
type captureQueue struct {
	jobs []reloader.Job
}

func (q *captureQueue) Enqueue(job reloader.Job) bool {
	q.jobs = append(q.jobs, job)
	return true
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		ports      *capturePorts
		store      *inmemory.Driver
		queue      *captureQueue
		dispatcher *effects.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		ports = &capturePorts{}
		store = inmemory.NewDriver()
		queue = &captureQueue{}
		dispatcher = effects.NewDispatcher(ports,
			effects.WithCitationStore(store),
			effects.WithReloadQueue(queue),
		)
	})

	Describe("webSearch", func() {
		It("returns one source per result with a url", func() {
			sources := dispatcher.ToolCompleted(ctx, effects.ToolWebSearch, map[string]any{
				"results": []any{
					map[string]any{"url": "https://a.example", "title": "A"},
					map[string]any{"title": "no url, skipped"},
					map[string]any{"url": "https://b.example"},
				},
			})
			Expect(sources).To(HaveLen(2))
			Expect(sources[0].URL).To(Equal("https://a.example"))
			Expect(sources[0].Title).To(Equal("A"))
			Expect(sources[1].URL).To(Equal("https://b.example"))
		})

		It("returns nothing for a malformed results field", func() {
			Expect(dispatcher.ToolCompleted(ctx, effects.ToolWebSearch, map[string]any{"results": "oops"})).To(BeEmpty())
		})
	})

	Describe("webCrawl and webExtract", func() {
		It("returns the crawled url as a source", func() {
			sources := dispatcher.ToolCompleted(ctx, effects.ToolWebCrawl, map[string]any{
				"url":   "https://crawled.example",
				"title": "Crawled page",
			})
			Expect(sources).To(HaveLen(1))
			Expect(sources[0].Title).To(Equal("Crawled page"))

			Expect(dispatcher.ToolCompleted(ctx, effects.ToolWebExtract, map[string]any{
				"url": "https://extracted.example",
			})).To(HaveLen(1))
		})
	})

	Describe("insertTextInEditor", func() {
		It("dispatches a command with all placement fields", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolInsertText, map[string]any{
				"markdown":        "## Einleitung",
				"position":        "after",
				"targetHeading":   "Abstract",
				"focusOnHeadings": true,
			})
			Expect(ports.inserts).To(HaveLen(1))
			cmd := ports.inserts[0]
			Expect(cmd.CommandID).NotTo(BeEmpty())
			Expect(cmd.Markdown).To(Equal("## Einleitung"))
			Expect(cmd.Position).To(Equal("after"))
			Expect(cmd.TargetHeading).To(Equal("Abstract"))
			Expect(cmd.FocusOnHeadings).To(BeTrue())
		})

		It("drops empty or missing markdown instead of dispatching", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolInsertText, map[string]any{"markdown": "   "})
			dispatcher.ToolCompleted(ctx, effects.ToolInsertText, map[string]any{})
			Expect(ports.inserts).To(BeEmpty())
		})
	})

	Describe("deleteTextFromEditor", func() {
		It("dispatches a delete command with its range", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolDeleteText, map[string]any{
				"mode":      "range",
				"startText": "Erstens",
				"endText":   "Zweitens",
			})
			Expect(ports.deletes).To(HaveLen(1))
			Expect(ports.deletes[0].Mode).To(Equal("range"))
			Expect(ports.deletes[0].StartText).To(Equal("Erstens"))
		})
	})

	Describe("addCitation", func() {
		It("resolves a known source id and normalizes the payload", func() {
			Expect(store.BulkAdd(ctx, "lib", []citations.Citation{{
				ID:      "cite-1",
				Title:   "Die Quelle",
				Authors: []string{"Muster, Max"},
				Year:    "2024",
				URL:     "https://quelle.example",
			}})).To(Succeed())

			dispatcher.ToolCompleted(ctx, effects.ToolAddCitation, map[string]any{
				"sourceId":   "cite-1",
				"targetText": "wie gezeigt",
			})

			Expect(ports.citations).To(HaveLen(1))
			cmd := ports.citations[0]
			Expect(cmd.Title).To(Equal("Die Quelle"))
			Expect(cmd.Authors).To(Equal([]string{"Muster, Max"}))
			Expect(cmd.Year).To(Equal("2024"))
			Expect(cmd.TargetText).To(Equal("wie gezeigt"))
		})

		It("synthesizes a placeholder for an unknown source id", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolAddCitation, map[string]any{"sourceId": "ghost-7"})

			Expect(ports.citations).To(HaveLen(1))
			cmd := ports.citations[0]
			Expect(cmd.Title).To(Equal("Quelle ghost-7"))
			Expect(cmd.Authors).To(BeEmpty())
			Expect(cmd.SourceID).To(Equal("ghost-7"))
		})

		It("drops a result without a sourceId", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolAddCitation, map[string]any{})
			Expect(ports.citations).To(BeEmpty())
		})
	})

	Describe("addSourcesToLibrary", func() {
		It("writes inline citations and queues a reload", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolAddSources, map[string]any{
				"libraryId": "lib-1",
				"projectId": "proj-1",
				"citations": []any{
					map[string]any{
						"id":      "c1",
						"title":   "Inline",
						"authors": []any{"One", map[string]any{"name": "Two"}},
						"year":    float64(2023),
					},
				},
			})

			c, err := store.Find(ctx, "c1")
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Authors).To(Equal([]string{"One", "Two"}))
			Expect(c.Year).To(Equal("2023"))

			Expect(queue.jobs).To(HaveLen(1))
			Expect(queue.jobs[0].ProjectID).To(Equal("proj-1"))
		})
	})

	Describe("addThema", func() {
		It("dispatches the topic", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolAddThema, map[string]any{"thema": "Bienensterben"})
			Expect(ports.themen).To(HaveLen(1))
			Expect(ports.themen[0].Thema).To(Equal("Bienensterben"))
		})

		It("ignores an empty topic", func() {
			dispatcher.ToolCompleted(ctx, effects.ToolAddThema, map[string]any{})
			Expect(ports.themen).To(BeEmpty())
		})
	})

	It("ignores unknown tools", func() {
		Expect(dispatcher.ToolCompleted(ctx, "unknownTool", map[string]any{"x": 1})).To(BeEmpty())
		Expect(ports.inserts).To(BeEmpty())
	})
})
