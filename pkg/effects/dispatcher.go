package effects

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scriptoriumco/vellum/pkg/citations"
	"github.com/scriptoriumco/vellum/pkg/citations/reloader"
	"github.com/scriptoriumco/vellum/pkg/message"
)

// Tool names the dispatcher reacts to.
const (
	ToolWebSearch   = "webSearch"
	ToolWebCrawl    = "webCrawl"
	ToolWebExtract  = "webExtract"
	ToolInsertText  = "insertTextInEditor"
	ToolDeleteText  = "deleteTextFromEditor"
	ToolAddCitation = "addCitation"
	ToolAddSources  = "addSourcesToLibrary"
	ToolAddThema    = "addThema"
)

// ReloadQueuer queues asynchronous library reloads. Satisfied by
// *reloader.Pool.
type ReloadQueuer interface {
	Enqueue(job reloader.Job) bool
}

// Dispatcher turns terminal tool outputs into editor commands and citation
// store mutations. It is driven once per logical event by the decoder
// session, so every dispatch is idempotent from the decoder's perspective.
type Dispatcher struct {
	ports   Ports
	store   citations.Driver
	reloads ReloadQueuer
	logger  *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCitationStore attaches the external citation store used to resolve
// addCitation source ids and absorb addSourcesToLibrary payloads.
func WithCitationStore(store citations.Driver) Option {
	return func(d *Dispatcher) {
		d.store = store
	}
}

// WithReloadQueue attaches the async library reload queue.
func WithReloadQueue(q ReloadQueuer) Option {
	return func(d *Dispatcher) {
		d.reloads = q
	}
}

// WithLogger overrides the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher emitting through ports.
func NewDispatcher(ports Ports, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		ports:  ports,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ToolCompleted handles one terminal tool output. It returns the source
// parts the caller should append (deduplication happens in the part list).
// Command dispatch failures and validation failures are logged, never
// propagated: one misbehaving tool result must not abort the stream.
func (d *Dispatcher) ToolCompleted(ctx context.Context, toolName string, output map[string]any) []message.Source {
	switch toolName {
	case ToolWebSearch:
		return d.searchSources(output)

	case ToolWebCrawl, ToolWebExtract:
		if url := str(output, "url"); url != "" {
			return []message.Source{{URL: url, Title: str(output, "title")}}
		}
		return nil

	case ToolInsertText:
		d.insertText(ctx, output)

	case ToolDeleteText:
		d.deleteText(ctx, output)

	case ToolAddCitation:
		d.insertCitation(ctx, output)

	case ToolAddSources:
		d.addSourcesToLibrary(ctx, output)

	case ToolAddThema:
		d.setThema(ctx, output)

	default:
		// Unknown tools complete without side effects.
	}

	return nil
}

func (d *Dispatcher) searchSources(output map[string]any) []message.Source {
	results, ok := output["results"].([]any)
	if !ok {
		return nil
	}

	var sources []message.Source
	for _, r := range results {
		entry, ok := r.(map[string]any)
		if !ok {
			continue
		}
		url := str(entry, "url")
		if url == "" {
			continue
		}
		sources = append(sources, message.Source{
			URL:   url,
			Title: str(entry, "title"),
			ID:    str(entry, "id"),
		})
	}
	return sources
}

func (d *Dispatcher) insertText(ctx context.Context, output map[string]any) {
	markdown, ok := output["markdown"].(string)
	if !ok || strings.TrimSpace(markdown) == "" {
		d.logger.Warn("insertTextInEditor result missing markdown, dropped")
		return
	}

	cmd := InsertTextCommand{
		CommandID:       newCommandID(),
		Markdown:        markdown,
		Position:        str(output, "position"),
		TargetText:      str(output, "targetText"),
		TargetHeading:   str(output, "targetHeading"),
		FocusOnHeadings: boolean(output, "focusOnHeadings"),
	}
	if err := d.ports.InsertText(ctx, cmd); err != nil {
		d.logger.Error("insert text command failed", "command_id", cmd.CommandID, "error", err)
	}
}

func (d *Dispatcher) deleteText(ctx context.Context, output map[string]any) {
	cmd := DeleteTextCommand{
		CommandID:     newCommandID(),
		TargetText:    str(output, "targetText"),
		TargetHeading: str(output, "targetHeading"),
		Mode:          str(output, "mode"),
		StartText:     str(output, "startText"),
		EndText:       str(output, "endText"),
	}
	if err := d.ports.DeleteText(ctx, cmd); err != nil {
		d.logger.Error("delete text command failed", "command_id", cmd.CommandID, "error", err)
	}
}

func (d *Dispatcher) insertCitation(ctx context.Context, output map[string]any) {
	sourceID := str(output, "sourceId")
	if sourceID == "" {
		d.logger.Warn("addCitation result missing sourceId, dropped")
		return
	}

	cmd := d.resolveCitation(ctx, sourceID)
	cmd.TargetText = str(output, "targetText")

	if err := d.ports.InsertCitation(ctx, cmd); err != nil {
		d.logger.Error("insert citation command failed", "command_id", cmd.CommandID, "error", err)
	}
}

// resolveCitation looks the source id up in the external store and
// normalizes the hit into a command payload. A miss synthesizes a minimal
// placeholder instead of failing: the expectation is the citation already
// exists in a library, so a miss is worth a warning but never an error.
func (d *Dispatcher) resolveCitation(ctx context.Context, sourceID string) InsertCitationCommand {
	cmd := InsertCitationCommand{
		CommandID: newCommandID(),
		SourceID:  sourceID,
	}

	if d.store != nil {
		if cite, err := d.store.Find(ctx, sourceID); err == nil {
			cmd.Title = cite.Title
			cmd.Year = cite.Year
			cmd.Authors = append([]string{}, cite.Authors...)
			cmd.DOI = cite.DOI
			cmd.URL = cite.URL
			if !cite.AccessedAt.IsZero() {
				cmd.AccessDate = cite.AccessedAt.Format("2006-01-02")
			}
			return cmd
		}
	}

	d.logger.Warn("citation not found in any library, using placeholder", "source_id", sourceID)
	cmd.Title = fmt.Sprintf("Quelle %s", sourceID)
	cmd.Authors = []string{}
	return cmd
}

func (d *Dispatcher) addSourcesToLibrary(ctx context.Context, output map[string]any) {
	libraryID := str(output, "libraryId")
	projectID := str(output, "projectId")

	cites := parseCitations(output["citations"])
	if len(cites) > 0 && d.store != nil && libraryID != "" {
		// Write inline citations immediately so the UI reflects them
		// before the backend round-trip completes.
		if err := d.store.BulkAdd(ctx, libraryID, cites); err != nil {
			d.logger.Error("bulk add to citation store failed", "library_id", libraryID, "error", err)
		}
	}

	if d.reloads != nil && projectID != "" {
		d.reloads.Enqueue(reloader.Job{ProjectID: projectID})
	}
}

func (d *Dispatcher) setThema(ctx context.Context, output map[string]any) {
	thema := str(output, "thema")
	if thema == "" {
		return
	}

	cmd := SetThemaCommand{CommandID: newCommandID(), Thema: thema}
	if err := d.ports.SetThema(ctx, cmd); err != nil {
		d.logger.Error("set thema command failed", "command_id", cmd.CommandID, "error", err)
	}
}

// parseCitations converts inline tool-output citation objects into store
// entries, normalizing the loose shapes the backend emits.
func parseCitations(v any) []citations.Citation {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var out []citations.Citation
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id := str(entry, "id")
		if id == "" {
			id = str(entry, "sourceId")
		}
		if id == "" {
			continue
		}

		cite := citations.Citation{
			ID:      id,
			Title:   str(entry, "title"),
			Authors: normalizeAuthors(entry["authors"]),
			Year:    normalizeYear(entry["year"]),
			DOI:     str(entry, "doi"),
			URL:     str(entry, "url"),
		}
		if accessed := str(entry, "accessedAt"); accessed != "" {
			if t, err := time.Parse(time.RFC3339, accessed); err == nil {
				cite.AccessedAt = t
			} else if t, err := time.Parse("2006-01-02", accessed); err == nil {
				cite.AccessedAt = t
			}
		}
		out = append(out, cite)
	}
	return out
}

// normalizeAuthors accepts a list of strings, a list of {name: ...} objects,
// or a single comma-separated string.
func normalizeAuthors(v any) []string {
	switch authors := v.(type) {
	case []any:
		var out []string
		for _, a := range authors {
			switch author := a.(type) {
			case string:
				if author != "" {
					out = append(out, author)
				}
			case map[string]any:
				if name := str(author, "name"); name != "" {
					out = append(out, name)
				}
			}
		}
		return out
	case string:
		var out []string
		for _, a := range strings.Split(authors, ",") {
			if trimmed := strings.TrimSpace(a); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return nil
	}
}

// normalizeYear accepts a string or a JSON number.
func normalizeYear(v any) string {
	switch year := v.(type) {
	case string:
		return year
	case float64:
		return fmt.Sprintf("%d", int(year))
	default:
		return ""
	}
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
