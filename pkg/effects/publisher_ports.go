package effects

import (
	"context"

	"github.com/scriptoriumco/vellum/pkg/eventstream"
)

// PublisherPorts implements Ports by wrapping each command in an event
// envelope and handing it to an eventstream publisher. This is the bridge
// used when the editor frontend consumes commands off a stream instead of
// receiving direct callbacks.
type PublisherPorts struct {
	publisher eventstream.Publisher
	source    eventstream.EventSource
}

// NewPublisherPorts creates a Ports implementation backed by publisher.
func NewPublisherPorts(publisher eventstream.Publisher, source eventstream.EventSource) *PublisherPorts {
	return &PublisherPorts{
		publisher: publisher,
		source:    source,
	}
}

func (p *PublisherPorts) InsertText(ctx context.Context, cmd InsertTextCommand) error {
	return p.publisher.PublishCommand(ctx, eventstream.NewCommandEvent(eventstream.EventTypeInsertText, p.source, cmd))
}

func (p *PublisherPorts) DeleteText(ctx context.Context, cmd DeleteTextCommand) error {
	return p.publisher.PublishCommand(ctx, eventstream.NewCommandEvent(eventstream.EventTypeDeleteText, p.source, cmd))
}

func (p *PublisherPorts) InsertCitation(ctx context.Context, cmd InsertCitationCommand) error {
	return p.publisher.PublishCommand(ctx, eventstream.NewCommandEvent(eventstream.EventTypeInsertCitation, p.source, cmd))
}

func (p *PublisherPorts) SetThema(ctx context.Context, cmd SetThemaCommand) error {
	return p.publisher.PublishCommand(ctx, eventstream.NewCommandEvent(eventstream.EventTypeSetThema, p.source, cmd))
}
