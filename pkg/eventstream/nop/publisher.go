package nop

import (
	"context"

	"github.com/scriptoriumco/vellum/pkg/eventstream"
)

// Publisher is a no-op eventstream publisher used for tests and disabled mode.
type Publisher struct{}

// NewPublisher creates a new no-op eventstream publisher.
func NewPublisher() *Publisher {
	return &Publisher{}
}

// PublishCommand validates input and otherwise does nothing.
func (p *Publisher) PublishCommand(_ context.Context, event *eventstream.CommandEvent) error {
	if event == nil {
		return eventstream.ErrNilCommandEvent
	}

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
