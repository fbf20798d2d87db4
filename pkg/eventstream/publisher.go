// Package eventstream publishes dispatched editor commands to an event
// stream backend so a frontend bridge can replay them into the document.
package eventstream

import "context"

// Publisher publishes command events to an event stream backend.
type Publisher interface {
	PublishCommand(ctx context.Context, event *CommandEvent) error
	Close() error
}
