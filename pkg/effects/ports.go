package effects

import "context"

// Ports is the outbound command interface consumed by the editor layer.
// Implementations must be safe for use from the decode read loop; slow
// transports should hand off internally rather than block.
type Ports interface {
	InsertText(ctx context.Context, cmd InsertTextCommand) error
	DeleteText(ctx context.Context, cmd DeleteTextCommand) error
	InsertCitation(ctx context.Context, cmd InsertCitationCommand) error
	SetThema(ctx context.Context, cmd SetThemaCommand) error
}

// NopPorts discards every command. Used when no editor bridge is attached.
type NopPorts struct{}

func (NopPorts) InsertText(context.Context, InsertTextCommand) error         { return nil }
func (NopPorts) DeleteText(context.Context, DeleteTextCommand) error         { return nil }
func (NopPorts) InsertCitation(context.Context, InsertCitationCommand) error { return nil }
func (NopPorts) SetThema(context.Context, SetThemaCommand) error             { return nil }
