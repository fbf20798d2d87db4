package decoder

import (
	"context"
	"errors"
	"io"

	"github.com/scriptoriumco/vellum/pkg/textstream"
)

// readBufferSize is the chunk size used when draining the stream reader.
const readBufferSize = 32 * 1024

// Protocol translates decoded text chunks into Session mutations. Feed is
// called once per chunk with complete UTF-8 text; Finish is called exactly
// once after the reader reports end of stream, with whatever tail the
// protocol buffered still unconsumed.
//
// Implementations must never propagate a malformed unit of input as an
// error: one bad marker or event line is logged and skipped, the stream
// continues.
type Protocol interface {
	// Name identifies the protocol in logs and outbound events.
	Name() string

	Feed(ctx context.Context, s *Session, text string)
	Finish(ctx context.Context, s *Session)
}

// Run drives one decode session: it reads r to exhaustion, carries partial
// UTF-8 sequences across chunk boundaries, feeds decoded text to the
// protocol, and guarantees a final flush once the reader reports done.
//
// Run returns the reader error, if any. Malformed stream content is never an
// error; only the transport can fail a decode.
func Run(ctx context.Context, r io.Reader, s *Session, p Protocol) error {
	var acc textstream.Accumulator
	buf := make([]byte, readBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			s.Flush()
			return err
		}

		n, err := r.Read(buf)
		if n > 0 {
			if text := acc.Write(buf[:n]); text != "" {
				p.Feed(ctx, s, text)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.Flush()
			return err
		}
	}

	if tail := acc.Flush(); tail != "" {
		p.Feed(ctx, s, tail)
	}
	p.Finish(ctx, s)

	// The final state must always render, even if it arrived inside a
	// debounce window.
	s.Flush()
	return nil
}
