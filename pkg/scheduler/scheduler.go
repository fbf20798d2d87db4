// Package scheduler coalesces rapid decoder mutations into debounced flush
// callbacks. The first notification after an idle period arms a timer one
// debounce window out; everything arriving inside the window rides the same
// flush. Flush delivers immediately and cancels any pending timer.
package scheduler

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 50 * time.Millisecond

// Scheduler debounces flush callbacks.
type Scheduler struct {
	mu      sync.Mutex
	clock   Clock
	window  time.Duration
	onFlush func()
	pending Timer
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the wall clock. Tests use a ManualClock to advance
// time deterministically.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithWindow overrides the debounce window.
func WithWindow(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.window = d
		}
	}
}

// New creates a Scheduler that invokes onFlush at most once per debounce
// window while notifications keep arriving.
func New(onFlush func(), opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:   SystemClock{},
		window:  DefaultWindow,
		onFlush: onFlush,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Notify records a mutation. If no flush is pending one is scheduled a
// window from now; otherwise the mutation rides the pending flush.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		return
	}
	s.pending = s.clock.AfterFunc(s.window, s.fire)
}

// Flush delivers immediately, cancelling any pending timer. The stream
// consumer calls Flush unconditionally once the reader reports done so the
// final state is always rendered.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.mu.Unlock()

	s.onFlush()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()

	s.onFlush()
}
