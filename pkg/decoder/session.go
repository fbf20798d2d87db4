// Package decoder drives one in-flight assistant response stream: it owns the
// per-stream buffer state, assembles the ordered part list, and hands every
// mutation to the render scheduler. Protocol implementations (marker, sse)
// translate wire chunks into calls on the Session.
package decoder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scriptoriumco/vellum/pkg/effects"
	"github.com/scriptoriumco/vellum/pkg/message"
	"github.com/scriptoriumco/vellum/pkg/scheduler"
)

// Config configures a decode session.
type Config struct {
	// SessionID identifies the stream in logs and outbound events.
	SessionID string

	// Dispatcher receives terminal tool outputs. Optional; without one,
	// tool completions update parts but trigger no side effects.
	Dispatcher *effects.Dispatcher

	// OnUpdate is invoked with a part-list snapshot on every debounced
	// flush. It runs on the scheduler's timer goroutine.
	OnUpdate func(parts []message.Part)

	// SchedulerOptions are passed through to the render scheduler.
	SchedulerOptions []scheduler.Option

	Logger *slog.Logger

	// Now overrides the wall clock for tool-step timestamps.
	Now func() time.Time
}

// Session is the mutable state of one response stream being decoded. It is
// created when the stream starts and discarded when the reader completes.
//
// Protocol code drives a Session from a single read loop, but flush callbacks
// fire on scheduler timer goroutines, so all part state is guarded by a
// mutex.
type Session struct {
	id         string
	dispatcher *effects.Dispatcher
	sched      *scheduler.Scheduler
	logger     *slog.Logger
	now        func() time.Time

	mu        sync.Mutex
	parts     message.List
	toolIndex map[string]int

	pendingToolResults     map[string]struct{}
	hasSeenToolCall        bool
	allToolResultsReceived bool
}

// NewSession creates a Session ready to be driven by a Protocol.
func NewSession(cfg Config) *Session {
	s := &Session{
		id:                 cfg.SessionID,
		dispatcher:         cfg.Dispatcher,
		logger:             cfg.Logger,
		now:                cfg.Now,
		toolIndex:          make(map[string]int),
		pendingToolResults: make(map[string]struct{}),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	onUpdate := cfg.OnUpdate
	s.sched = scheduler.New(func() {
		if onUpdate != nil {
			onUpdate(s.Snapshot())
		}
	}, cfg.SchedulerOptions...)

	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current part list.
func (s *Session) Snapshot() []message.Part {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parts.Snapshot()
}

// Text returns the concatenated content of all text parts.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parts.Text()
}

// AppendText appends literal prose, merging into a trailing text part.
func (s *Session) AppendText(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	s.parts.AppendText(text)
	s.mu.Unlock()
	s.sched.Notify()
}

// AppendReasoning appends a reasoning delta, front-inserting the reasoning
// part on first use.
func (s *Session) AppendReasoning(delta string) {
	if delta == "" {
		return
	}
	s.mu.Lock()
	s.parts.AppendReasoning(delta)
	s.mu.Unlock()
	s.sched.Notify()
}

// SetReasoning replaces the reasoning content wholesale. Used when a finish
// event carries the full reasoning text.
func (s *Session) SetReasoning(reasoning string) {
	if reasoning == "" {
		return
	}
	s.mu.Lock()
	s.parts.SetReasoning(reasoning)
	s.mu.Unlock()
	s.sched.Notify()
}

// StartToolStep appends a running tool-step part and indexes it by id. A
// duplicate id is ignored: step ids are unique within a message.
func (s *Session) StartToolStep(id, toolName string, input map[string]any) {
	if id == "" {
		return
	}

	s.mu.Lock()
	if _, exists := s.toolIndex[id]; exists {
		s.mu.Unlock()
		s.logger.Warn("duplicate tool step start ignored", "session_id", s.id, "tool_step_id", id)
		return
	}
	step := &message.ToolStep{
		ID:        id,
		ToolName:  toolName,
		Status:    message.StatusRunning,
		StartedAt: s.now(),
		Input:     input,
	}
	s.toolIndex[id] = s.parts.Append(message.Part{Kind: message.PartToolStep, ToolStep: step})
	s.mu.Unlock()

	s.sched.Notify()
}

// FinishToolStep moves the step with the given id to a terminal status and
// records its output. An unknown id is a no-op: an END before its START only
// happens when the backend violates its own protocol. A step already in a
// terminal state is left untouched, keeping status transitions monotonic.
//
// On a completed status the output is handed to the side-effect dispatcher
// exactly once, and any sources it yields are appended (deduplicated by URL).
func (s *Session) FinishToolStep(ctx context.Context, id string, status message.StepStatus, output map[string]any, errMsg string) {
	if !status.Terminal() {
		status = message.StatusCompleted
	}

	s.mu.Lock()
	idx, ok := s.toolIndex[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("tool step end for unknown id", "session_id", s.id, "tool_step_id", id)
		return
	}
	step := s.parts.At(idx).ToolStep
	if step.Status.Terminal() {
		s.mu.Unlock()
		s.logger.Warn("tool step already terminal", "session_id", s.id, "tool_step_id", id, "status", string(step.Status))
		return
	}
	completedAt := s.now()
	step.Status = status
	step.CompletedAt = &completedAt
	step.Output = output
	step.Error = errMsg
	toolName := step.ToolName
	s.mu.Unlock()

	if status == message.StatusCompleted {
		s.DispatchToolResult(ctx, toolName, output)
	}
	s.sched.Notify()
}

// DispatchToolResult routes a terminal tool output to the side-effect
// dispatcher and appends any sources it yields.
func (s *Session) DispatchToolResult(ctx context.Context, toolName string, output map[string]any) {
	if s.dispatcher == nil {
		return
	}
	s.AddSources(s.dispatcher.ToolCompleted(ctx, toolName, output))
}

// AddSources appends source parts, deduplicating by URL across the whole
// part list.
func (s *Session) AddSources(sources []message.Source) {
	if len(sources) == 0 {
		return
	}

	s.mu.Lock()
	added := false
	for _, src := range sources {
		if s.parts.AddSource(src) {
			added = true
		}
	}
	s.mu.Unlock()

	if added {
		s.sched.Notify()
	}
}

// UpsertToolInvocation creates or updates the tool-invocation part with the
// given call id, applying update to it in place.
func (s *Session) UpsertToolInvocation(toolCallID string, update func(inv *message.ToolInvocation)) {
	if toolCallID == "" {
		return
	}

	s.mu.Lock()
	idx, ok := s.toolIndex[toolCallID]
	if !ok {
		inv := &message.ToolInvocation{ToolCallID: toolCallID}
		idx = s.parts.Append(message.Part{Kind: message.PartToolInvocation, ToolInvocation: inv})
		s.toolIndex[toolCallID] = idx
	}
	update(s.parts.At(idx).ToolInvocation)
	s.mu.Unlock()

	s.sched.Notify()
}

// NoteToolCall records that the stream has produced at least one tool call.
func (s *Session) NoteToolCall() {
	s.mu.Lock()
	s.hasSeenToolCall = true
	s.mu.Unlock()
}

// AddPendingTool registers a tool call id awaiting its output.
func (s *Session) AddPendingTool(toolCallID string) {
	if toolCallID == "" {
		return
	}
	s.mu.Lock()
	s.hasSeenToolCall = true
	s.pendingToolResults[toolCallID] = struct{}{}
	s.mu.Unlock()
}

// ResolvePendingTool clears a pending tool call id. Once every pending id is
// resolved the session treats subsequent text deltas as final text.
func (s *Session) ResolvePendingTool(toolCallID string) {
	s.mu.Lock()
	delete(s.pendingToolResults, toolCallID)
	if len(s.pendingToolResults) == 0 && s.hasSeenToolCall {
		s.allToolResultsReceived = true
	}
	s.mu.Unlock()
}

// ClearPendingTools drops all outstanding tool call ids. Finish events call
// this so trailing text is never misclassified as reasoning.
func (s *Session) ClearPendingTools() {
	s.mu.Lock()
	clear(s.pendingToolResults)
	if s.hasSeenToolCall {
		s.allToolResultsReceived = true
	}
	s.mu.Unlock()
}

// CloseReasoningIfIdle marks reasoning done when at least one tool call was
// seen and none is outstanding. Driven by text-end events.
func (s *Session) CloseReasoningIfIdle() {
	s.mu.Lock()
	if s.hasSeenToolCall && len(s.pendingToolResults) == 0 {
		s.allToolResultsReceived = true
	}
	s.mu.Unlock()
}

// TextGoesToReasoning reports whether a text delta should be routed to the
// reasoning accumulator. Text produced between a tool call and its result is
// treated as reasoning; once all results are in (or no tool was ever called)
// deltas are final text.
func (s *Session) TextGoesToReasoning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSeenToolCall && !s.allToolResultsReceived
}

// RemoveFromText deletes the first occurrence of sub from the text parts,
// even when interleaved source or invocation parts split the match. Used by
// the legacy chat fallback to strip whole-message markers from displayed
// text.
func (s *Session) RemoveFromText(sub string) {
	s.mu.Lock()
	s.parts.RemoveFromText(sub)
	s.mu.Unlock()
	s.sched.Notify()
}

// Notify schedules a debounced flush.
func (s *Session) Notify() {
	s.sched.Notify()
}

// Flush delivers the current state immediately, cancelling any pending
// debounce timer.
func (s *Session) Flush() {
	s.sched.Flush()
}

// Logger returns the session's structured logger.
func (s *Session) Logger() *slog.Logger {
	return s.logger
}
