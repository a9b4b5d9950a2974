package websocket

import (
	"strings"
	"sync"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/markdown"
	"investigative-ai-be/pkg/search"
)

const defaultMaxTurns = 10

// ConversationTurn is one entry of a session's transcript.
type ConversationTurn struct {
	Role    string
	Content string
}

// sender delivers a marshaled frame to the peer. Implemented by Client;
// tests substitute a recorder.
type sender interface {
	deliver(data []byte) bool
}

// Session is the per-connection conversational state: the turn sequence,
// the single-run lock, and the event sink the orchestration emits into.
// All mutation goes through the session's own mutex; workers and the
// synthesizer only ever see immutable history snapshots.
type Session struct {
	id       string
	out      sender
	maxTurns int
	logger   logger.ILogger

	mu         sync.Mutex
	turns      []ConversationTurn
	processing bool
	closed     bool
	answer     strings.Builder
}

func NewSession(id string, out sender, maxTurns int, log logger.ILogger) *Session {
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}
	return &Session{
		id:       id,
		out:      out,
		maxTurns: maxTurns,
		logger:   log,
	}
}

func (s *Session) ID() string {
	return s.id
}

// BeginRun claims the session for one orchestration run. At most one run
// is in flight; a second question during processing is rejected by the
// caller, never queued.
func (s *Session) BeginRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing || s.closed {
		return false
	}
	s.processing = true
	s.answer.Reset()
	return true
}

func (s *Session) EndRun() {
	s.mu.Lock()
	s.processing = false
	s.mu.Unlock()
}

// Close marks the session disconnected. Events produced by a still
// running orchestration after this point are discarded silently.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// SeedHistory replaces the transcript with the client-supplied one. The
// client owns its visible transcript, so a question carrying history is
// authoritative over what the server accumulated.
func (s *Session) SeedHistory(items []HistoryItem) {
	if len(items) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = s.turns[:0]
	for _, item := range items {
		if item.Content == "" {
			continue
		}
		s.turns = append(s.turns, ConversationTurn{Role: item.Role, Content: item.Content})
	}
}

// HistoryWindow snapshots the most recent maxTurns exchange pairs,
// oldest first.
func (s *Session) HistoryWindow() []search.HistoryTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := 2 * s.maxTurns
	start := 0
	if len(s.turns) > limit {
		start = len(s.turns) - limit
	}

	window := make([]search.HistoryTurn, 0, len(s.turns)-start)
	for _, turn := range s.turns[start:] {
		window = append(window, search.HistoryTurn{Role: turn.Role, Content: turn.Content})
	}
	return window
}

func (s *Session) appendTurn(role, content string) {
	if role == "assistant" && strings.TrimSpace(content) == "" {
		return
	}
	s.turns = append(s.turns, ConversationTurn{Role: role, Content: content})
}

// send drops frames once the session is closed: late worker or stream
// completions after a disconnect must be no-ops. The deliver happens under
// the same lock Close takes, so once Close returns no in-flight send can
// still touch the peer channel and the hub may safely tear it down.
func (s *Session) send(data []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delivered := s.out.deliver(data)
	s.mu.Unlock()
	if !delivered {
		s.logger.Warn("Session", "Dropped frame, peer send buffer full", map[string]interface{}{
			"session_id": s.id,
		})
	}
}

// The methods below are the orchestration event sink (coa.Emitter).

func (s *Session) Stage(stage, message string) {
	s.send(NewStageMessage(stage, message))
}

func (s *Session) WorkerProgress(worker, total int, status string) {
	s.send(NewWorkerProgressMessage(worker, total, status))
}

func (s *Session) StreamStart() {
	s.mu.Lock()
	s.answer.Reset()
	s.mu.Unlock()
	s.send(NewStreamStartMessage())
}

// Chunk re-renders the full accumulated buffer on every fragment, so a
// structurally incomplete element at a chunk boundary self-corrects on
// the next one.
func (s *Session) Chunk(content string) {
	s.mu.Lock()
	s.answer.WriteString(content)
	html := markdown.Render(s.answer.String())
	s.mu.Unlock()
	s.send(NewChunkMessage(content, html))
}

// StreamEnd closes the answer stream and commits the completed exchange
// to the transcript in one step.
func (s *Session) StreamEnd(question string) {
	s.mu.Lock()
	full := s.answer.String()
	s.appendTurn("user", question)
	s.appendTurn("assistant", full)
	s.mu.Unlock()
	s.send(NewStreamEndMessage(markdown.Render(full)))
}

func (s *Session) Error(message string) {
	s.send(NewErrorMessage(message))
}
