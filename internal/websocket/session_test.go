package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// frameRecorder captures delivered frames in order.
type frameRecorder struct {
	mu     sync.Mutex
	frames [][]byte
	full   bool
}

func (r *frameRecorder) deliver(data []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return false
	}
	r.frames = append(r.frames, data)
	return true
}

func (r *frameRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.frames {
		var msg struct {
			Type string `json:"type"`
		}
		json.Unmarshal(f, &msg)
		out = append(out, msg.Type)
	}
	return out
}

func newTestSession(maxTurns int) (*Session, *frameRecorder) {
	rec := &frameRecorder{}
	return NewSession("test-session", rec, maxTurns, nopLogger{}), rec
}

func TestSession_HistoryWindowKeepsMostRecentPairs(t *testing.T) {
	s, _ := newTestSession(10)

	// 25 prior turns, alternating roles
	for i := 0; i < 25; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		s.mu.Lock()
		s.appendTurn(role, fmt.Sprintf("turn-%d", i))
		s.mu.Unlock()
	}

	window := s.HistoryWindow()

	// maxTurns=10 pairs keeps exactly the most recent 20 turns, oldest first
	require.Len(t, window, 20)
	assert.Equal(t, "turn-5", window[0].Content)
	assert.Equal(t, "turn-24", window[19].Content)
}

func TestSession_AppendTurnSkipsEmptyAssistant(t *testing.T) {
	s, _ := newTestSession(10)

	s.mu.Lock()
	s.appendTurn("user", "question")
	s.appendTurn("assistant", "   ")
	s.appendTurn("assistant", "real answer")
	s.mu.Unlock()

	window := s.HistoryWindow()
	require.Len(t, window, 2)
	assert.Equal(t, "real answer", window[1].Content)
}

func TestSession_BeginRunRejectsConcurrentQuestions(t *testing.T) {
	s, _ := newTestSession(10)

	assert.True(t, s.BeginRun())
	assert.False(t, s.BeginRun(), "second question during processing is rejected")

	s.EndRun()
	assert.True(t, s.BeginRun(), "session is reusable after the run finishes")
}

func TestSession_StreamCycleEmitsAndCommitsTranscript(t *testing.T) {
	s, rec := newTestSession(10)

	s.Stage("synthesizing", "Synthesizing findings...")
	s.StreamStart()
	s.Chunk("The answer ")
	s.Chunk("is **42**.")
	s.StreamEnd("What is the answer?")

	assert.Equal(t, []string{"stage", "stream_start", "chunk", "chunk", "stream_end"}, rec.types())

	window := s.HistoryWindow()
	require.Len(t, window, 2)
	assert.Equal(t, "user", window[0].Role)
	assert.Equal(t, "What is the answer?", window[0].Content)
	assert.Equal(t, "assistant", window[1].Role)
	assert.Equal(t, "The answer is **42**.", window[1].Content)
}

func TestSession_ChunkCarriesRenderedAccumulatedBuffer(t *testing.T) {
	s, rec := newTestSession(10)

	s.StreamStart()
	s.Chunk("# Ti")
	s.Chunk("tle")

	var last struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		HTML    string `json:"html"`
	}
	rec.mu.Lock()
	require.NoError(t, json.Unmarshal(rec.frames[len(rec.frames)-1], &last))
	rec.mu.Unlock()

	assert.Equal(t, "tle", last.Content)
	assert.Equal(t, "<h1>Title</h1>", last.HTML)
}

func TestSession_EventsAfterCloseAreDiscarded(t *testing.T) {
	s, rec := newTestSession(10)

	s.Stage("workers", "starting")
	s.Close()
	s.Chunk("late chunk")
	s.StreamEnd("late question")
	s.Error("late error")

	assert.Equal(t, []string{"stage"}, rec.types(), "events after close never reach the peer")
}

// channelSender delivers into a real channel the way Client does, so the
// disconnect teardown (mark closed, then close the channel) is exercised
// against concurrent emits.
type channelSender struct {
	ch chan []byte
}

func (c *channelSender) deliver(data []byte) bool {
	select {
	case c.ch <- data:
		return true
	default:
		return false
	}
}

func TestSession_DisconnectDuringEmitsNeverPanics(t *testing.T) {
	for i := 0; i < 200; i++ {
		out := &channelSender{ch: make(chan []byte, 4)}
		s := NewSession("teardown", out, 10, nopLogger{})

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				s.Chunk("fragment")
			}
			s.StreamEnd("question")
		}()

		// Disconnect path: the session is marked closed first, then the
		// peer channel is torn down. Late emits must be silent no-ops.
		s.Close()
		close(out.ch)
		wg.Wait()
	}
}

func TestSession_SeedHistoryReplacesTranscript(t *testing.T) {
	s, _ := newTestSession(10)

	s.mu.Lock()
	s.appendTurn("user", "stale")
	s.mu.Unlock()

	s.SeedHistory([]HistoryItem{
		{Role: "user", Content: "earlier question"},
		{Role: "assistant", Content: "earlier answer"},
	})

	window := s.HistoryWindow()
	require.Len(t, window, 2)
	assert.Equal(t, "earlier question", window[0].Content)
}

func TestParseQuestion(t *testing.T) {
	q, err := parseQuestion([]byte(`{"type":"question","content":"who?","history":[{"role":"user","content":"hi"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "who?", q.Content)
	require.Len(t, q.History, 1)

	_, err = parseQuestion([]byte(`not json`))
	assert.Error(t, err)

	_, err = parseQuestion([]byte(`{"type":"subscribe"}`))
	assert.Error(t, err)

	_, err = parseQuestion([]byte(`{"type":"question","content":"   "}`))
	assert.Error(t, err)
}
