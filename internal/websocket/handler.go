package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/coa"
	"investigative-ai-be/pkg/search"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Asker runs one question through the orchestration pipeline, emitting
// every event into the session.
type Asker interface {
	Ask(ctx context.Context, question string, history []search.HistoryTurn, em coa.Emitter) error
}

// Handler owns the websocket endpoint: one session per connection, one
// in-flight question per session.
type Handler struct {
	hub      *Hub
	asker    Asker
	maxTurns int
	logger   logger.ILogger
}

func NewHandler(hub *Hub, asker Asker, maxTurns int, log logger.ILogger) *Handler {
	return &Handler{
		hub:      hub,
		asker:    asker,
		maxTurns: maxTurns,
		logger:   log,
	}
}

// Handle serves one connection. It blocks until the peer disconnects.
func (h *Handler) Handle(conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session := NewSession(uuid.NewString(), nil, h.maxTurns, h.logger)
	client := &Client{
		Hub:     h.hub,
		Conn:    conn,
		Session: session,
		Send:    make(chan []byte, 256),
		logger:  h.logger,
	}
	session.out = client
	client.onQuestion = func(q QuestionMessage) {
		h.dispatch(ctx, session, q)
	}

	h.hub.register <- client
	go client.writePump()
	client.readPump()
}

// dispatch starts an orchestration run for one question. The run happens
// in its own goroutine so the read pump keeps draining control frames
// and detecting disconnects.
func (h *Handler) dispatch(ctx context.Context, session *Session, q QuestionMessage) {
	if !session.BeginRun() {
		// One in-flight run per session, later questions are rejected
		session.Error("A question is already being processed. Wait for it to finish.")
		return
	}

	session.SeedHistory(q.History)
	history := session.HistoryWindow()

	go func() {
		defer session.EndRun()
		if err := h.asker.Ask(ctx, q.Content, history, session); err != nil {
			h.logger.Warn("WsHandler", "Run ended with error", map[string]interface{}{
				"session_id": session.ID(),
				"error":      err.Error(),
			})
		}
	}()
}

func parseQuestion(raw []byte) (QuestionMessage, error) {
	var q QuestionMessage
	if err := json.Unmarshal(raw, &q); err != nil {
		return q, errors.New("malformed message: expected a JSON question payload")
	}
	if q.Type != "question" {
		return q, errors.New("unsupported message type: " + q.Type)
	}
	if strings.TrimSpace(q.Content) == "" {
		return q, errors.New("question content must not be empty")
	}
	return q, nil
}
