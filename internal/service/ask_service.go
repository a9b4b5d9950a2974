package service

import (
	"context"
	"errors"
	"strings"

	"investigative-ai-be/internal/dto"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/coa"
	"investigative-ai-be/pkg/markdown"
	"investigative-ai-be/pkg/search"
)

type IAskService interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)
}

// Asker is the orchestration entrypoint, satisfied by coa.Orchestrator.
type Asker interface {
	Ask(ctx context.Context, question string, history []search.HistoryTurn, em coa.Emitter) error
}

// askService is the non-streamed REST fallback: it runs the same
// pipeline as the websocket channel but collects the answer into one
// response instead of streaming it.
type askService struct {
	asker  Asker
	logger logger.ILogger
}

func NewAskService(asker Asker, log logger.ILogger) IAskService {
	return &askService{asker: asker, logger: log}
}

func (s *askService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	history := make([]search.HistoryTurn, 0, len(req.History))
	for _, turn := range req.History {
		history = append(history, search.HistoryTurn{Role: turn.Role, Content: turn.Content})
	}

	collector := &collectingEmitter{}
	if err := s.asker.Ask(ctx, req.Question, history, collector); err != nil {
		return nil, err
	}
	if collector.errMsg != "" {
		return nil, errors.New(collector.errMsg)
	}

	answer := collector.answer.String()
	return &dto.AskResponse{
		Answer: answer,
		HTML:   markdown.Render(answer),
	}, nil
}

// collectingEmitter swallows progress events and accumulates the answer.
type collectingEmitter struct {
	answer strings.Builder
	errMsg string
}

func (c *collectingEmitter) Stage(stage, message string)                 {}
func (c *collectingEmitter) WorkerProgress(worker, total int, st string) {}
func (c *collectingEmitter) StreamStart()                                {}
func (c *collectingEmitter) Chunk(content string)                        { c.answer.WriteString(content) }
func (c *collectingEmitter) StreamEnd(question string)                   {}
func (c *collectingEmitter) Error(message string)                        { c.errMsg = message }
