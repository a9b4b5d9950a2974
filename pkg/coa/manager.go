package coa

import (
	"context"
	"fmt"
	"sync"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/llm"
)

const notFoundResponse = "## No Relevant Information Found\n\n" +
	"I searched the documents from multiple angles but could not find " +
	"information relevant to your question. The documents may not cover " +
	"this topic, or it may be phrased differently than the source material.\n\n" +
	"*Try rephrasing the question or asking about a related entity or event.*"

const defaultChunkLen = 10

// AnswerStream carries one answer's chunks in production order. Err is
// meaningful once Chunks is closed: a non-nil value means the stream was
// interrupted and the text delivered so far is incomplete.
type AnswerStream struct {
	chunks chan string

	mu  sync.Mutex
	err error
}

func newAnswerStream() *AnswerStream {
	return &AnswerStream{chunks: make(chan string)}
}

func (a *AnswerStream) Chunks() <-chan string {
	return a.chunks
}

func (a *AnswerStream) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

func (a *AnswerStream) fail(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// Synthesizer turns aggregated worker findings into a streamed answer.
type Synthesizer struct {
	llm      llm.LLMProvider
	chunkLen int
	logger   logger.ILogger
}

func NewSynthesizer(provider llm.LLMProvider, chunkLen int, log logger.ILogger) *Synthesizer {
	if chunkLen <= 0 {
		chunkLen = defaultChunkLen
	}
	return &Synthesizer{
		llm:      provider,
		chunkLen: chunkLen,
		logger:   log,
	}
}

// Stream produces the answer as an ordered chunk stream. The chunk channel
// is always closed when the answer (or failure) is complete; callers must
// check Err after draining it. When no worker found anything usable, a
// deterministic not-found answer is streamed without calling the model.
func (s *Synthesizer) Stream(ctx context.Context, question, historyContext string, records []*FindingsRecord) *AnswerStream {
	if !UsableFindings(records) {
		s.logger.Info("CoaSynthesizer", "No usable findings, streaming canned response", map[string]interface{}{
			"question": truncate(question, 120),
		})
		return sliceStream(ctx, notFoundResponse, s.chunkLen)
	}

	input := BuildManagerInput(question, historyContext, records)
	messages := []llm.Message{{Role: "user", Content: input}}

	stream, err := s.llm.ChatStream(ctx, messages)
	if err != nil {
		// Fall back to a single completion sliced into chunks.
		s.logger.Warn("CoaSynthesizer", "Streaming unavailable, falling back to full response", map[string]interface{}{
			"error": err.Error(),
		})
		return s.streamFromCompletion(ctx, messages)
	}

	out := newAnswerStream()
	go func() {
		defer close(out.chunks)
		emitted := false
		for chunk := range stream {
			if chunk.Err != nil {
				s.logger.Error("CoaSynthesizer", "Stream failed mid-answer", map[string]interface{}{
					"error":   chunk.Err.Error(),
					"emitted": emitted,
				})
				out.fail(fmt.Errorf("synthesis stream: %w", chunk.Err))
				return
			}
			select {
			case out.chunks <- chunk.Content:
				emitted = true
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *Synthesizer) streamFromCompletion(ctx context.Context, messages []llm.Message) *AnswerStream {
	full, err := s.llm.Chat(ctx, messages)
	if err != nil {
		s.logger.Error("CoaSynthesizer", "Fallback completion failed", map[string]interface{}{
			"error": err.Error(),
		})
		out := newAnswerStream()
		out.fail(fmt.Errorf("synthesis completion: %w", err))
		close(out.chunks)
		return out
	}
	return sliceStream(ctx, full, s.chunkLen)
}

// sliceStream slices finished text into fixed-size rune chunks so the
// client sees the same wire behavior as a live stream.
func sliceStream(ctx context.Context, text string, size int) *AnswerStream {
	out := newAnswerStream()
	go func() {
		defer close(out.chunks)
		runes := []rune(text)
		for i := 0; i < len(runes); i += size {
			end := i + size
			if end > len(runes) {
				end = len(runes)
			}
			select {
			case out.chunks <- string(runes[i:end]):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
