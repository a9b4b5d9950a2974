package coa

import (
	"context"
	"errors"
	"sync"

	"investigative-ai-be/pkg/llm"
	"investigative-ai-be/pkg/search"
)

// nopLogger satisfies logger.ILogger for tests.
type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// fakeLLM scripts the provider calls: chatResponses feed Chat in order,
// streamChunks feed ChatStream, errors force the failure paths.
type fakeLLM struct {
	mu            sync.Mutex
	chatResponses []string
	chatErr       error
	streamChunks  []llm.Chunk
	streamErr     error
	chatCalls     int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls++
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(f.chatResponses) == 0 {
		return "", errors.New("fakeLLM: no scripted response")
	}
	res := f.chatResponses[0]
	if len(f.chatResponses) > 1 {
		f.chatResponses = f.chatResponses[1:]
	}
	return res, nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.Chunk, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan llm.Chunk, len(f.streamChunks))
	for _, c := range f.streamChunks {
		out <- c
	}
	close(out)
	return out, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// fakeSearcher returns scripted passages or a scripted error.
type fakeSearcher struct {
	passages []search.Passage
	err      error
	calls    int
	mu       sync.Mutex
}

func (f *fakeSearcher) Search(ctx context.Context, query string, history []search.HistoryTurn) ([]search.Passage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

// recordingEmitter captures the full ordered event sequence of a run.
type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	chunks []string
	errMsg string
}

func (r *recordingEmitter) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEmitter) Stage(stage, message string) { r.record("stage:" + stage) }
func (r *recordingEmitter) WorkerProgress(worker, total int, status string) {
	r.record("worker_progress")
}
func (r *recordingEmitter) StreamStart() { r.record("stream_start") }
func (r *recordingEmitter) Chunk(content string) {
	r.mu.Lock()
	r.chunks = append(r.chunks, content)
	r.mu.Unlock()
	r.record("chunk")
}
func (r *recordingEmitter) StreamEnd(question string) { r.record("stream_end") }
func (r *recordingEmitter) Error(message string) {
	r.mu.Lock()
	r.errMsg = message
	r.mu.Unlock()
	r.record("error")
}

func (r *recordingEmitter) answer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := ""
	for _, c := range r.chunks {
		out += c
	}
	return out
}

func (r *recordingEmitter) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}
