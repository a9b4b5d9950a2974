package coa

import (
	"context"
	"errors"
	"testing"

	"investigative-ai-be/pkg/llm"
	"investigative-ai-be/pkg/search"

	"github.com/stretchr/testify/assert"
)

func newTestOrchestrator(searcher *fakeSearcher, provider *fakeLLM, poolSize int) *Orchestrator {
	worker := NewWorker(searcher, provider, nopLogger{})
	coordinator := NewCoordinator(worker, poolSize, nopLogger{})
	synthesizer := NewSynthesizer(provider, 10, nopLogger{})
	return NewOrchestrator(coordinator, synthesizer, provider, nil, nil, false, nopLogger{})
}

func TestOrchestrator_FullRunEventOrdering(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{
		chatResponses: []string{workerJSON},
		streamChunks:  []llm.Chunk{{Content: "Answer "}, {Content: "text."}},
	}
	o := newTestOrchestrator(searcher, provider, 4)
	em := &recordingEmitter{}

	err := o.Ask(context.Background(), "What happened?", nil, em)

	assert.NoError(t, err)
	assert.Equal(t, 4, em.count("worker_progress"))
	assert.Equal(t, 1, em.count("stream_start"))
	assert.Equal(t, 1, em.count("stream_end"))
	assert.Equal(t, 0, em.count("error"))
	assert.Equal(t, "Answer text.", em.answer())

	// stream_start strictly precedes every chunk, stream_end follows them
	var sawStart, sawEnd bool
	for _, e := range em.events {
		switch e {
		case "stream_start":
			sawStart = true
		case "chunk":
			assert.True(t, sawStart, "chunk before stream_start")
			assert.False(t, sawEnd, "chunk after stream_end")
		case "stream_end":
			sawEnd = true
		}
	}
	assert.True(t, sawStart && sawEnd)
}

func TestOrchestrator_AllWorkersFailedStreamsNotFound(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("provider unreachable")}
	provider := &fakeLLM{}
	o := newTestOrchestrator(searcher, provider, 4)
	em := &recordingEmitter{}

	err := o.Ask(context.Background(), "q", nil, em)

	// All workers failing is not a run failure: the canned answer streams
	assert.NoError(t, err)
	assert.Equal(t, 4, em.count("worker_progress"))
	assert.Equal(t, 1, em.count("stream_start"))
	assert.Contains(t, em.answer(), "No Relevant Information Found")
}

func TestOrchestrator_SynthesisFailureEmitsErrorWithoutStreamStart(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	failing := &synthFailLLM{workerJSON: workerJSON}
	worker := NewWorker(searcher, failing, nopLogger{})
	coordinator := NewCoordinator(worker, 2, nopLogger{})
	synthesizer := NewSynthesizer(failing, 10, nopLogger{})
	o := NewOrchestrator(coordinator, synthesizer, failing, nil, nil, false, nopLogger{})
	em := &recordingEmitter{}

	err := o.Ask(context.Background(), "q", nil, em)

	assert.Error(t, err)
	assert.Equal(t, 0, em.count("stream_start"), "no stream_start on synthesis failure")
	assert.Equal(t, 0, em.count("chunk"))
	assert.Equal(t, 1, em.count("error"))
	assert.NotEmpty(t, em.errMsg)
}

// synthFailLLM answers worker extraction calls but fails synthesis:
// JSON-mode calls succeed, everything else errors.
type synthFailLLM struct {
	workerJSON string
}

func (f *synthFailLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(options)
	if opts.JSONMode {
		return f.workerJSON, nil
	}
	return "", errors.New("synthesis model down")
}

func (f *synthFailLLM) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.Chunk, error) {
	return nil, errors.New("synthesis stream down")
}

func (f *synthFailLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func TestOrchestrator_MidStreamFailureEndsInErrorNotStreamEnd(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{
		chatResponses: []string{workerJSON},
		streamChunks: []llm.Chunk{
			{Content: "The answer is 4"},
			{Err: errors.New("model connection reset")},
		},
	}
	o := newTestOrchestrator(searcher, provider, 2)
	em := &recordingEmitter{}

	err := o.Ask(context.Background(), "q", nil, em)

	// A stream that dies after its first chunk is a synthesis failure: the
	// truncated text must not be sealed with stream_end as a completed answer.
	assert.Error(t, err)
	assert.Equal(t, 1, em.count("stream_start"))
	assert.Equal(t, 0, em.count("stream_end"), "truncated answer sealed as complete")
	assert.Equal(t, 1, em.count("error"))
	assert.Contains(t, em.errMsg, "model connection reset")
}

func TestOrchestrator_GraphRouteSkipsWorkers(t *testing.T) {
	searcher := &fakeSearcher{}
	provider := &fakeLLM{}
	worker := NewWorker(searcher, provider, nopLogger{})
	coordinator := NewCoordinator(worker, 4, nopLogger{})
	synthesizer := NewSynthesizer(provider, 10, nopLogger{})

	router := routeFunc(func(ctx context.Context, q string) (string, error) { return RouteExhaustive, nil })
	answerer := answerFunc(func(ctx context.Context, q string) (string, error) {
		return "## Entities\n\n- Sarah Chen (Source: interview.txt)", nil
	})
	o := NewOrchestrator(coordinator, synthesizer, provider, router, answerer, false, nopLogger{})
	em := &recordingEmitter{}

	err := o.Ask(context.Background(), "list all entities", nil, em)

	assert.NoError(t, err)
	assert.Equal(t, 0, em.count("worker_progress"))
	assert.Equal(t, 1, em.count("stage:graph"))
	assert.Equal(t, 0, em.count("stage:workers"))
	assert.Equal(t, 1, em.count("stream_start"))
	assert.Equal(t, 1, em.count("stream_end"))
	assert.Equal(t, "## Entities\n\n- Sarah Chen (Source: interview.txt)", em.answer())
	assert.Equal(t, 0, searcher.calls)
}

func TestOrchestrator_RoutingErrorFallsBackToWorkers(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{
		chatResponses: []string{workerJSON},
		streamChunks:  []llm.Chunk{{Content: "ok"}},
	}
	worker := NewWorker(searcher, provider, nopLogger{})
	coordinator := NewCoordinator(worker, 2, nopLogger{})
	synthesizer := NewSynthesizer(provider, 10, nopLogger{})

	router := routeFunc(func(ctx context.Context, q string) (string, error) {
		return "", errors.New("graph unavailable")
	})
	answerer := answerFunc(func(ctx context.Context, q string) (string, error) { return "", nil })
	o := NewOrchestrator(coordinator, synthesizer, provider, router, answerer, false, nopLogger{})
	em := &recordingEmitter{}

	err := o.Ask(context.Background(), "q", nil, em)

	assert.NoError(t, err)
	assert.Equal(t, 1, em.count("stage:workers"))
	assert.Equal(t, 2, em.count("worker_progress"))
}

type routeFunc func(ctx context.Context, question string) (string, error)

func (f routeFunc) Classify(ctx context.Context, question string) (string, error) { return f(ctx, question) }

type answerFunc func(ctx context.Context, question string) (string, error)

func (f answerFunc) Answer(ctx context.Context, question string) (string, error) { return f(ctx, question) }
