package coa

import (
	"context"
	"errors"
	"fmt"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/llm"
	"investigative-ai-be/pkg/search"

	"github.com/qmuntal/stateless"
)

// FSM States
type FSMState stateless.State

var (
	StateIdle               FSMState = "Idle"
	StateDispatchingWorkers FSMState = "DispatchingWorkers"
	StateAggregating        FSMState = "Aggregating"
	StateSynthesizing       FSMState = "Synthesizing"
	StateQueryingGraph      FSMState = "QueryingGraph"
	StateStreaming          FSMState = "Streaming"
	StateDone               FSMState = "Done"  // Terminal: answer fully streamed
	StateError              FSMState = "Error" // Terminal: error emitted
)

// FSM Triggers
type FSMTrigger stateless.Trigger

var (
	TriggerAskSpecific    FSMTrigger = "AskSpecific"
	TriggerAskExhaustive  FSMTrigger = "AskExhaustive"
	TriggerWorkersDone    FSMTrigger = "WorkersDone"
	TriggerFindingsJoined FSMTrigger = "FindingsJoined"
	TriggerAnswerReady    FSMTrigger = "AnswerReady"
	TriggerStreamFinished FSMTrigger = "StreamFinished"
	TriggerErrorOccurred  FSMTrigger = "ErrorOccurred"
)

// Emitter receives the ordered progress and answer events of one run.
// The websocket session implements it over the wire vocabulary.
type Emitter interface {
	Stage(stage, message string)
	WorkerProgress(worker, total int, status string)
	StreamStart()
	Chunk(content string)
	StreamEnd(question string)
	Error(message string)
}

// GraphRouter classifies a question as needing the exhaustive knowledge
// graph or the specific worker-pool path.
type GraphRouter interface {
	Classify(ctx context.Context, question string) (string, error) // "EXHAUSTIVE" or "SPECIFIC"
}

// GraphAnswerer produces a complete answer from preprocessed extractions.
type GraphAnswerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

const (
	RouteExhaustive = "EXHAUSTIVE"
	RouteSpecific   = "SPECIFIC"

	graphChunkLen = 50
)

// Orchestrator drives one question through the full pipeline: routing,
// worker dispatch, aggregation, synthesis and streaming. Each Ask builds
// its own state machine, so a single Orchestrator is safe for concurrent
// runs on different sessions.
type Orchestrator struct {
	coordinator  *Coordinator
	synthesizer  *Synthesizer
	llm          llm.LLMProvider
	router       GraphRouter   // nil disables graph routing
	graph        GraphAnswerer // nil disables graph routing
	useExpansion bool
	logger       logger.ILogger
}

func NewOrchestrator(
	coordinator *Coordinator,
	synthesizer *Synthesizer,
	provider llm.LLMProvider,
	router GraphRouter,
	graph GraphAnswerer,
	useExpansion bool,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		coordinator:  coordinator,
		synthesizer:  synthesizer,
		llm:          provider,
		router:       router,
		graph:        graph,
		useExpansion: useExpansion,
		logger:       log,
	}
}

// Ask runs the pipeline for one question, emitting every progress and
// answer event through em. The returned error mirrors what was emitted;
// callers that only forward events may ignore it.
func (o *Orchestrator) Ask(ctx context.Context, question string, history []search.HistoryTurn, em Emitter) error {
	// FSM context data
	type fsmContext struct {
		focuses    []string
		expanded   bool
		records    []*FindingsRecord
		history    string
		firstChunk string
		firstOk    bool
		stream     *AnswerStream
		lastError  error
	}
	fsmCtx := &fsmContext{
		history: FormatHistory(history),
	}

	fsm := stateless.NewStateMachine(StateIdle)

	fsm.Configure(StateIdle).
		Permit(TriggerAskSpecific, StateDispatchingWorkers).
		Permit(TriggerAskExhaustive, StateQueryingGraph).
		Permit(TriggerErrorOccurred, StateError)

	// State: DispatchingWorkers
	// Action: expand the query, fan out the worker pool, forward progress.
	fsm.Configure(StateDispatchingWorkers).
		OnEntry(func(ctx context.Context, args ...any) error {
			em.Stage("workers", "Analyzing documents with worker agents...")

			n := o.coordinator.PoolSize()
			if o.useExpansion {
				fsmCtx.focuses, fsmCtx.expanded = DecomposeQuery(ctx, o.llm, question, n, false)
			} else {
				fsmCtx.focuses = make([]string, n)
				for i := range fsmCtx.focuses {
					fsmCtx.focuses[i] = question
				}
			}

			fsmCtx.records = o.coordinator.Run(ctx, question, fsmCtx.focuses, history, func(unit, total int, status string) {
				em.WorkerProgress(unit, total, status)
			})
			return fsm.Fire(TriggerWorkersDone, ctx)
		}).
		Permit(TriggerWorkersDone, StateAggregating).
		Permit(TriggerErrorOccurred, StateError)

	// State: Aggregating
	// Action: records are already joined in index order; sanity-check and move on.
	fsm.Configure(StateAggregating).
		OnEntry(func(ctx context.Context, args ...any) error {
			if len(fsmCtx.records) == 0 {
				fsmCtx.lastError = errors.New("worker pool returned no records")
				return fsm.Fire(TriggerErrorOccurred, ctx)
			}
			return fsm.Fire(TriggerFindingsJoined, ctx)
		}).
		Permit(TriggerFindingsJoined, StateSynthesizing).
		Permit(TriggerErrorOccurred, StateError)

	// State: Synthesizing
	// Action: start the manager stream and hold the first chunk back so the
	// stage stays visible until content is actually ready.
	fsm.Configure(StateSynthesizing).
		OnEntry(func(ctx context.Context, args ...any) error {
			em.Stage("synthesizing", "Synthesizing findings...")

			stream := o.synthesizer.Stream(ctx, question, fsmCtx.history, fsmCtx.records)
			first, ok := <-stream.Chunks()
			if !ok {
				// Closed without a single chunk while evidence existed:
				// synthesis failed, the client never sees stream_start.
				fsmCtx.lastError = stream.Err()
				if fsmCtx.lastError == nil {
					fsmCtx.lastError = errors.New("synthesis produced no output")
				}
				return fsm.Fire(TriggerErrorOccurred, ctx)
			}
			fsmCtx.firstChunk = first
			fsmCtx.firstOk = true
			fsmCtx.stream = stream
			return fsm.Fire(TriggerAnswerReady, ctx)
		}).
		Permit(TriggerAnswerReady, StateStreaming).
		Permit(TriggerErrorOccurred, StateError)

	// State: QueryingGraph
	// Action: answer from preprocessed extractions, then stream the finished
	// text in fixed slices for a consistent client experience.
	fsm.Configure(StateQueryingGraph).
		OnEntry(func(ctx context.Context, args ...any) error {
			em.Stage("graph", "Querying knowledge graph...")

			answer, err := o.graph.Answer(ctx, question)
			if err != nil {
				fsmCtx.lastError = fmt.Errorf("graph answer: %w", err)
				return fsm.Fire(TriggerErrorOccurred, ctx)
			}

			fsmCtx.stream = sliceStream(ctx, answer, graphChunkLen)
			first, ok := <-fsmCtx.stream.Chunks()
			if !ok {
				fsmCtx.lastError = errors.New("graph produced an empty answer")
				return fsm.Fire(TriggerErrorOccurred, ctx)
			}
			fsmCtx.firstChunk = first
			fsmCtx.firstOk = true
			return fsm.Fire(TriggerAnswerReady, ctx)
		}).
		Permit(TriggerAnswerReady, StateStreaming).
		Permit(TriggerErrorOccurred, StateError)

	// State: Streaming
	// Action: stream_start, ordered chunks, stream_end. A stream that dies
	// mid-answer must not be sealed as complete: the truncated text is
	// abandoned and the run ends in an error event instead of stream_end.
	fsm.Configure(StateStreaming).
		OnEntry(func(ctx context.Context, args ...any) error {
			em.StreamStart()
			if fsmCtx.firstOk {
				em.Chunk(fsmCtx.firstChunk)
			}
			for chunk := range fsmCtx.stream.Chunks() {
				if chunk == "" {
					continue
				}
				em.Chunk(chunk)
			}
			if err := fsmCtx.stream.Err(); err != nil {
				fsmCtx.lastError = err
				return fsm.Fire(TriggerErrorOccurred, ctx)
			}
			em.StreamEnd(question)
			return fsm.Fire(TriggerStreamFinished, ctx)
		}).
		Permit(TriggerStreamFinished, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	fsm.Configure(StateDone).
		OnEntry(func(ctx context.Context, args ...any) error {
			o.logger.Info("CoaOrchestrator", "Run complete", map[string]interface{}{
				"question": truncate(question, 120),
				"expanded": fsmCtx.expanded,
			})
			return nil
		})

	fsm.Configure(StateError).
		OnEntry(func(ctx context.Context, args ...any) error {
			if fsmCtx.lastError == nil {
				fsmCtx.lastError = errors.New("pipeline reached error state without a specific error")
			}
			o.logger.Error("CoaOrchestrator", "Run failed", map[string]interface{}{
				"question": truncate(question, 120),
				"error":    fsmCtx.lastError.Error(),
			})
			em.Error(fsmCtx.lastError.Error())
			return nil
		})

	route := o.classify(ctx, question)
	trigger := TriggerAskSpecific
	if route == RouteExhaustive {
		trigger = TriggerAskExhaustive
	}
	if err := fsm.FireCtx(ctx, trigger); err != nil {
		o.logger.Error("CoaOrchestrator", "FSM fire failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	return fsmCtx.lastError
}

// classify routes the question. Without a router and graph answerer every
// question takes the worker-pool path.
func (o *Orchestrator) classify(ctx context.Context, question string) string {
	if o.router == nil || o.graph == nil {
		return RouteSpecific
	}
	route, err := o.router.Classify(ctx, question)
	if err != nil {
		o.logger.Warn("CoaOrchestrator", "Routing failed, defaulting to worker pool", map[string]interface{}{
			"error": err.Error(),
		})
		return RouteSpecific
	}
	return route
}
