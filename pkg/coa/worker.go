package coa

import (
	"context"
	"time"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/llm"
	"investigative-ai-be/pkg/search"
)

const defaultWorkerTimeout = 90 * time.Second

// Worker runs one structured extraction pass: retrieve passages for its
// search focus, then constrain the model to the FindingsRecord schema.
type Worker struct {
	searcher search.Provider
	llm      llm.LLMProvider
	logger   logger.ILogger
	timeout  time.Duration
}

func NewWorker(searcher search.Provider, provider llm.LLMProvider, log logger.ILogger) *Worker {
	return &Worker{
		searcher: searcher,
		llm:      provider,
		logger:   log,
		timeout:  defaultWorkerTimeout,
	}
}

// Run executes the pass. It never returns an error: provider failures,
// timeouts and unparseable output all produce an empty record with Failed
// set, so one bad worker cannot sink the whole question.
func (w *Worker) Run(ctx context.Context, question, focus string, history []search.HistoryTurn, pass, total int) *FindingsRecord {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	passages, err := w.searcher.Search(ctx, focus, history)
	if err != nil {
		w.logger.Warn("CoaWorker", "Search failed, reporting empty findings", map[string]interface{}{
			"pass":  pass,
			"focus": focus,
			"error": err.Error(),
		})
		return &FindingsRecord{SearchFocus: focus, Failed: true}
	}

	if len(passages) == 0 {
		// Nothing retrieved: an honest empty record, not a failure.
		return &FindingsRecord{
			SearchFocus:       focus,
			UnansweredAspects: []string{focus},
		}
	}

	historyContext := FormatHistory(history)
	input := BuildWorkerInput(question, focus, historyContext, passages, pass, total)

	raw, err := w.llm.Chat(ctx, []llm.Message{{Role: "user", Content: input}}, llm.WithJSONMode(), llm.WithTemperature(0.2))
	if err != nil {
		w.logger.Warn("CoaWorker", "Extraction call failed, reporting empty findings", map[string]interface{}{
			"pass":  pass,
			"focus": focus,
			"error": err.Error(),
		})
		return &FindingsRecord{SearchFocus: focus, Failed: true}
	}

	record := ParseFindings(raw)
	record.SearchFocus = focus
	if record.Failed {
		w.logger.Warn("CoaWorker", "Unparseable worker output", map[string]interface{}{
			"pass":   pass,
			"focus":  focus,
			"sample": truncate(raw, 200),
		})
	}
	return record
}

// truncate caps s at n runes. Slicing by runes keeps multi-byte characters
// intact in status frames and prompt text.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
