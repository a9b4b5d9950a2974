package coa

import (
	"context"
	"fmt"

	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/search"
)

// ProgressFunc receives one callback per worker completion, in completion
// order. unit counts completions (1..total), status describes the finished
// worker's focus.
type ProgressFunc func(unit, total int, status string)

// Coordinator fans a question out to a pool of workers and joins their
// findings. Every worker terminates with a record; the pool never blocks
// on a straggler beyond the worker's own timeout.
type Coordinator struct {
	worker   *Worker
	poolSize int
	logger   logger.ILogger
}

func NewCoordinator(worker *Worker, poolSize int, log logger.ILogger) *Coordinator {
	if poolSize <= 0 {
		poolSize = 4
	}
	return &Coordinator{
		worker:   worker,
		poolSize: poolSize,
		logger:   log,
	}
}

func (c *Coordinator) PoolSize() int {
	return c.poolSize
}

type workerResult struct {
	index  int
	record *FindingsRecord
}

// Run launches poolSize workers concurrently, one per search focus, and
// returns their records ordered by worker index. onProgress fires exactly
// poolSize times, in completion order.
func (c *Coordinator) Run(ctx context.Context, question string, focuses []string, history []search.HistoryTurn, onProgress ProgressFunc) []*FindingsRecord {
	// Pad or clip focuses to the pool size
	for len(focuses) < c.poolSize {
		focuses = append(focuses, question)
	}
	focuses = focuses[:c.poolSize]

	results := make(chan workerResult, c.poolSize)
	for i := 0; i < c.poolSize; i++ {
		go func(idx int, focus string) {
			record := c.worker.Run(ctx, question, focus, history, idx+1, c.poolSize)
			results <- workerResult{index: idx, record: record}
		}(i, focuses[i])
	}

	records := make([]*FindingsRecord, c.poolSize)
	for done := 1; done <= c.poolSize; done++ {
		res := <-results
		records[res.index] = res.record

		if onProgress != nil {
			onProgress(done, c.poolSize, workerStatus(res.index+1, res.record, question))
		}
	}

	c.logger.Info("CoaCoordinator", "Worker pool finished", map[string]interface{}{
		"question": truncate(question, 120),
		"workers":  c.poolSize,
		"usable":   UsableFindings(records),
	})
	return records
}

func workerStatus(workerNum int, record *FindingsRecord, question string) string {
	if record.Failed {
		return fmt.Sprintf("Worker %d finished with no findings", workerNum)
	}
	if record.SearchFocus != "" && record.SearchFocus != question {
		return fmt.Sprintf("Worker %d searched: %q", workerNum, truncate(record.SearchFocus, 40))
	}
	return fmt.Sprintf("Worker %d analyzed documents", workerNum)
}
