package coa

import (
	"context"
	"errors"
	"testing"

	"investigative-ai-be/pkg/search"

	"github.com/stretchr/testify/assert"
)

const workerJSON = `{"relevant_findings": [{"finding": "f", "relevance": "r", "source": "doc.txt"}], "direct_answers": ["a"], "related_context": [], "unanswered_aspects": []}`

func newTestCoordinator(searcher *fakeSearcher, provider *fakeLLM, poolSize int) *Coordinator {
	worker := NewWorker(searcher, provider, nopLogger{})
	return NewCoordinator(worker, poolSize, nopLogger{})
}

func TestCoordinator_ProgressFiresExactlyPoolSizeTimes(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{chatResponses: []string{workerJSON}}
	c := newTestCoordinator(searcher, provider, 4)

	var units []int
	records := c.Run(context.Background(), "what happened?", nil, nil, func(unit, total int, status string) {
		units = append(units, unit)
		assert.Equal(t, 4, total)
	})

	assert.Len(t, records, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, units)
}

func TestCoordinator_AllWorkersFailStillCompletes(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("provider down")}
	provider := &fakeLLM{}
	c := newTestCoordinator(searcher, provider, 4)

	calls := 0
	records := c.Run(context.Background(), "q", nil, nil, func(unit, total int, status string) {
		calls++
	})

	assert.Equal(t, 4, calls)
	assert.Len(t, records, 4)
	for _, r := range records {
		assert.True(t, r.Failed)
	}
	assert.False(t, UsableFindings(records))
}

func TestCoordinator_PadsAndClipsFocuses(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{chatResponses: []string{workerJSON}}
	c := newTestCoordinator(searcher, provider, 3)

	records := c.Run(context.Background(), "q", []string{"only one focus"}, nil, nil)
	assert.Len(t, records, 3)

	records = c.Run(context.Background(), "q", []string{"a", "b", "c", "d", "e"}, nil, nil)
	assert.Len(t, records, 3)
}

func TestCoordinator_RecordsOrderedByWorkerIndex(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{chatResponses: []string{workerJSON}}
	c := newTestCoordinator(searcher, provider, 4)

	focuses := []string{"focus-0", "focus-1", "focus-2", "focus-3"}
	records := c.Run(context.Background(), "q", focuses, nil, nil)

	for i, r := range records {
		assert.Equal(t, focuses[i], r.SearchFocus)
	}
}

func TestWorker_EmptySearchResultsAreNotAFailure(t *testing.T) {
	searcher := &fakeSearcher{} // zero passages
	provider := &fakeLLM{}
	worker := NewWorker(searcher, provider, nopLogger{})

	record := worker.Run(context.Background(), "q", "the focus", nil, 1, 4)

	assert.False(t, record.Failed)
	assert.True(t, record.Empty())
	assert.Equal(t, []string{"the focus"}, record.UnansweredAspects)
	assert.Equal(t, 0, provider.chatCalls)
}

func TestWorker_UnparseableOutputDegradesToFailedRecord(t *testing.T) {
	searcher := &fakeSearcher{passages: []search.Passage{{Content: "text", Source: "doc.txt"}}}
	provider := &fakeLLM{chatResponses: []string{"not json at all"}}
	worker := NewWorker(searcher, provider, nopLogger{})

	record := worker.Run(context.Background(), "q", "focus", nil, 1, 4)

	assert.True(t, record.Failed)
	assert.Equal(t, "focus", record.SearchFocus)
}
