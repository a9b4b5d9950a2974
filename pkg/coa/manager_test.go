package coa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"investigative-ai-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func collect(stream *AnswerStream) string {
	var b strings.Builder
	for chunk := range stream.Chunks() {
		b.WriteString(chunk)
	}
	return b.String()
}

func TestSynthesizer_NoUsableFindingsStreamsNotFound(t *testing.T) {
	provider := &fakeLLM{}
	s := NewSynthesizer(provider, 10, nopLogger{})

	records := []*FindingsRecord{
		{Failed: true},
		{UnansweredAspects: []string{"everything"}},
	}
	answer := collect(s.Stream(context.Background(), "q", "", records))

	assert.Contains(t, answer, "No Relevant Information Found")
	assert.Equal(t, 0, provider.chatCalls, "canned response must not call the model")
}

func TestSynthesizer_StreamsChunksInProductionOrder(t *testing.T) {
	provider := &fakeLLM{streamChunks: []llm.Chunk{
		{Content: "The "}, {Content: "answer "}, {Content: "is 42."},
	}}
	s := NewSynthesizer(provider, 10, nopLogger{})

	records := []*FindingsRecord{{DirectAnswers: []string{"42"}}}
	stream := s.Stream(context.Background(), "q", "", records)

	var got []string
	for chunk := range stream.Chunks() {
		got = append(got, chunk)
	}
	assert.Equal(t, []string{"The ", "answer ", "is 42."}, got)
	assert.NoError(t, stream.Err())
}

func TestSynthesizer_MidStreamErrorSurvivesOnStream(t *testing.T) {
	provider := &fakeLLM{streamChunks: []llm.Chunk{
		{Content: "The answer is 4"},
		{Err: errors.New("model connection reset")},
	}}
	s := NewSynthesizer(provider, 10, nopLogger{})

	records := []*FindingsRecord{{DirectAnswers: []string{"x"}}}
	stream := s.Stream(context.Background(), "q", "", records)

	var got []string
	for chunk := range stream.Chunks() {
		got = append(got, chunk)
	}

	// The partial text is delivered, but the stream must report the failure
	assert.Equal(t, []string{"The answer is 4"}, got)
	assert.ErrorContains(t, stream.Err(), "model connection reset")
}

func TestSynthesizer_StreamInitFailureFallsBackToCompletion(t *testing.T) {
	provider := &fakeLLM{
		streamErr:     errors.New("streaming unsupported"),
		chatResponses: []string{"full answer text"},
	}
	s := NewSynthesizer(provider, 5, nopLogger{})

	records := []*FindingsRecord{{DirectAnswers: []string{"x"}}}
	answer := collect(s.Stream(context.Background(), "q", "", records))

	assert.Equal(t, "full answer text", answer)
}

func TestSynthesizer_TotalFailureClosesWithoutChunks(t *testing.T) {
	provider := &fakeLLM{
		streamErr: errors.New("streaming down"),
		chatErr:   errors.New("completion down"),
	}
	s := NewSynthesizer(provider, 10, nopLogger{})

	records := []*FindingsRecord{{DirectAnswers: []string{"x"}}}
	stream := s.Stream(context.Background(), "q", "", records)

	_, ok := <-stream.Chunks()
	assert.False(t, ok, "channel must close without emitting a chunk")
	assert.ErrorContains(t, stream.Err(), "completion down")
}

func TestSynthesizer_SimulatedStreamChunkLength(t *testing.T) {
	provider := &fakeLLM{
		streamErr:     errors.New("no streaming"),
		chatResponses: []string{"aaaaaaaaaabbbbbbbbbbcc"},
	}
	s := NewSynthesizer(provider, 10, nopLogger{})

	records := []*FindingsRecord{{DirectAnswers: []string{"x"}}}
	stream := s.Stream(context.Background(), "q", "", records)

	var sizes []int
	for chunk := range stream.Chunks() {
		sizes = append(sizes, len(chunk))
	}
	assert.Equal(t, []int{10, 10, 2}, sizes)
}

func TestBuildManagerInput_CarriesConflictingRecords(t *testing.T) {
	records := []*FindingsRecord{
		{
			SearchFocus: "delivery van arrival",
			RelevantFindings: []Finding{
				{Finding: "van arrived at 6:30 PM", Relevance: "timing", Source: "interview_chen.txt"},
			},
		},
		{
			SearchFocus: "loading dock schedule",
			RelevantFindings: []Finding{
				{Finding: "van arrived at 7:15 PM", Relevance: "timing", Source: "security_log.txt"},
			},
		},
	}

	input := BuildManagerInput("When did the van arrive?", "", records)

	// Both times with both sources must reach the synthesis prompt
	assert.Contains(t, input, "6:30 PM")
	assert.Contains(t, input, "7:15 PM")
	assert.Contains(t, input, "interview_chen.txt")
	assert.Contains(t, input, "security_log.txt")
}

func TestBuildManagerInput_MarksFailedWorkers(t *testing.T) {
	records := []*FindingsRecord{
		{SearchFocus: "good focus", DirectAnswers: []string{"found"}},
		{SearchFocus: "bad focus", Failed: true},
	}

	input := BuildManagerInput("q", "", records)

	assert.Contains(t, input, "_failed")
	assert.Contains(t, input, "bad focus")
}
