package coa

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"investigative-ai-be/pkg/search"

	"github.com/stretchr/testify/assert"
)

func TestShouldExpandQuery(t *testing.T) {
	tests := []struct {
		question string
		expand   bool
	}{
		{"Who is Sarah?", false},
		{"What happened?", false},
		{"What is the relationship between the van driver and the warehouse?", true},
		{"What did Sarah Chen tell Marcus Webb about the missing shipment?", true},
		{"Summarize the timeline of deliveries and who signed for each one", true},
		{"Describe exactly what the security guard observed near the loading dock that evening in detail", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expand, ShouldExpandQuery(tt.question), tt.question)
	}
}

func TestDecomposeQuery_SimpleQuestionSkipsModel(t *testing.T) {
	provider := &fakeLLM{}

	focuses, expanded := DecomposeQuery(context.Background(), provider, "Who is Sarah?", 4, false)

	assert.False(t, expanded)
	assert.Equal(t, []string{"Who is Sarah?", "Who is Sarah?", "Who is Sarah?", "Who is Sarah?"}, focuses)
	assert.Equal(t, 0, provider.chatCalls)
}

func TestDecomposeQuery_ParsesModelQueries(t *testing.T) {
	provider := &fakeLLM{chatResponses: []string{`["van timing", "warehouse access", "driver identity", "witness accounts"]`}}

	focuses, expanded := DecomposeQuery(context.Background(), provider, "irrelevant", 4, true)

	assert.True(t, expanded)
	assert.Equal(t, []string{"van timing", "warehouse access", "driver identity", "witness accounts"}, focuses)
}

func TestDecomposeQuery_PadsShortModelOutput(t *testing.T) {
	provider := &fakeLLM{chatResponses: []string{`["only one"]`}}

	focuses, expanded := DecomposeQuery(context.Background(), provider, "the question", 4, true)

	assert.True(t, expanded)
	assert.Equal(t, []string{"only one", "the question", "the question", "the question"}, focuses)
}

func TestDecomposeQuery_ModelFailureFallsBack(t *testing.T) {
	provider := &fakeLLM{chatErr: errors.New("model down")}

	focuses, expanded := DecomposeQuery(context.Background(), provider, "the question", 3, true)

	assert.False(t, expanded)
	assert.Equal(t, []string{"the question", "the question", "the question"}, focuses)
}

func TestFormatHistory_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("x", 1000)
	formatted := FormatHistory([]search.HistoryTurn{
		{Role: "user", Content: long},
		{Role: "assistant", Content: "short answer"},
	})

	assert.Contains(t, formatted, "User: "+strings.Repeat("x", 500)+"...")
	assert.NotContains(t, formatted, strings.Repeat("x", 501))
	assert.Contains(t, formatted, "Assistant: short answer")
}

func TestFormatHistory_EmptyHistory(t *testing.T) {
	assert.Equal(t, "", FormatHistory(nil))
}

func TestFormatHistory_TruncationKeepsMultiByteRunesIntact(t *testing.T) {
	formatted := FormatHistory([]search.HistoryTurn{
		{Role: "user", Content: strings.Repeat("é", 600)},
	})

	assert.True(t, utf8.ValidString(formatted))
	assert.Contains(t, formatted, strings.Repeat("é", 500)+"...")
}

func TestTruncate_SlicesByRunes(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefgh", 4))

	got := truncate(strings.Repeat("é", 10), 4)
	assert.Equal(t, "éééé...", got)
	assert.True(t, utf8.ValidString(got))
}
