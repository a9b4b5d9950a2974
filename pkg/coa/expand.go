package coa

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"investigative-ai-be/pkg/llm"
)

var multiAspectIndicators = []string{
	" and ", " or ", "including", "such as", "especially",
	"relationship", "connection", "between", "compare",
	"timeline", "sequence", "history", "background",
}

// ShouldExpandQuery decides whether a question benefits from being
// decomposed into diverse search focuses. Simple questions don't.
func ShouldExpandQuery(question string) bool {
	words := strings.Fields(question)
	lower := strings.ToLower(question)

	// Short questions usually don't need expansion
	if len(words) < 6 {
		return false
	}

	// Questions with multiple aspects benefit from expansion
	for _, indicator := range multiAspectIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	// Multiple capitalized words past the first suggest multiple entities
	capsCount := 0
	for _, w := range words[1:] {
		runes := []rune(w)
		if len(runes) > 0 && unicode.IsUpper(runes[0]) {
			capsCount++
		}
	}
	if capsCount >= 2 {
		return true
	}

	// Longer questions usually benefit
	return len(words) >= 12
}

// DecomposeQuery generates n diverse search focuses for a question.
// Returns the focuses and whether expansion was actually used. On any
// failure the original question fills every slot.
func DecomposeQuery(ctx context.Context, provider llm.LLMProvider, question string, n int, forceExpand bool) ([]string, bool) {
	fallback := make([]string, n)
	for i := range fallback {
		fallback[i] = question
	}

	if !forceExpand && !ShouldExpandQuery(question) {
		return fallback, false
	}

	prompt := fmt.Sprintf(`Generate %d different search queries to find information for this investigation question.

RULES:
- Each query should target a DIFFERENT aspect, angle, or entity
- Use DIFFERENT vocabulary to maximize semantic search coverage
- Keep queries focused and specific
- Include variations that might surface edge cases or related context

QUESTION: %s

Return ONLY a valid JSON array of exactly %d search query strings.
Example format: ["query about aspect 1", "query about aspect 2", "query about aspect 3", "query about aspect 4"]`, n, question, n)

	raw, err := provider.Generate(ctx, prompt)
	if err != nil {
		return fallback, false
	}

	text := StripCodeFences(strings.TrimSpace(raw))

	var queries []string
	if err := json.Unmarshal([]byte(text), &queries); err != nil {
		return fallback, false
	}

	// Pad with the original question if the model came up short
	for len(queries) < n {
		queries = append(queries, question)
	}
	return queries[:n], true
}
