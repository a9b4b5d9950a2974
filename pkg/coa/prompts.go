package coa

import (
	"encoding/json"
	"fmt"
	"strings"

	"investigative-ai-be/pkg/search"
)

const workerPrompt = `You are a research worker analyzing investigation documents. You are given
retrieved passages from the document corpus and a search focus.

Extract every piece of information relevant to the focus. Return ONLY valid
JSON with this exact structure:
{
    "relevant_findings": [
        {"finding": "what was found", "relevance": "why it matters for the question", "source": "document it came from"}
    ],
    "direct_answers": ["statements that directly answer the question"],
    "related_context": ["surrounding context that may help interpretation"],
    "unanswered_aspects": ["parts of the question the passages do not cover"],
    "entities_not_found": ["names asked about that do not appear in the passages"]
}

Rules:
- ONLY use information present in the provided passages
- NEVER invent names, dates, facts, or relationships
- If the passages contain nothing relevant, return empty arrays and list the
  focus under unanswered_aspects
- Quote sources by document title`

const managerPrompt = `You are the lead investigator synthesizing findings from multiple research
workers. Each worker searched the document corpus from a different angle and
reported structured findings.

Write a clear, professional answer to the user's question in markdown.

MARKDOWN FORMATTING RULES:
- Use ## for main section headers, ### for subsections
- Use **bold** for key names, dates, and important facts
- Use *italics* for sources and citations
- Use > for direct quotes
- Use - for bullet lists, with a blank line before the list
- Include a blank line after headers and between paragraphs

CONTENT GUIDELINES:
- Organize around what the user asked, most important findings first
- If workers surfaced conflicting information, call out the conflict
  explicitly and cite both sides
- Always cite sources when available
- Acknowledge limitations when the findings do not fully answer the question

CRITICAL ANTI-HALLUCINATION RULES:
- ONLY include information present in the worker findings
- If the findings contain nothing relevant, say so clearly
- NEVER fill gaps with assumptions or general knowledge
- When uncertain, state "The documents do not specify..." rather than guessing`

// maxHistoryContentLen bounds each turn's content when formatted into a
// prompt, to keep token usage predictable.
const maxHistoryContentLen = 500

// FormatHistory renders conversation turns for inclusion in a prompt.
// Returns "" for empty history.
func FormatHistory(turns []search.HistoryTurn) string {
	if len(turns) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY:\n")
	for _, turn := range turns {
		role := "Assistant"
		if strings.EqualFold(turn.Role, "user") {
			role = "User"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", role, truncate(turn.Content, maxHistoryContentLen))
	}
	b.WriteString("---\n\n")
	return b.String()
}

// BuildWorkerInput assembles the full prompt for one worker pass.
func BuildWorkerInput(question, focus, historyContext string, passages []search.Passage, pass, total int) string {
	var b strings.Builder
	b.WriteString(workerPrompt)
	b.WriteString("\n\n")
	b.WriteString(historyContext)

	b.WriteString("RETRIEVED PASSAGES:\n")
	if len(passages) == 0 {
		b.WriteString("(none)\n")
	}
	for i, p := range passages {
		fmt.Fprintf(&b, "[%d] (%s)\n%s\n\n", i+1, p.Source, p.Content)
	}

	fmt.Fprintf(&b, "\nORIGINAL USER QUESTION:\n%s\n\n", question)
	fmt.Fprintf(&b, "YOUR SEARCH FOCUS:\n%s\n\n", focus)
	fmt.Fprintf(&b, "WORKER PASS: %d/%d\n", pass, total)
	b.WriteString("Extract information related to your focus area while keeping the original question in mind.")
	return b.String()
}

// BuildManagerInput assembles the synthesis prompt from all worker records.
func BuildManagerInput(question, historyContext string, records []*FindingsRecord) string {
	type workerOutput struct {
		FindingsRecord
		SearchQuery string `json:"_search_query"`
		Failed      bool   `json:"_failed,omitempty"`
	}

	outputs := make([]workerOutput, len(records))
	for i, r := range records {
		outputs[i] = workerOutput{
			FindingsRecord: *r,
			SearchQuery:    r.SearchFocus,
			Failed:         r.Failed,
		}
	}
	encoded, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		encoded = []byte("[]")
	}

	var b strings.Builder
	b.WriteString(managerPrompt)
	b.WriteString("\n\n")
	b.WriteString(historyContext)
	fmt.Fprintf(&b, "CURRENT QUESTION:\n%s\n\n", question)
	fmt.Fprintf(&b, "WORKER OUTPUTS (JSON):\n%s\n", encoded)
	return b.String()
}
