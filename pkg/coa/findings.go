package coa

import (
	"encoding/json"
	"strings"
)

// Finding is one piece of evidence a worker pulled from the corpus.
type Finding struct {
	Finding   string `json:"finding"`
	Relevance string `json:"relevance"`
	Source    string `json:"source"`
}

// FindingsRecord is the structured output contract of a worker pass.
// A record is produced for every pass: provider errors, timeouts and
// unparseable model output all degrade to an empty record with Failed set,
// never to an error return.
type FindingsRecord struct {
	RelevantFindings  []Finding `json:"relevant_findings"`
	DirectAnswers     []string  `json:"direct_answers"`
	RelatedContext    []string  `json:"related_context"`
	UnansweredAspects []string  `json:"unanswered_aspects"`
	EntitiesNotFound  []string  `json:"entities_not_found,omitempty"`

	SearchFocus string `json:"-"`
	Failed      bool   `json:"-"`
}

// Empty reports whether the record carries no usable evidence.
func (r *FindingsRecord) Empty() bool {
	return len(r.RelevantFindings) == 0 && len(r.DirectAnswers) == 0 && len(r.RelatedContext) == 0
}

// ParseFindings decodes a worker's raw model output into a FindingsRecord.
// Markdown code fences around the JSON are tolerated. Anything that still
// fails to decode yields an empty record with Failed set.
func ParseFindings(raw string) *FindingsRecord {
	text := StripCodeFences(strings.TrimSpace(raw))

	var record FindingsRecord
	if err := json.Unmarshal([]byte(text), &record); err != nil {
		return &FindingsRecord{Failed: true}
	}
	return &record
}

// StripCodeFences removes a surrounding markdown code fence, if present.
func StripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	var inner []string
	inBlock := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```") && !inBlock:
			inBlock = true
		case strings.HasPrefix(line, "```") && inBlock:
			return strings.Join(inner, "\n")
		case inBlock:
			inner = append(inner, line)
		}
	}
	return strings.Join(inner, "\n")
}

// UsableFindings reports whether at least one record carries evidence.
func UsableFindings(records []*FindingsRecord) bool {
	for _, r := range records {
		if r != nil && !r.Failed && !r.Empty() {
			return true
		}
	}
	return false
}
