package coa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFindings_ValidJSON(t *testing.T) {
	raw := `{
		"relevant_findings": [{"finding": "van seen at 6:30 PM", "relevance": "places the vehicle", "source": "interview.txt"}],
		"direct_answers": ["The van arrived at 6:30 PM"],
		"related_context": [],
		"unanswered_aspects": ["driver identity"]
	}`

	record := ParseFindings(raw)

	assert.False(t, record.Failed)
	assert.Len(t, record.RelevantFindings, 1)
	assert.Equal(t, "interview.txt", record.RelevantFindings[0].Source)
	assert.Equal(t, []string{"The van arrived at 6:30 PM"}, record.DirectAnswers)
	assert.False(t, record.Empty())
}

func TestParseFindings_FencedJSON(t *testing.T) {
	raw := "```json\n{\"direct_answers\": [\"yes\"], \"relevant_findings\": [], \"related_context\": [], \"unanswered_aspects\": []}\n```"

	record := ParseFindings(raw)

	assert.False(t, record.Failed)
	assert.Equal(t, []string{"yes"}, record.DirectAnswers)
}

func TestParseFindings_GarbageYieldsFailedRecord(t *testing.T) {
	record := ParseFindings("I could not produce JSON, sorry.")

	assert.True(t, record.Failed)
	assert.True(t, record.Empty())
}

func TestFindingsRecord_Empty(t *testing.T) {
	assert.True(t, (&FindingsRecord{}).Empty())
	assert.True(t, (&FindingsRecord{UnansweredAspects: []string{"x"}}).Empty())
	assert.False(t, (&FindingsRecord{RelatedContext: []string{"ctx"}}).Empty())
}

func TestUsableFindings(t *testing.T) {
	assert.False(t, UsableFindings(nil))
	assert.False(t, UsableFindings([]*FindingsRecord{
		{Failed: true},
		{UnansweredAspects: []string{"a"}},
		nil,
	}))
	assert.True(t, UsableFindings([]*FindingsRecord{
		{Failed: true},
		{DirectAnswers: []string{"found it"}},
	}))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "plain text", StripCodeFences("plain text"))
}
