package graph

import (
	"testing"

	"investigative-ai-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestComprehensiveQueriesRouteToGraph(t *testing.T) {
	for _, q := range []string{
		"List all people mentioned in the documents",
		"Find all inconsistencies between the witness statements",
		"How many deliveries were logged?",
		"Give me a timeline of events",
		"What do we know about the warehouse?",
	} {
		assert.True(t, isComprehensiveQuery(q), q)
	}
}

func TestDeepAnalysisQueriesStayOnDocuments(t *testing.T) {
	for _, q := range []string{
		"Why did Marcus leave early that night?",
		"What is the connection between the driver and the manager?",
		"Quote what the guard said in his statement",
	} {
		assert.True(t, isDeepAnalysisQuery(q), q)
	}
}

func TestExtractPotentialNames(t *testing.T) {
	names := extractPotentialNames(`What did "Sarah Chen" tell Marcus Webb?`)

	assert.Contains(t, names, "Sarah Chen")
	assert.Contains(t, names, "Marcus Webb")
}

func TestFindMatchingEntities(t *testing.T) {
	entities := []entity.GraphEntity{
		{Name: "Sarah Chen", Type: "Person"},
		{Name: "Meridian Logistics", Type: "Organization"},
		{Name: "Marcus Webb", Type: "Person"},
	}

	// Partial name matches the full entity
	matches := findMatchingEntities([]string{"Sarah"}, entities)
	assert.Len(t, matches, 1)
	assert.Equal(t, "Sarah Chen", matches[0].Name)

	// Exact match
	matches = findMatchingEntities([]string{"Marcus Webb"}, entities)
	assert.Len(t, matches, 1)

	// Unknown name matches nothing
	matches = findMatchingEntities([]string{"Jonathan Pryce"}, entities)
	assert.Empty(t, matches)
}

func TestCategorySelection(t *testing.T) {
	agg := &Aggregate{
		Entities: []entity.GraphEntity{{Name: "Sarah Chen", Type: "Person"}},
	}

	assert.Equal(t, CategoryConflicts, Category("Find all contradictions in the statements", agg))
	assert.Equal(t, CategoryEntities, Category("List all people in the case", agg))
	assert.Equal(t, CategoryEvents, Category("Show the timeline of deliveries", agg))
	assert.Equal(t, CategorySummary, Category("Summarize the documents", agg))
	assert.Equal(t, CategoryGeneral, Category("anything else about the case", agg))
}
