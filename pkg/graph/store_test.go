package graph

import (
	"testing"

	"investigative-ai-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEntity_SubsetNamesMerge(t *testing.T) {
	agg := &Aggregate{}

	mergeEntity(agg, entity.GraphEntity{
		Name: "Sarah", Type: "Person", Description: "witness",
		Mentions: []string{"Sarah left at 6:30"}, Source: "interview.txt",
	})
	mergeEntity(agg, entity.GraphEntity{
		Name: "Sarah Chen", Type: "Person", Description: "office worker, left the building at 6:30 PM",
		Mentions: []string{"Ms. Chen stated"}, Source: "security_log.txt",
	})

	require.Len(t, agg.Entities, 1)
	merged := agg.Entities[0]
	assert.Equal(t, "Sarah Chen", merged.Name, "longer name wins")
	assert.Equal(t, "office worker, left the building at 6:30 PM", merged.Description)
	assert.Len(t, merged.Mentions, 2)
	assert.Contains(t, merged.Source, "interview.txt")
	assert.Contains(t, merged.Source, "security_log.txt")
}

func TestMergeEntity_DistinctNamesStaySeparate(t *testing.T) {
	agg := &Aggregate{}

	mergeEntity(agg, entity.GraphEntity{Name: "Sarah Chen", Type: "Person"})
	mergeEntity(agg, entity.GraphEntity{Name: "Marcus Webb", Type: "Person"})

	assert.Len(t, agg.Entities, 2)
}

func TestDetectConflicts_FlagsDifferingClaims(t *testing.T) {
	claims := []entity.GraphClaim{
		{Subject: "delivery van", Claim: "arrived at 6:30 PM", Source: "interview.txt"},
		{Subject: "Delivery Van", Claim: "arrived at 7:15 PM", Source: "security_log.txt"},
		{Subject: "warehouse", Claim: "was locked overnight", Source: "report.txt"},
	}

	conflicts := detectConflicts(claims)

	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, "delivery van", c.Subject)
	assert.Len(t, c.Claims, 2)
	assert.ElementsMatch(t, []string{"interview.txt", "security_log.txt"}, c.Sources)
}

func TestDetectConflicts_IdenticalClaimsAreNotConflicts(t *testing.T) {
	claims := []entity.GraphClaim{
		{Subject: "the van", Claim: "arrived at 6:30 PM", Source: "a.txt"},
		{Subject: "the van", Claim: "Arrived at 6:30 PM!", Source: "b.txt"},
	}

	assert.Empty(t, detectConflicts(claims), "same statement from two sources is corroboration")
}

func TestAppendUnique(t *testing.T) {
	got := appendUnique([]string{"a", "b"}, "B", "c", "", "a")
	assert.Equal(t, []string{"a", "b", "c"}, got)
}
