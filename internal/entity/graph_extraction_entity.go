package entity

import (
	"time"

	"github.com/google/uuid"
)

// GraphEntity is one person, organization, location, date or amount
// extracted from a document.
type GraphEntity struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // Person|Organization|Location|Date|Money|Other
	Description string   `json:"description"`
	Mentions    []string `json:"mentions"`
	Source      string   `json:"source"`
}

// GraphClaim is an assertion, statement or piece of testimony.
type GraphClaim struct {
	Subject string `json:"subject"`
	Claim   string `json:"claim"`
	Quote   string `json:"quote"`
	Context string `json:"context"`
	Source  string `json:"source"`
}

// GraphEvent captures anything with a temporal or sequential nature.
type GraphEvent struct {
	Date           string   `json:"date"`
	Description    string   `json:"description"`
	PeopleInvolved []string `json:"people_involved"`
	Location       string   `json:"location"`
	Source         string   `json:"source"`
}

type GraphFact struct {
	Fact   string `json:"fact"`
	Source string `json:"source"`
}

// GraphConflict is a potential inconsistency between claims. Conflicts are
// computed across documents at query time, never persisted.
type GraphConflict struct {
	Subject     string       `json:"subject"`
	Type        string       `json:"type"`
	Claims      []GraphClaim `json:"claims"`
	Sources     []string     `json:"sources"`
	Description string       `json:"description"`
}

// GraphExtraction holds the structured data extracted from one document at
// ingestion time.
type GraphExtraction struct {
	Id            uuid.UUID
	DocumentId    uuid.UUID
	DocumentTitle string
	Entities      []GraphEntity
	Claims        []GraphClaim
	Events        []GraphEvent
	KeyFacts      []GraphFact
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
