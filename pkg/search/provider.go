package search

import (
	"context"
	"errors"
)

// Sentinel errors every Provider implementation maps its backend failures to.
var (
	ErrProviderUnavailable = errors.New("search provider unavailable")
	ErrTimeout             = errors.New("search timed out")
	ErrRateLimited         = errors.New("search rate limited")
)

// Passage is one retrieved excerpt from the corpus.
type Passage struct {
	Content    string
	Source     string // document title
	Similarity float64
}

// HistoryTurn carries prior conversation context into a search, for
// providers that can use it to bias retrieval.
type HistoryTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Provider retrieves passages relevant to a query.
type Provider interface {
	Search(ctx context.Context, query string, history []HistoryTurn) ([]Passage, error)
}
