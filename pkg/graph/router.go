package graph

import (
	"context"
	"regexp"
	"strings"

	"investigative-ai-be/internal/entity"
)

// Routes and categories for exhaustive answering.
const (
	RouteExhaustive = "EXHAUSTIVE"
	RouteSpecific   = "SPECIFIC"

	CategoryConflicts = "conflicts"
	CategoryEntities  = "entities"
	CategoryEvents    = "events"
	CategorySummary   = "summary"
	CategoryGeneral   = "general"
)

var entityLookupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^who is\b`),
	regexp.MustCompile(`^who was\b`),
	regexp.MustCompile(`^who are\b`),
	regexp.MustCompile(`^what is (?:the )?\w+(?:'s| of)\b`),
	regexp.MustCompile(`^tell me about\b`),
	regexp.MustCompile(`^what do (?:we|you) know about\b`),
	regexp.MustCompile(`^information (?:on|about)\b`),
	regexp.MustCompile(`^details (?:on|about)\b`),
	regexp.MustCompile(`^background on\b`),
	regexp.MustCompile(`^profile of\b`),
	regexp.MustCompile(`^describe\b`),
	regexp.MustCompile(`\bwho\b.*\bmentioned\b`),
	regexp.MustCompile(`\bwhat\b.*\brole\b`),
}

var comprehensiveKeywords = []string{
	"all ", "every ", "list ", "find all", "show all", "give me all",
	"inconsistencies", "contradictions", "conflicts", "discrepancies",
	"everyone", "everything", "everybody",
	"summarize all", "summary of all", "summarize the",
	"how many", "count ",
	"complete list", "full list",
	"all people", "all entities", "all events",
	"timeline", "chronology", "sequence of events",
	"overview", "what do we know",
	"what entities", "what people", "what events",
	"list the ", "list all",
}

var deepAnalysisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`why did\b`),
	regexp.MustCompile(`why was\b`),
	regexp.MustCompile(`how did\b`),
	regexp.MustCompile(`what happened\b.*\bwhen\b`),
	regexp.MustCompile(`what.*\bsay about\b`),
	regexp.MustCompile(`what.*\btestif`),
	regexp.MustCompile(`what.*\bstate\b`),
	regexp.MustCompile(`what.*\bclaim\b`),
	regexp.MustCompile(`explain.*\brelationship\b`),
	regexp.MustCompile(`connection between\b`),
	regexp.MustCompile(`evidence\b.*\b(?:that|of|for)\b`),
	regexp.MustCompile(`prove\b`),
	regexp.MustCompile(`according to\b`),
	regexp.MustCompile(`what does.*\b(?:document|report|interview)\b.*\bsay\b`),
	regexp.MustCompile(`quote\b`),
	regexp.MustCompile(`exact\b.*\bword`),
	regexp.MustCompile(`specific.*\bdetail`),
	regexp.MustCompile(`context\b.*\bof\b`),
	regexp.MustCompile(`circumstances\b`),
	regexp.MustCompile(`motive\b`),
	regexp.MustCompile(`reason\b.*\bfor\b`),
}

var quotedNameRe = regexp.MustCompile(`["']([^"']+)["']`)
var capitalizedRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\b`)
var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// Router classifies questions against the extracted knowledge graph.
type Router struct {
	store *Store
}

func NewRouter(store *Store) *Router {
	return &Router{store: store}
}

// Classify decides the handling route for a question.
//
//  1. Comprehensive/list queries go to the knowledge graph.
//  2. Entity lookups go to the graph when the entity is known there,
//     otherwise to document search.
//  3. Deep analysis queries always search the documents.
//  4. Default is document search: the worker pool handles uncertainty well.
func (r *Router) Classify(ctx context.Context, question string) (string, error) {
	if isComprehensiveQuery(question) {
		return RouteExhaustive, nil
	}

	if isEntityLookupQuery(question) {
		agg, err := r.store.Aggregate(ctx)
		if err != nil {
			return "", err
		}
		if len(agg.Entities) > 0 {
			names := extractPotentialNames(question)
			if len(names) > 0 {
				if len(findMatchingEntities(names, agg.Entities)) > 0 {
					return RouteExhaustive, nil
				}
				return RouteSpecific, nil
			}
			// Generic entity query without a specific name
			return RouteExhaustive, nil
		}
	}

	if isDeepAnalysisQuery(question) {
		return RouteSpecific, nil
	}

	return RouteSpecific, nil
}

// Category picks the response shape for an exhaustive answer.
func Category(question string, agg *Aggregate) string {
	lower := strings.ToLower(question)

	for _, kw := range []string{"inconsisten", "contradict", "conflict", "discrepan"} {
		if strings.Contains(lower, kw) {
			return CategoryConflicts
		}
	}

	entityKeywords := []string{
		"people", "person", "everyone", "who", "entities", "organizations",
		"names", "name", "individuals", "suspects", "witnesses", "victims",
	}
	entityPatterns := []string{
		"tell me about", "information on", "details on", "background on",
		"profile of", "what do we know about", "describe",
	}
	for _, kw := range entityKeywords {
		if strings.Contains(lower, kw) {
			return CategoryEntities
		}
	}
	for _, p := range entityPatterns {
		if strings.Contains(lower, p) {
			return CategoryEntities
		}
	}

	if names := extractPotentialNames(question); len(names) > 0 && agg != nil {
		if len(findMatchingEntities(names, agg.Entities)) > 0 {
			return CategoryEntities
		}
	}

	for _, kw := range []string{"timeline", "events", "when", "chronolog", "sequence", "dates"} {
		if strings.Contains(lower, kw) {
			return CategoryEvents
		}
	}

	for _, kw := range []string{"summarize", "summary", "overview", "everything"} {
		if strings.Contains(lower, kw) {
			return CategorySummary
		}
	}

	return CategoryGeneral
}

func isComprehensiveQuery(question string) bool {
	lower := strings.ToLower(strings.TrimSpace(question))
	for _, kw := range comprehensiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isEntityLookupQuery(question string) bool {
	lower := strings.ToLower(strings.TrimSpace(question))
	for _, p := range entityLookupPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

func isDeepAnalysisQuery(question string) bool {
	lower := strings.ToLower(strings.TrimSpace(question))
	for _, p := range deepAnalysisPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// extractPotentialNames finds quoted strings and capitalized word
// sequences that look like proper nouns.
func extractPotentialNames(question string) []string {
	var names []string
	for _, m := range quotedNameRe.FindAllStringSubmatch(question, -1) {
		names = append(names, m[1])
	}
	for _, m := range capitalizedRe.FindAllStringSubmatch(question, -1) {
		names = append(names, m[1])
	}
	return names
}

func normalizeForMatching(text string) string {
	return strings.TrimSpace(strings.ToLower(nonWordRe.ReplaceAllString(text, "")))
}

// findMatchingEntities fuzzily matches names against known entities:
// exact, word-subset either direction, or single-word overlap against a
// multi-word entity name.
func findMatchingEntities(names []string, entities []entity.GraphEntity) []entity.GraphEntity {
	var matches []entity.GraphEntity
	seen := make(map[string]struct{})

	add := func(e entity.GraphEntity) {
		key := normalizeForMatching(e.Name)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		matches = append(matches, e)
	}

	for _, name := range names {
		nameNorm := normalizeForMatching(name)
		nameWords := wordSet(nameNorm)

		for _, e := range entities {
			entityNorm := normalizeForMatching(e.Name)
			entityWords := wordSet(entityNorm)

			if nameNorm == entityNorm {
				add(e)
				continue
			}
			if len(nameWords) > 0 && isSubset(nameWords, entityWords) {
				add(e)
				continue
			}
			if len(entityWords) > 0 && isSubset(entityWords, nameWords) {
				add(e)
				continue
			}
			if len(nameWords) == 1 && len(entityWords) > 1 && overlaps(nameWords, entityWords) {
				add(e)
			}
		}
	}
	return matches
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}

func isSubset(a, b map[string]struct{}) bool {
	if len(a) == 0 {
		return false
	}
	for w := range a {
		if _, ok := b[w]; !ok {
			return false
		}
	}
	return true
}

func overlaps(a, b map[string]struct{}) bool {
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}
