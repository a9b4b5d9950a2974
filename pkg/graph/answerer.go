package graph

import (
	"context"
	"fmt"
	"strings"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/llm"
)

const emptyGraphResponse = "## Knowledge Graph Is Empty\n\n" +
	"No documents have been processed into the knowledge graph yet. " +
	"Upload documents first, then ask again."

const synthesisSystemPrompt = `You answer questions using ONLY the structured knowledge-graph data provided.
Rules:
- Use only the facts, entities, claims and events in the data. Never add outside knowledge.
- Cite the source document for every fact, like (Source: document name).
- Format the answer in clean markdown with headers and lists where they help.
- When the data shows differing statements about the same subject, present both sides with their sources.
- If the data does not answer the question, say so plainly.`

// Answerer serves exhaustive questions directly from the aggregated
// graph. Each category gets a deterministic markdown digest of the
// relevant slice of the graph, which a model pass then shapes into the
// final answer. On model failure the digest itself is the answer.
type Answerer struct {
	store  *Store
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewAnswerer(store *Store, provider llm.LLMProvider, log logger.ILogger) *Answerer {
	return &Answerer{store: store, llm: provider, logger: log}
}

func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	agg, err := a.store.Aggregate(ctx)
	if err != nil {
		return "", err
	}
	if agg.Empty() {
		return emptyGraphResponse, nil
	}

	category := Category(question, agg)
	digest := a.digestFor(category, question, agg)

	a.logger.Info("GraphAnswerer", "Answering from knowledge graph", map[string]interface{}{
		"category":  category,
		"documents": len(agg.Documents),
		"entities":  len(agg.Entities),
		"conflicts": len(agg.Conflicts),
	})

	return a.synthesize(ctx, question, digest)
}

func (a *Answerer) digestFor(category, question string, agg *Aggregate) string {
	switch category {
	case CategoryConflicts:
		return digestConflicts(agg)
	case CategoryEntities:
		if matches := findMatchingEntities(extractPotentialNames(question), agg.Entities); len(matches) > 0 {
			return digestSpecificEntities(matches, agg)
		}
		return digestEntities(agg)
	case CategoryEvents:
		return digestEvents(agg)
	case CategorySummary:
		return digestSummary(agg)
	default:
		return digestGeneral(agg)
	}
}

// synthesize shapes the digest into a direct answer. The digest is
// already well-formed markdown, so a failed model call degrades
// gracefully to it.
func (a *Answerer) synthesize(ctx context.Context, question, digest string) (string, error) {
	messages := []llm.Message{
		{Role: "system", Content: synthesisSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("QUESTION: %s\n\nKNOWLEDGE GRAPH DATA:\n%s", question, digest)},
	}
	answer, err := a.llm.Chat(ctx, messages, llm.WithTemperature(0.3))
	if err != nil {
		a.logger.Warn("GraphAnswerer", "Synthesis failed, returning raw digest", map[string]interface{}{
			"error": err.Error(),
		})
		return digest, nil
	}
	if strings.TrimSpace(answer) == "" {
		return digest, nil
	}
	return answer, nil
}

func digestConflicts(agg *Aggregate) string {
	var b strings.Builder
	b.WriteString("## Potential Inconsistencies\n\n")
	if len(agg.Conflicts) == 0 {
		b.WriteString("No differing statements about the same subject were found across the documents.\n")
		return b.String()
	}
	for i, c := range agg.Conflicts {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, c.Subject)
		fmt.Fprintf(&b, "%s\n\n", c.Description)
		for _, claim := range c.Claims {
			fmt.Fprintf(&b, "- %s", claim.Claim)
			if claim.Quote != "" {
				fmt.Fprintf(&b, " (\"%s\")", claim.Quote)
			}
			fmt.Fprintf(&b, " (Source: %s)\n", claim.Source)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func digestEntities(agg *Aggregate) string {
	var b strings.Builder
	b.WriteString("## Entities Across All Documents\n\n")

	byType := make(map[string][]entity.GraphEntity)
	var typeOrder []string
	for _, e := range agg.Entities {
		t := e.Type
		if t == "" {
			t = "Other"
		}
		if _, seen := byType[t]; !seen {
			typeOrder = append(typeOrder, t)
		}
		byType[t] = append(byType[t], e)
	}

	for _, t := range typeOrder {
		fmt.Fprintf(&b, "### %s\n\n", t)
		for _, e := range byType[t] {
			fmt.Fprintf(&b, "- **%s**", e.Name)
			if e.Description != "" {
				fmt.Fprintf(&b, ": %s", e.Description)
			}
			fmt.Fprintf(&b, " (Source: %s)\n", e.Source)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total: %d entities across %d document(s).\n", len(agg.Entities), len(agg.Documents))
	return b.String()
}

func digestSpecificEntities(matches []entity.GraphEntity, agg *Aggregate) string {
	var b strings.Builder
	for _, e := range matches {
		fmt.Fprintf(&b, "## %s (%s)\n\n", e.Name, e.Type)
		if e.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", e.Description)
		}
		fmt.Fprintf(&b, "Appears in: %s\n\n", e.Source)

		nameWords := wordSet(normalizeForMatching(e.Name))

		var claims []entity.GraphClaim
		for _, c := range agg.Claims {
			if overlaps(nameWords, wordSet(normalizeForMatching(c.Subject))) {
				claims = append(claims, c)
			}
		}
		if len(claims) > 0 {
			b.WriteString("### Statements and Claims\n\n")
			for _, c := range claims {
				fmt.Fprintf(&b, "- %s", c.Claim)
				if c.Quote != "" {
					fmt.Fprintf(&b, " (\"%s\")", c.Quote)
				}
				fmt.Fprintf(&b, " (Source: %s)\n", c.Source)
			}
			b.WriteString("\n")
		}

		var events []entity.GraphEvent
		for _, ev := range agg.Events {
			for _, person := range ev.PeopleInvolved {
				if overlaps(nameWords, wordSet(normalizeForMatching(person))) {
					events = append(events, ev)
					break
				}
			}
		}
		if len(events) > 0 {
			b.WriteString("### Related Events\n\n")
			for _, ev := range events {
				if ev.Date != "" {
					fmt.Fprintf(&b, "- **%s**: %s (Source: %s)\n", ev.Date, ev.Description, ev.Source)
				} else {
					fmt.Fprintf(&b, "- %s (Source: %s)\n", ev.Description, ev.Source)
				}
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func digestEvents(agg *Aggregate) string {
	var b strings.Builder
	b.WriteString("## Events and Timeline\n\n")
	if len(agg.Events) == 0 {
		b.WriteString("No dated events were extracted from the documents.\n")
		return b.String()
	}
	for _, ev := range agg.Events {
		date := ev.Date
		if date == "" {
			date = "Undated"
		}
		fmt.Fprintf(&b, "- **%s**: %s", date, ev.Description)
		if len(ev.PeopleInvolved) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(ev.PeopleInvolved, ", "))
		}
		if ev.Location != "" {
			fmt.Fprintf(&b, " @ %s", ev.Location)
		}
		fmt.Fprintf(&b, " (Source: %s)\n", ev.Source)
	}
	return b.String()
}

func digestSummary(agg *Aggregate) string {
	var b strings.Builder
	b.WriteString("## Corpus Summary\n\n")
	fmt.Fprintf(&b, "Documents: %s\n\n", strings.Join(agg.Documents, ", "))
	fmt.Fprintf(&b, "Extracted: %d entities, %d claims, %d events, %d key facts, %d potential inconsistencies.\n\n",
		len(agg.Entities), len(agg.Claims), len(agg.Events), len(agg.KeyFacts), len(agg.Conflicts))

	if len(agg.KeyFacts) > 0 {
		b.WriteString("### Key Facts\n\n")
		for _, f := range agg.KeyFacts {
			fmt.Fprintf(&b, "- %s (Source: %s)\n", f.Fact, f.Source)
		}
		b.WriteString("\n")
	}
	if len(agg.Events) > 0 {
		b.WriteString("### Events\n\n")
		for _, ev := range agg.Events {
			fmt.Fprintf(&b, "- %s: %s (Source: %s)\n", ev.Date, ev.Description, ev.Source)
		}
		b.WriteString("\n")
	}
	if len(agg.Conflicts) > 0 {
		b.WriteString("### Potential Inconsistencies\n\n")
		for _, c := range agg.Conflicts {
			fmt.Fprintf(&b, "- %s (%s)\n", c.Subject, c.Description)
		}
	}
	return b.String()
}

func digestGeneral(agg *Aggregate) string {
	var b strings.Builder
	b.WriteString(digestSummary(agg))
	b.WriteString("\n")
	b.WriteString(digestEntities(agg))
	return b.String()
}
