package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/pkg/coa"
	"investigative-ai-be/pkg/llm"

	"github.com/google/uuid"
)

// maxExtractionChars caps the document text sent to the model in one
// extraction call.
const maxExtractionChars = 50000

const extractionPromptTemplate = `Extract structured information from this document for an investigation knowledge base.

DOCUMENT NAME: %s

DOCUMENT TEXT:
%s

Extract and return ONLY a JSON object with this exact structure:
{
  "entities": [
    {"name": "...", "type": "Person|Organization|Location|Date|Money|Other", "description": "brief description of who/what this is", "mentions": ["exact phrases where mentioned"], "source": "%s"}
  ],
  "claims": [
    {"subject": "who/what the claim is about", "claim": "what is claimed or stated", "quote": "supporting quote from the text", "context": "surrounding context", "source": "%s"}
  ],
  "events": [
    {"date": "date or time reference as written", "description": "what happened", "people_involved": ["names"], "location": "where, if stated", "source": "%s"}
  ],
  "key_facts": [
    {"fact": "a significant standalone fact", "source": "%s"}
  ]
}

Rules:
- Extract ONLY information explicitly present in the text. Never infer or invent.
- Every entity, claim, event and fact must cite this document as its source.
- Capture claims verbatim where possible, especially statements and testimony.
- Include every named person and organization, even minor ones.
- Return valid JSON only, no commentary.`

// extractionPayload mirrors the JSON shape the model is asked for.
type extractionPayload struct {
	Entities []entity.GraphEntity `json:"entities"`
	Claims   []entity.GraphClaim  `json:"claims"`
	Events   []entity.GraphEvent  `json:"events"`
	KeyFacts []entity.GraphFact   `json:"key_facts"`
}

// Extractor builds a document's graph extraction with one structured
// model call at ingestion time.
type Extractor struct {
	llm    llm.LLMProvider
	logger logger.ILogger
}

func NewExtractor(provider llm.LLMProvider, log logger.ILogger) *Extractor {
	return &Extractor{llm: provider, logger: log}
}

// Extract runs the extraction pass for one document.
func (e *Extractor) Extract(ctx context.Context, documentId uuid.UUID, title, text string) (*entity.GraphExtraction, error) {
	if len(text) > maxExtractionChars {
		text = text[:maxExtractionChars]
	}

	prompt := fmt.Sprintf(extractionPromptTemplate, title, text, title, title, title, title)
	raw, err := e.llm.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}},
		llm.WithJSONMode(), llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("graph extraction call: %w", err)
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(coa.StripCodeFences(raw)), &payload); err != nil {
		e.logger.Warn("GraphExtractor", "Unparseable extraction output", map[string]interface{}{
			"document": title,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("parse graph extraction: %w", err)
	}

	now := time.Now()
	return &entity.GraphExtraction{
		Id:            uuid.New(),
		DocumentId:    documentId,
		DocumentTitle: title,
		Entities:      fillSource(payload.Entities, title),
		Claims:        fillClaimSource(payload.Claims, title),
		Events:        fillEventSource(payload.Events, title),
		KeyFacts:      fillFactSource(payload.KeyFacts, title),
		CreatedAt:     now,
	}, nil
}

// The model is asked to cite the document but occasionally omits it.

func fillSource(items []entity.GraphEntity, title string) []entity.GraphEntity {
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = title
		}
	}
	return items
}

func fillClaimSource(items []entity.GraphClaim, title string) []entity.GraphClaim {
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = title
		}
	}
	return items
}

func fillEventSource(items []entity.GraphEvent, title string) []entity.GraphEvent {
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = title
		}
	}
	return items
}

func fillFactSource(items []entity.GraphFact, title string) []entity.GraphFact {
	for i := range items {
		if items[i].Source == "" {
			items[i].Source = title
		}
	}
	return items
}
