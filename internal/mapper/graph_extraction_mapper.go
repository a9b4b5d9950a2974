package mapper

import (
	"encoding/json"
	"time"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/model"

	"gorm.io/datatypes"
)

type GraphExtractionMapper struct{}

func NewGraphExtractionMapper() *GraphExtractionMapper {
	return &GraphExtractionMapper{}
}

func (m *GraphExtractionMapper) ToEntity(e *model.GraphExtraction) *entity.GraphExtraction {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	out := &entity.GraphExtraction{
		Id:            e.Id,
		DocumentId:    e.DocumentId,
		DocumentTitle: e.DocumentTitle,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     updatedAt,
	}

	// Malformed JSON columns degrade to empty slices rather than failing the read.
	_ = json.Unmarshal(e.Entities, &out.Entities)
	_ = json.Unmarshal(e.Claims, &out.Claims)
	_ = json.Unmarshal(e.Events, &out.Events)
	_ = json.Unmarshal(e.KeyFacts, &out.KeyFacts)

	return out
}

func (m *GraphExtractionMapper) ToModel(e *entity.GraphExtraction) *model.GraphExtraction {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.GraphExtraction{
		Id:            e.Id,
		DocumentId:    e.DocumentId,
		DocumentTitle: e.DocumentTitle,
		Entities:      marshalJSONColumn(e.Entities),
		Claims:        marshalJSONColumn(e.Claims),
		Events:        marshalJSONColumn(e.Events),
		KeyFacts:      marshalJSONColumn(e.KeyFacts),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     updatedAt,
	}
}

func (m *GraphExtractionMapper) ToEntities(extractions []*model.GraphExtraction) []*entity.GraphExtraction {
	entities := make([]*entity.GraphExtraction, len(extractions))
	for i, e := range extractions {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

func marshalJSONColumn(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}
