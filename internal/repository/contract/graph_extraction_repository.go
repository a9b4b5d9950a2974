package contract

import (
	"context"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/repository/specification"

	"github.com/google/uuid"
)

type GraphExtractionRepository interface {
	// Upsert writes the extraction for a document, replacing any prior one.
	Upsert(ctx context.Context, extraction *entity.GraphExtraction) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindByDocumentId(ctx context.Context, documentId uuid.UUID) (*entity.GraphExtraction, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GraphExtraction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
