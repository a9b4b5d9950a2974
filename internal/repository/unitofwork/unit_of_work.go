package unitofwork

import (
	"context"

	"investigative-ai-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DocumentRepository() contract.DocumentRepository
	ChunkEmbeddingRepository() contract.ChunkEmbeddingRepository
	GraphExtractionRepository() contract.GraphExtractionRepository
}
