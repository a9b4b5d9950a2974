package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"investigative-ai-be/internal/repository/specification"
	"investigative-ai-be/internal/repository/unitofwork"
	"investigative-ai-be/pkg/embedding"
	"investigative-ai-be/pkg/search"

	"github.com/google/uuid"
)

const (
	defaultLimit     = 8
	defaultThreshold = 0.30
)

// Provider implements search.Provider on top of pgvector cosine search.
type Provider struct {
	embedder    embedding.EmbeddingProvider
	repoFactory unitofwork.RepositoryFactory
	limit       int
	threshold   float64
}

var _ search.Provider = &Provider{}

func NewProvider(embedder embedding.EmbeddingProvider, repoFactory unitofwork.RepositoryFactory) *Provider {
	return &Provider{
		embedder:    embedder,
		repoFactory: repoFactory,
		limit:       defaultLimit,
		threshold:   defaultThreshold,
	}
}

func (p *Provider) Search(ctx context.Context, query string, history []search.HistoryTurn) ([]search.Passage, error) {
	// 1. Embed the query
	resp, err := p.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, p.mapError(fmt.Errorf("embed query: %w", err))
	}

	uow := p.repoFactory.NewUnitOfWork(ctx)
	embeddingRepo := uow.ChunkEmbeddingRepository()

	// 2. Cosine search over the corpus
	scored, err := embeddingRepo.SearchSimilarWithScore(ctx, resp.Embedding.Values, p.limit, p.threshold)
	if err != nil {
		return nil, p.mapError(fmt.Errorf("similarity search: %w", err))
	}
	if len(scored) == 0 {
		return nil, nil
	}

	// 3. Hydrate document titles for source attribution
	idSet := make(map[uuid.UUID]struct{})
	for _, s := range scored {
		idSet[s.Embedding.DocumentId] = struct{}{}
	}
	ids := make([]uuid.UUID, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	docs, err := uow.DocumentRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, p.mapError(fmt.Errorf("hydrate documents: %w", err))
	}
	titles := make(map[uuid.UUID]string, len(docs))
	for _, d := range docs {
		titles[d.Id] = d.Title
	}

	// 4. Dedupe near-identical chunks, keep highest score first (repo orders by score)
	seen := make(map[string]struct{})
	passages := make([]search.Passage, 0, len(scored))
	for _, s := range scored {
		key := strings.TrimSpace(s.Embedding.Content)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		source := titles[s.Embedding.DocumentId]
		if source == "" {
			source = "unknown document"
		}
		passages = append(passages, search.Passage{
			Content:    s.Embedding.Content,
			Source:     source,
			Similarity: s.Similarity,
		})
	}

	return passages, nil
}

func (p *Provider) mapError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", search.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", search.ErrProviderUnavailable, err)
	}
}
