package service

import (
	"context"
	"encoding/json"
	"time"

	"investigative-ai-be/internal/dto"
	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/internal/repository/unitofwork"
	"investigative-ai-be/pkg/embedding"
	"investigative-ai-be/pkg/events"
	"investigative-ai-be/pkg/graph"
	pktNats "investigative-ai-be/pkg/nats"
	"investigative-ai-be/pkg/utils"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// Chunking tuned for embedding context limits: 1500 chars with 200 char
// overlap keeps chunks well under the model window.
const (
	chunkSize    = 1500
	chunkOverlap = 200
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	extractor         *graph.Extractor
	graphStore        *graph.Store
	eventPublisher    *pktNats.Publisher
	logger            logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	extractor *graph.Extractor,
	graphStore *graph.Store,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		extractor:         extractor,
		graphStore:        graphStore,
		eventPublisher:    eventPublisher,
		logger:            log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage runs the full ingestion pipeline for one document:
// chunk, embed, store, extract the knowledge graph, announce.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindById(ctx, payload.DocumentId)
	if err != nil {
		cs.logger.Error("ConsumerService", "Failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId,
			"error":       err.Error(),
		})
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		// Deleted between upload and processing
		msg.Ack()
		return
	}

	chunks := utils.SplitText(document.Content, chunkSize, chunkOverlap)
	cs.logger.Info("ConsumerService", "Document split for embedding", map[string]interface{}{
		"document_id": document.Id,
		"chunks":      len(chunks),
	})

	newEmbeddings := make([]*entity.ChunkEmbedding, 0, len(chunks))
	for i, chunk := range chunks {
		res, err := cs.embeddingProvider.Generate(ctx, chunk, embedding.TaskRetrievalDocument)
		if err != nil {
			cs.logger.Error("ConsumerService", "Embedding generation failed", map[string]interface{}{
				"document_id": document.Id,
				"chunk":       i,
				"error":       err.Error(),
			})
			msg.Nack()
			return
		}
		newEmbeddings = append(newEmbeddings, &entity.ChunkEmbedding{
			Id:             uuid.New(),
			Content:        chunk,
			EmbeddingValue: res.Embedding.Values,
			DocumentId:     document.Id,
			ChunkIndex:     i,
			CreatedAt:      time.Now(),
		})
	}

	if err := uow.Begin(ctx); err != nil {
		cs.logger.Error("ConsumerService", "Failed to begin transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	defer uow.Rollback()

	if err := uow.ChunkEmbeddingRepository().DeleteByDocumentId(ctx, document.Id); err != nil {
		cs.logger.Error("ConsumerService", "Failed to delete old embeddings", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}
	if len(newEmbeddings) > 0 {
		if err := uow.ChunkEmbeddingRepository().CreateBulk(ctx, newEmbeddings); err != nil {
			cs.logger.Error("ConsumerService", "Failed to create embeddings", map[string]interface{}{"error": err.Error()})
			msg.Nack()
			return
		}
	}

	now := time.Now()
	document.ChunkCount = len(newEmbeddings)
	document.UpdatedAt = &now
	if err := uow.DocumentRepository().Update(ctx, document); err != nil {
		cs.logger.Error("ConsumerService", "Failed to update document", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	if err := uow.Commit(); err != nil {
		cs.logger.Error("ConsumerService", "Failed to commit transaction", map[string]interface{}{"error": err.Error()})
		msg.Nack()
		return
	}

	// Graph extraction is best-effort: search keeps working without it,
	// only the exhaustive answer path degrades.
	if cs.extractor != nil && cs.graphStore != nil {
		extraction, err := cs.extractor.Extract(ctx, document.Id, document.Title, document.Content)
		if err != nil {
			cs.logger.Warn("ConsumerService", "Graph extraction failed", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		} else if err := cs.graphStore.Save(ctx, extraction); err != nil {
			cs.logger.Warn("ConsumerService", "Graph extraction save failed", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		}
	}

	if cs.eventPublisher != nil {
		evt := events.NewDocumentIngested(document.Id.String(), document.Title, len(newEmbeddings))
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish DOCUMENT_INGESTED event", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		}
	}

	cs.logger.Info("ConsumerService", "Document processed", map[string]interface{}{
		"document_id": document.Id,
		"chunks":      len(newEmbeddings),
	})
	msg.Ack()
}
