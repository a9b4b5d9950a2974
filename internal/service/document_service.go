package service

import (
	"context"
	"encoding/json"
	"time"

	"investigative-ai-be/internal/dto"
	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/internal/repository/specification"
	"investigative-ai-be/internal/repository/unitofwork"
	"investigative-ai-be/pkg/events"
	pktNats "investigative-ai-be/pkg/nats"

	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

// Upload stores the raw document and queues it for chunking, embedding
// and graph extraction. The heavy processing runs in the consumer.
func (s *documentService) Upload(ctx context.Context, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document := entity.Document{
		Id:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	msgJson, err := json.Marshal(dto.PublishEmbedDocumentMessage{DocumentId: document.Id})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		return nil, err
	}

	s.logger.Info("DocumentService", "Document uploaded and queued", map[string]interface{}{
		"document_id": document.Id,
		"title":       document.Title,
		"size":        len(document.Content),
	})
	return &dto.UploadDocumentResponse{Id: document.Id}, nil
}

func (s *documentService) List(ctx context.Context) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, 0, len(documents))
	for _, doc := range documents {
		responses = append(responses, toDocumentResponse(doc))
	}
	return responses, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, nil // Not found
	}
	return toDocumentResponse(document), nil
}

// Delete removes the document together with its embeddings and graph
// extraction in one transaction, then announces the corpus change.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindById(ctx, id)
	if err != nil {
		return err
	}
	if document == nil {
		return nil
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChunkEmbeddingRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.GraphExtractionRepository().DeleteByDocumentId(ctx, id); err != nil {
		return err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	// Notification is auxiliary, a publish failure never fails the request
	if s.eventPublisher != nil {
		evt := events.NewDocumentRemoved(document.Id.String(), document.Title)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("DocumentService", "Failed to publish DOCUMENT_REMOVED event", map[string]interface{}{
				"document_id": document.Id,
				"error":       err.Error(),
			})
		}
	}

	s.logger.Info("DocumentService", "Document deleted", map[string]interface{}{
		"document_id": id,
		"title":       document.Title,
	})
	return nil
}

func toDocumentResponse(doc *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:         doc.Id,
		Title:      doc.Title,
		ChunkCount: doc.ChunkCount,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}
