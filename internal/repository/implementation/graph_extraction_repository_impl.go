package implementation

import (
	"context"
	"errors"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/mapper"
	"investigative-ai-be/internal/model"
	"investigative-ai-be/internal/repository/contract"
	"investigative-ai-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GraphExtractionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GraphExtractionMapper
}

func NewGraphExtractionRepository(db *gorm.DB) contract.GraphExtractionRepository {
	return &GraphExtractionRepositoryImpl{
		db:     db,
		mapper: mapper.NewGraphExtractionMapper(),
	}
}

func (r *GraphExtractionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GraphExtractionRepositoryImpl) Upsert(ctx context.Context, extraction *entity.GraphExtraction) error {
	m := r.mapper.ToModel(extraction)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"document_title", "entities", "claims", "events", "key_facts", "updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*extraction = *r.mapper.ToEntity(m)
	return nil
}

func (r *GraphExtractionRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("document_id = ?", documentId).Delete(&model.GraphExtraction{}).Error
}

func (r *GraphExtractionRepositoryImpl) FindByDocumentId(ctx context.Context, documentId uuid.UUID) (*entity.GraphExtraction, error) {
	var m model.GraphExtraction
	if err := r.db.WithContext(ctx).First(&m, "document_id = ?", documentId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GraphExtractionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GraphExtraction, error) {
	var models []*model.GraphExtraction
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *GraphExtractionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.GraphExtraction{}).Count(&count).Error
	return count, err
}
