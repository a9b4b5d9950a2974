package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"investigative-ai-be/internal/entity"
	"investigative-ai-be/internal/repository/unitofwork"
	"investigative-ai-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.DocumentRepository())
	assert.NotNil(t, uow.ChunkEmbeddingRepository())
	assert.NotNil(t, uow.GraphExtractionRepository())

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)
	t.Log("Successfully connected to DB and initialized UnitOfWork Factory")

	t.Run("Check Document Repository", func(t *testing.T) {
		docs, err := uow.DocumentRepository().FindAll(context.Background())
		assert.NoError(t, err)
		t.Logf("Document count: %d", len(docs))
	})

	t.Run("Check Graph Extraction Repository", func(t *testing.T) {
		extractions, err := uow.GraphExtractionRepository().FindAll(context.Background())
		assert.NoError(t, err)
		t.Logf("Graph extraction count: %d", len(extractions))
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	ctx := context.Background()

	uow := uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	defer uow.Rollback()

	doc := &entity.Document{
		Id:        uuid.New(),
		Title:     "integration-test.txt",
		Content:   "The delivery van arrived at the warehouse.",
		CreatedAt: time.Now(),
	}
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		t.Fatalf("Failed to create document: %v", err)
	}

	found, err := uow.DocumentRepository().FindById(ctx, doc.Id)
	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, "integration-test.txt", found.Title)

	missing, err := uow.DocumentRepository().FindById(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, missing)

	// Rollback via defer keeps the database clean
}
