package bootstrap

import (
	"log"

	"investigative-ai-be/internal/config"
	"investigative-ai-be/internal/controller"
	"investigative-ai-be/internal/pkg/logger"
	"investigative-ai-be/internal/repository/implementation"
	"investigative-ai-be/internal/repository/unitofwork"
	"investigative-ai-be/internal/service"
	"investigative-ai-be/internal/websocket"
	"investigative-ai-be/pkg/coa"
	"investigative-ai-be/pkg/embedding"
	"investigative-ai-be/pkg/graph"
	"investigative-ai-be/pkg/llm/factory"
	"investigative-ai-be/pkg/search/vector"

	pktNats "investigative-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"
)

// topicEmbedDocument is the internal queue topic that feeds the
// ingestion pipeline.
const topicEmbedDocument = "embed_document"

type Container struct {
	// Controllers
	DocumentController controller.IDocumentController
	AskController      controller.IAskController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub     *websocket.Hub
	WebSocketHandler *websocket.Handler
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider, err := embedding.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.OpenAIAPIKey,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OpenAIAPIKey,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// 4. Knowledge Graph
	graphRepo := implementation.NewGraphExtractionRepository(db)
	graphStore := graph.NewStore(graphRepo, sysLogger)
	graphExtractor := graph.NewExtractor(llmProvider, sysLogger)
	graphRouter := graph.NewRouter(graphStore)
	graphAnswerer := graph.NewAnswerer(graphStore, llmProvider, sysLogger)

	// 5. Chain-of-Agents Pipeline
	searchProvider := vector.NewProvider(embeddingProvider, uowFactory)
	worker := coa.NewWorker(searchProvider, llmProvider, sysLogger)
	coordinator := coa.NewCoordinator(worker, cfg.Coa.PoolSize, sysLogger)
	synthesizer := coa.NewSynthesizer(llmProvider, cfg.Coa.StreamChunkLen, sysLogger)
	orchestrator := coa.NewOrchestrator(
		coordinator,
		synthesizer,
		llmProvider,
		graphRouter,
		graphAnswerer,
		cfg.Coa.QueryExpansion,
		sysLogger,
	)

	// 6. Services
	publisherService := service.NewPublisherService(topicEmbedDocument, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		topicEmbedDocument,
		uowFactory,
		embeddingProvider,
		graphExtractor,
		graphStore,
		natsPub,
		sysLogger,
	)

	documentService := service.NewDocumentService(uowFactory, publisherService, natsPub, sysLogger)
	askService := service.NewAskService(orchestrator, sysLogger)

	notifierService := service.NewNotifierService(natsSub, wsHub, websocket.NewCorpusUpdateMessage, wsLogger)
	if natsSub != nil {
		go notifierService.Start()
	}

	wsHandler := websocket.NewHandler(wsHub, orchestrator, cfg.Coa.MaxTurns, wsLogger)

	// 7. Controllers
	return &Container{
		DocumentController: controller.NewDocumentController(documentService),
		AskController:      controller.NewAskController(askService),

		ConsumerService: consumerService,

		WebSocketHub:     wsHub,
		WebSocketHandler: wsHandler,
	}
}
