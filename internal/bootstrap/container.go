package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"sermon-agent-be/internal/config"
	"sermon-agent-be/internal/controller"
	"sermon-agent-be/internal/pkg/logger"
	"sermon-agent-be/internal/repository/memory"
	"sermon-agent-be/internal/repository/unitofwork"
	"sermon-agent-be/internal/service"
	"sermon-agent-be/pkg/agent/composer"
	"sermon-agent-be/pkg/agent/pipeline"
	"sermon-agent-be/pkg/agent/retriever"
	"sermon-agent-be/pkg/agent/router"
	"sermon-agent-be/pkg/agent/state"
	"sermon-agent-be/pkg/embedding"
	"sermon-agent-be/pkg/llm/factory"
	pkgNats "sermon-agent-be/pkg/nats"
)

const eventTopic = "agent.events"

type Container struct {
	ChatController controller.IChatController

	// Background services, run by main.go
	ConsumerService service.IConsumerService

	Logger *logger.ZapLogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	// Embedding provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider(cfg.Ai.OpenAIAPIKey, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.EmbeddingModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)
	}
	embeddingCache := embedding.NewCache(embeddingProvider, cfg.Retriever.EmbeddingCacheSize)

	// LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.AnswerModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (router=%s, answer=%s)", cfg.Ai.LLMProvider, cfg.Ai.RouterModel, cfg.Ai.AnswerModel)

	// NATS
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Pipeline stages
	defaultMode := state.ProfileMode(cfg.Retriever.DefaultProfileMode)
	queryRouter := router.NewRouter(llmProvider, cfg.Ai.RouterModel, sysLogger.Raw())
	sermonRetriever := retriever.NewRetriever(
		embeddingCache,
		service.NewEvidenceSearcher(uowFactory),
		retriever.Options{
			RawTopK:         cfg.Retriever.RawTopK,
			ContextTopK:     cfg.Retriever.ContextTopK,
			SimilarityFloor: cfg.Retriever.SimilarityFloor,
		},
		sysLogger.Raw(),
	)
	answerComposer := composer.NewComposer(llmProvider, cfg.Ai.AnswerModel, sysLogger.Raw())
	turnPipeline := pipeline.NewPipeline(queryRouter, sermonRetriever, answerComposer, defaultMode, sysLogger.Raw())

	// Services
	conversationRepo := memory.NewConversationRepository()
	publisherService := service.NewPublisherService(eventTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, eventTopic, natsPub, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		turnPipeline,
		conversationRepo,
		publisherService,
		defaultMode,
		sysLogger,
	)

	return &Container{
		ChatController:  controller.NewChatController(chatService),
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
