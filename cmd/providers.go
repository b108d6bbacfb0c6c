package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/krishi-boot/agentboot"
	"github.com/SaiNageswarS/krishi-boot/appconfig"
	"github.com/SaiNageswarS/krishi-boot/knowledge"
	"github.com/SaiNageswarS/krishi-boot/language"
	"github.com/SaiNageswarS/krishi-boot/llm"
	"github.com/SaiNageswarS/krishi-boot/memory"
	"github.com/SaiNageswarS/krishi-boot/services"
	"github.com/SaiNageswarS/krishi-boot/tools"
	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// app holds the collaborators shared by every subcommand.
type app struct {
	cfg       *appconfig.AppConfig
	languages *language.Resolver
	mongo     odm.MongoClient
	embedder  *knowledge.OllamaEmbedder
	registry  *tools.Registry
	chat      *services.ChatService
}

func loadConfig() *appconfig.AppConfig {
	dotenv.LoadEnv()

	ccfgg := &appconfig.AppConfig{}
	if err := config.LoadConfig("config.ini", ccfgg); err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	return ccfgg
}

// connectMongo returns nil when neither MONGO_URI nor mongo_uri is set.
// Retrieval and the transcript archive are then disabled.
func connectMongo(ctx context.Context, cfg *appconfig.AppConfig) odm.MongoClient {
	uri := cfg.ResolveMongoURI()
	if uri == "" {
		logger.Info("MONGO_URI not set, knowledge search and session archive are disabled")
		return nil
	}

	// ProvideMongoClient only reads the environment.
	if err := os.Setenv("MONGO_URI", uri); err != nil {
		logger.Fatal("Failed to export MONGO_URI", zap.Error(err))
	}
	mongoClient := odm.ProvideMongoClient()
	if err := knowledge.InitKnowledgeDB(ctx, mongoClient, cfg.Tenant); err != nil {
		logger.Error("Failed to ensure knowledge indexes", zap.Error(err))
	}
	return mongoClient
}

func newEmbedder(cfg *appconfig.AppConfig) *knowledge.OllamaEmbedder {
	ollamaClient, err := api.ClientFromEnvironment()
	if err != nil {
		logger.Fatal("Failed to create Ollama client", zap.Error(err))
	}
	return knowledge.NewOllamaEmbedder(ollamaClient, cfg.EmbeddingModel)
}

func newSearcher(a *app) knowledge.Searcher {
	if a.mongo == nil {
		return nil
	}
	return knowledge.NewHybridSearcher(
		odm.CollectionOf[knowledge.ChunkModel](a.mongo, a.cfg.Tenant),
		odm.CollectionOf[knowledge.ChunkAnnModel](a.mongo, a.cfg.Tenant),
		a.embedder,
		knowledge.WithCandidateLimits(a.cfg.SearchTextK, a.cfg.SearchVectorK, a.cfg.SearchNumCandidates),
	)
}

func newRegistry(cfg *appconfig.AppConfig, searcher knowledge.Searcher) *tools.Registry {
	registry, err := tools.NewFarmRegistry(tools.FarmTools{
		Market:   tools.NewMarketClient(tools.WithMarketURL(cfg.MarketDataURL)),
		Soil:     tools.NewSoilClient(cfg.SoilDataURL),
		News:     tools.NewNewsClient(tools.WithNewsURL(cfg.NewsURL)),
		Searcher: searcher,
	})
	if err != nil {
		logger.Fatal("Failed to register farm tools", zap.Error(err))
	}
	return registry
}

// newChatService falls back to keyword responses when GROQ_API_KEY is missing.
func newChatService(a *app) *services.ChatService {
	var archive *memory.ConversationManager
	if a.mongo != nil {
		archive = memory.NewConversationManager(odm.CollectionOf[memory.Conversation](a.mongo, a.cfg.Tenant), a.cfg.ArchiveMaxTurns)
	}

	groq, err := llm.NewGroqClient(a.cfg.AgentModel)
	if errors.Is(err, llm.ErrMissingAPIKey) {
		logger.Error("GROQ_API_KEY not set, serving fallback responses", zap.Error(err))
		return services.ProvideChatService(nil, nil, a.languages, archive)
	}
	if err != nil {
		logger.Fatal("Failed to create Groq client", zap.Error(err))
	}

	agent, err := agentboot.NewAgentBuilder().
		WithModel(groq).
		WithRegistry(a.registry).
		WithLanguages(a.languages).
		WithMaxIterations(a.cfg.MaxIterations).
		WithMaxExecutionTime(a.cfg.MaxExecutionTime()).
		Build()
	if err != nil {
		logger.Fatal("Failed to build agent", zap.Error(err))
	}

	summarizer := memory.NewContextSummarizer(groq,
		memory.WithSummaryModel(a.cfg.SummaryModel),
		memory.WithSummarizeThreshold(a.cfg.SummarizeThreshold),
		memory.WithRecentTurns(a.cfg.RecentTurns),
	)

	return services.ProvideChatService(agent, summarizer, a.languages, archive)
}

// bootstrap wires the whole stack. withChat is false for commands that only
// need storage and embeddings.
func bootstrap(ctx context.Context, withChat bool) *app {
	cfg := loadConfig()

	languages, err := language.NewResolver()
	if err != nil {
		logger.Fatal("Failed to load language table", zap.Error(err))
	}

	a := &app{
		cfg:       cfg,
		languages: languages,
		mongo:     connectMongo(ctx, cfg),
		embedder:  newEmbedder(cfg),
	}
	if !withChat {
		return a
	}

	a.registry = newRegistry(cfg, newSearcher(a))
	a.chat = newChatService(a)
	return a
}
