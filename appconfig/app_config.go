package appconfig

import (
	"os"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
)

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	MongoURI string `env:"MONGO_URI" ini:"mongo_uri"`
	Tenant   string `ini:"tenant"`

	HTTPPort string `env:"HTTP-PORT" ini:"http_port"`
	GRPCPort string `env:"GRPC-PORT" ini:"grpc_port"`

	AgentModel     string `ini:"agent_model"`
	SummaryModel   string `ini:"summary_model"`
	EmbeddingModel string `ini:"embedding_model"`

	MaxIterations       int `ini:"max_iterations"`
	MaxExecutionSeconds int `ini:"max_execution_seconds"`
	SummarizeThreshold  int `ini:"summarize_threshold"`
	RecentTurns         int `ini:"recent_turns"`
	ArchiveMaxTurns     int `ini:"archive_max_turns"`
	TokenDelayMs        int `ini:"token_delay_ms"`

	MarketDataURL string `env:"MARKET-DATA-URL" ini:"market_data_url"`
	SoilDataURL   string `env:"SOIL-DATA-URL" ini:"soil_data_url"`
	KCCDataURL    string `env:"KCC-DATA-URL" ini:"kcc_data_url"`
	NewsURL       string `ini:"news_url"`

	SearchTextK         int `ini:"search_text_k"`
	SearchVectorK       int `ini:"search_vector_k"`
	SearchNumCandidates int `ini:"search_num_candidates"`
	IngestConcurrency   int `ini:"ingest_concurrency"`
}

func (c *AppConfig) MaxExecutionTime() time.Duration {
	return time.Duration(c.MaxExecutionSeconds) * time.Second
}

// TokenDelay is the pause between streamed words. Negative values disable pacing.
func (c *AppConfig) TokenDelay() time.Duration {
	if c.TokenDelayMs < 0 {
		return 0
	}
	return time.Duration(c.TokenDelayMs) * time.Millisecond
}

// ResolveMongoURI prefers the MONGO_URI environment variable, which is what
// odm.ProvideMongoClient dials, over mongo_uri from config.ini.
func (c *AppConfig) ResolveMongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}
	return c.MongoURI
}
