package knowledge

import (
	"context"
	"errors"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	DefaultEmbeddingModel = "nomic-embed-text"
	EmbeddingDimensions   = 768
)

var errEmptyEmbedding = errors.New("embedding model returned an empty vector")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type OllamaEmbedder struct {
	cli   *api.Client
	model string
}

func NewOllamaEmbedder(cli *api.Client, model string) *OllamaEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OllamaEmbedder{cli: cli, model: model}
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := &api.EmbeddingRequest{
		Model:     e.model,
		Prompt:    text,
		KeepAlive: &api.Duration{Duration: 60 * time.Minute},
	}
	resp, err := e.cli.Embeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, errEmptyEmbedding
	}

	emb32 := make([]float32, len(resp.Embedding))
	for i, v := range resp.Embedding {
		emb32[i] = float32(v)
	}
	return emb32, nil
}
