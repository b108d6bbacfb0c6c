package knowledge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder(t *testing.T) {
	var gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embeddings", r.URL.Path)

		var req api.EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel = req.Model

		if req.Prompt == "empty" {
			json.NewEncoder(w).Encode(api.EmbeddingResponse{})
			return
		}
		json.NewEncoder(w).Encode(api.EmbeddingResponse{Embedding: []float64{0.5, -0.25}})
	}))
	defer server.Close()

	base, err := url.Parse(server.URL)
	require.NoError(t, err)
	e := NewOllamaEmbedder(api.NewClient(base, server.Client()), "")

	emb, err := e.Embed(context.Background(), "wheat rust")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25}, emb)
	assert.Equal(t, DefaultEmbeddingModel, gotModel)

	_, err = e.Embed(context.Background(), "empty")
	assert.ErrorIs(t, err, errEmptyEmbedding)
}
