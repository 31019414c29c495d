package langchain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
)

func embeddingServer(t *testing.T, vec []float32, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "model not loaded", "type": "server_error"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "nomic-embed-text",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
}

func newTestEmbedder(t *testing.T, url string) *Embedder {
	t.Helper()
	e, err := NewEmbedder(&Config{BaseURL: url, Model: "nomic-embed-text", Logger: zap.NewNop()})
	require.NoError(t, err)
	return e
}

func TestEmbedder_Embed(t *testing.T) {
	server := embeddingServer(t, []float32{0.25, -0.5, 1}, http.StatusOK)
	defer server.Close()

	res, err := newTestEmbedder(t, server.URL).Embed(context.Background(), "giày sneaker")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, res.Embedding)
	assert.Zero(t, res.TotalTokens)
}

func TestEmbedder_ProviderError(t *testing.T) {
	server := embeddingServer(t, nil, http.StatusInternalServerError)
	defer server.Close()

	_, err := newTestEmbedder(t, server.URL).Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingProviderError))
}

func TestEmbedder_HealthCheck(t *testing.T) {
	server := embeddingServer(t, []float32{1}, http.StatusOK)
	defer server.Close()

	assert.NoError(t, newTestEmbedder(t, server.URL).HealthCheck(context.Background()))
}
