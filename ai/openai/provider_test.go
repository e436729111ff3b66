package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/core"
)

func embeddingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(req.Input))
		for i, text := range req.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{float32(len(text)), 0.5}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewProvider(t *testing.T) {
	srv := embeddingServer(t)

	provider, err := NewProvider(ai.NewConfig(
		ai.WithBackend(ai.BackendOpenAI),
		ai.WithHost(srv.URL),
	))
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	assert.NotNil(t, provider.Generator())

	vec, err := provider.Embedder().EmbedText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 0.5}, vec)

	vecs, err := provider.Embedder().EmbedTexts(context.Background(), []string{"a", "abc"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(3), vecs[1][0])
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithBackend(ai.BackendOpenAI), ai.WithEmbeddingModel(""))

	_, err := NewProvider(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = NewEmbedder(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = NewGenerator(cfg)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestToken(t *testing.T) {
	assert.Equal(t, localToken, token(&ai.Config{}))
	assert.Equal(t, "sk-1", token(&ai.Config{APIKey: "sk-1"}))
}
