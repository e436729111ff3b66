package ollama

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

func TestNewProvider_Embeds(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		models = append(models, req.Model)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{float32(len(req.Input)), 1}},
		})
	}))
	defer srv.Close()

	provider, err := NewProvider(ai.NewConfig(ai.WithHost(srv.URL + "/v1")))
	require.NoError(t, err)
	defer provider.Close()

	vecs, err := provider.Embedder().EmbedTexts(context.Background(), []string{"ab", "abcd"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1}, {4, 1}}, vecs)
	assert.Equal(t, []string{"all-minilm", "all-minilm"}, models)
	assert.NotNil(t, provider.Generator())
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(ai.NewConfig(ai.WithGenerationModel("")))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}
