package ragcore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/ai/mock"
	"github.com/poiesic/ragcore/config"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/query"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Index.Path = filepath.Join(dir, "test.idx")
	cfg.Store.Path = filepath.Join(dir, "store")
	cfg.Chunking.Size = 40
	cfg.Chunking.Overlap = 10
	return cfg
}

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func openWorkspace(t *testing.T, cfg *config.Config) (*Workspace, *mock.MockProvider) {
	t.Helper()
	provider := mock.NewMockProvider().(*mock.MockProvider)
	ws, err := Open(cfg, WithProvider(provider), WithInMemoryStore())
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws, provider
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"ollama", ai.BackendOllama},
		{"openai", ai.BackendOpenAI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(ai.NewConfig(ai.WithBackend(tt.backend)))
			require.NoError(t, err)
			require.NotNil(t, provider.Embedder())
			require.NotNil(t, provider.Generator())
			assert.NoError(t, provider.Close())
		})
	}

	_, err := NewProvider(ai.NewConfig(ai.WithBackend("bedrock")))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Chunking.Overlap = cfg.Chunking.Size

	_, err := Open(cfg, WithProvider(mock.NewMockProvider()), WithInMemoryStore())
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestOpen_DiskStore(t *testing.T) {
	cfg := testConfig(t)
	ws, err := Open(cfg, WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	require.NoError(t, ws.Close())

	info, err := os.Stat(cfg.Store.Path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWorkspace_IngestAndAsk(t *testing.T) {
	cfg := testConfig(t)
	ws, provider := openWorkspace(t, cfg)
	ctx := context.Background()

	dir := t.TempDir()
	writeFile(t, dir, "warranty.txt", "The warranty covers all manufacturing defects for two years.")
	writeFile(t, dir, "returns.md", "Returns are accepted within thirty days of delivery.")

	result, err := ws.Ingest(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Documents)
	assert.Greater(t, result.Chunks, 2)

	_, err = os.Stat(cfg.Index.Path)
	require.NoError(t, err, "index is saved")

	manifest, err := ws.Manifest(ctx)
	require.NoError(t, err)
	require.NotNil(t, manifest)
	assert.Equal(t, cfg.AI.EmbeddingModel, manifest.EmbeddingModel)
	assert.Equal(t, result.Chunks, manifest.Chunks)
	assert.Equal(t, mock.DefaultDimension, manifest.Dimension)

	docs, err := ws.Documents().ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "returns.md", docs[0].ID)

	provider.GetMockGenerator().Answer = "Two years."
	answer, err := ws.Ask(ctx, "How long is the warranty?")
	require.NoError(t, err)
	assert.Equal(t, "Two years.", answer.Answer)
	assert.NotEmpty(t, answer.UsedChunks)
	assert.LessOrEqual(t, len(answer.UsedChunks), cfg.Query.K)

	call, ok := provider.GetMockGenerator().LastCall()
	require.True(t, ok)
	assert.Equal(t, query.Instruction, call.Instruction)
}

func TestWorkspace_ReingestUsesCache(t *testing.T) {
	cfg := testConfig(t)
	ws, provider := openWorkspace(t, cfg)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "notes.txt", "Cached embeddings make re-ingesting unchanged files free.")

	_, err := ws.Ingest(ctx, path)
	require.NoError(t, err)
	embedded := provider.GetMockEmbedder().TextCount()

	result, err := ws.Ingest(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, result.Embedded)
	assert.Equal(t, result.Chunks, result.CacheHits)
	assert.Equal(t, embedded, provider.GetMockEmbedder().TextCount())
}

func TestWorkspace_IngestNothing(t *testing.T) {
	ws, _ := openWorkspace(t, testConfig(t))

	_, err := ws.Ingest(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestWorkspace_AskWithoutIndex(t *testing.T) {
	ws, _ := openWorkspace(t, testConfig(t))

	_, err := ws.Ask(context.Background(), "anything?")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWorkspace_Reembed(t *testing.T) {
	cfg := testConfig(t)
	ws, provider := openWorkspace(t, cfg)
	ctx := context.Background()
	path := writeFile(t, t.TempDir(), "doc.txt", "Re-embedding keeps every chunk in its original position.")

	original, err := ws.Ingest(ctx, path)
	require.NoError(t, err)
	before := original.Index.Chunks()

	cfg.AI.EmbeddingModel = "new-model"
	cfg.Chunking.Size = 500
	provider.GetMockEmbedder().Dimension = 8

	result, err := ws.Reembed(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, before, result.Index.Chunks())
	assert.Equal(t, 8, result.Index.Dimension())

	loaded, err := ws.LoadIndex()
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Dimension())

	manifest, err := ws.Manifest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new-model", manifest.EmbeddingModel)
	assert.Equal(t, 40, manifest.ChunkSize, "chunking of the re-embedded chunks is kept")
	assert.Equal(t, 10, manifest.Overlap)

	old, err := ws.EmbeddingCache().GetEmbeddings(ctx, "all-minilm", []string{before[0].Text})
	require.NoError(t, err)
	assert.Nil(t, old[0], "old model vectors were purged")
}

func TestWorkspace_Close(t *testing.T) {
	provider := mock.NewMockProvider().(*mock.MockProvider)
	ws, err := Open(testConfig(t), WithProvider(provider), WithInMemoryStore())
	require.NoError(t, err)

	require.NoError(t, ws.Close())
	assert.True(t, provider.Closed())
}
