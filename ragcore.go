// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ragcore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/ai/ollama"
	"github.com/poiesic/ragcore/ai/openai"
	"github.com/poiesic/ragcore/config"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/index"
	"github.com/poiesic/ragcore/ingestion"
	"github.com/poiesic/ragcore/loader"
	"github.com/poiesic/ragcore/query"
	"github.com/poiesic/ragcore/storage"
	"github.com/poiesic/ragcore/storage/badger"
)

// ErrNoDocuments is returned when ingestion finds nothing to load.
var ErrNoDocuments = errors.New("no documents found")

// NewProvider creates the AI provider selected by cfg.Backend.
func NewProvider(cfg *ai.Config) (ai.AIProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case ai.BackendOllama:
		return ollama.NewProvider(cfg)
	case ai.BackendOpenAI:
		return openai.NewProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", core.ErrInvalidConfig, cfg.Backend)
	}
}

// Workspace ties a configuration to its document store, AI provider and
// index file.
type Workspace struct {
	cfg      *config.Config
	repos    *badger.Repositories
	provider ai.AIProvider
	progress io.Writer
	logger   *slog.Logger
}

// WorkspaceOption configures a Workspace.
type WorkspaceOption func(*workspaceOptions)

type workspaceOptions struct {
	provider ai.AIProvider
	inMemory bool
	progress io.Writer
	logger   *slog.Logger
}

// WithProvider uses provider instead of creating one from the ai section.
func WithProvider(provider ai.AIProvider) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.provider = provider
	}
}

// WithInMemoryStore keeps the document store in memory.
func WithInMemoryStore() WorkspaceOption {
	return func(o *workspaceOptions) {
		o.inMemory = true
	}
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.progress = w
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) WorkspaceOption {
	return func(o *workspaceOptions) {
		o.logger = logger
	}
}

// Open validates cfg and opens the workspace it describes.
func Open(cfg *config.Config, opts ...WorkspaceOption) (*Workspace, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &workspaceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	var repos *badger.Repositories
	var err error
	if options.inMemory {
		repos, err = badger.NewMemoryRepositories()
	} else {
		repos, err = badger.OpenRepositories(cfg.Store.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	provider := options.provider
	if provider == nil {
		provider, err = NewProvider(cfg.AIConfig())
		if err != nil {
			repos.Close()
			return nil, err
		}
	}

	return &Workspace{
		cfg:      cfg,
		repos:    repos,
		provider: provider,
		progress: options.progress,
		logger:   options.logger.With("component", "workspace"),
	}, nil
}

// Close releases the provider and the store.
func (w *Workspace) Close() error {
	if err := w.provider.Close(); err != nil {
		w.logger.Error("error closing AI provider", "err", err)
	}
	if err := w.repos.Close(); err != nil {
		w.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}

func (w *Workspace) Config() *config.Config {
	return w.cfg
}

func (w *Workspace) Provider() ai.AIProvider {
	return w.provider
}

func (w *Workspace) Documents() storage.DocumentRepository {
	return w.repos.Documents
}

func (w *Workspace) EmbeddingCache() storage.EmbeddingCache {
	return w.repos.Cache
}

// IndexPath returns the configured index file.
func (w *Workspace) IndexPath() string {
	return w.cfg.Index.Path
}

// NewPipeline creates an ingestion pipeline from the configuration. Extra
// options are applied last.
func (w *Workspace) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	metric, err := w.cfg.MetricValue()
	if err != nil {
		return nil, err
	}

	base := []ingestion.Option{
		ingestion.WithLogger(w.logger),
		ingestion.WithPoolSize(w.cfg.Ingest.Workers),
		ingestion.WithBatchSize(w.cfg.Ingest.BatchSize),
		ingestion.WithRetry(w.cfg.Ingest.MaxAttempts, w.cfg.Ingest.RetryDelay),
		ingestion.WithMetric(metric),
		ingestion.WithNormalize(w.cfg.Index.Normalize),
		ingestion.WithDocuments(w.repos.Documents),
	}
	if w.cfg.Ingest.Cache {
		base = append(base, ingestion.WithCache(w.repos.Cache, w.cfg.AI.EmbeddingModel))
	}
	if w.progress != nil {
		base = append(base, ingestion.WithProgress(w.progress, w.cfg.Ingest.BatchSize))
	}

	return ingestion.NewPipeline(w.provider.Embedder(), w.cfg.Chunking.Size, w.cfg.Chunking.Overlap,
		append(base, opts...)...)
}

// Ingest loads paths, builds a new index from them and saves it together with
// its manifest.
func (w *Workspace) Ingest(ctx context.Context, paths ...string) (*ingestion.Result, error) {
	docs, err := loader.New(loader.WithLogger(w.logger)).LoadPaths(paths...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return w.IngestDocuments(ctx, docs)
}

// IngestDocuments builds a new index from docs and saves it.
func (w *Workspace) IngestDocuments(ctx context.Context, docs []core.Document) (*ingestion.Result, error) {
	pipeline, err := w.NewPipeline()
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	result, err := pipeline.Ingest(ctx, docs)
	if err != nil {
		return nil, err
	}
	if err := w.save(ctx, result, pipeline.ChunkSize(), pipeline.Overlap()); err != nil {
		return nil, err
	}

	w.logger.Info("ingestion complete",
		"documents", result.Documents,
		"chunks", result.Chunks,
		"embedded", result.Embedded,
		"cacheHits", result.CacheHits,
		"index", w.cfg.Index.Path)
	return result, nil
}

// Reembed rebuilds the saved index with the configured embedding model. When
// purge is set and the model changed, cached vectors of the old model are
// removed.
func (w *Workspace) Reembed(ctx context.Context, purge bool) (*ingestion.Result, error) {
	idx, err := w.LoadIndex()
	if err != nil {
		return nil, err
	}
	previous, err := w.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	pipeline, err := w.NewPipeline()
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	result, err := pipeline.Reembed(ctx, idx)
	if err != nil {
		return nil, err
	}
	// Chunks are carried over, so the chunking parameters are too.
	chunkSize, overlap := w.cfg.Chunking.Size, w.cfg.Chunking.Overlap
	if previous != nil {
		chunkSize, overlap = previous.ChunkSize, previous.Overlap
	}
	if err := w.save(ctx, result, chunkSize, overlap); err != nil {
		return nil, err
	}

	if purge && previous != nil && previous.EmbeddingModel != w.cfg.AI.EmbeddingModel {
		n, err := w.repos.Cache.PurgeModel(ctx, previous.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		w.logger.Info("purged cached embeddings", "model", previous.EmbeddingModel, "removed", n)
	}
	return result, nil
}

// LoadIndex loads the configured index file.
func (w *Workspace) LoadIndex() (*index.Index, error) {
	return index.Load(w.cfg.Index.Path)
}

// Manifest returns how the configured index was built, or nil if unknown.
func (w *Workspace) Manifest(ctx context.Context) (*core.Manifest, error) {
	return w.repos.Manifests.LoadManifest(ctx, w.manifestName())
}

// NewEngine creates a query engine over idx using the configured defaults.
func (w *Workspace) NewEngine(idx *index.Index, opts ...query.Option) (*query.Engine, error) {
	base := []query.Option{
		query.WithLogger(w.logger),
		query.WithDefaults(w.cfg.Query.K, w.cfg.Query.MaxContextChars),
	}
	return query.NewEngine(idx, w.provider.Embedder(), w.provider.Generator(), append(base, opts...)...)
}

// Ask loads the index and answers a single question.
func (w *Workspace) Ask(ctx context.Context, question string) (*core.QueryResult, error) {
	idx, err := w.LoadIndex()
	if err != nil {
		return nil, err
	}
	engine, err := w.NewEngine(idx)
	if err != nil {
		return nil, err
	}
	return engine.Ask(ctx, question)
}

func (w *Workspace) save(ctx context.Context, result *ingestion.Result, chunkSize, overlap int) error {
	if err := result.Index.Save(w.cfg.Index.Path); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return w.repos.Manifests.SaveManifest(ctx, &core.Manifest{
		Name:           w.manifestName(),
		EmbeddingModel: w.cfg.AI.EmbeddingModel,
		Metric:         result.Index.Metric(),
		ChunkSize:      chunkSize,
		Overlap:        overlap,
		Dimension:      result.Index.Dimension(),
		Documents:      result.Documents,
		Chunks:         result.Chunks,
		BuiltAt:        time.Now().UTC(),
	})
}

func (w *Workspace) manifestName() string {
	if abs, err := filepath.Abs(w.cfg.Index.Path); err == nil {
		return abs
	}
	return w.cfg.Index.Path
}
