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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/chunker"
	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/index"
	"github.com/poiesic/ragcore/storage"
)

const (
	// DefaultBatchSize is the number of texts sent to the embedder per call.
	DefaultBatchSize = 32
	// DefaultMaxAttempts is how often a failing embedding batch is tried.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay = 500 * time.Millisecond
)

// Pipeline builds indexes from documents.
type Pipeline struct {
	embedder       ai.Embedder
	splitter       *chunker.Splitter
	chunkSize      int
	overlap        int
	cache          storage.EmbeddingCache
	model          string
	documents      storage.DocumentRepository
	pool           *ants.Pool
	batchSize      int
	maxAttempts    int
	retryDelay     time.Duration
	metric         core.Metric
	normalize      bool
	progress       io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of batches embedded concurrently.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithBatchSize sets how many texts are embedded per call.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size must be positive, got %d", core.ErrInvalidConfig, size)
		}
		p.batchSize = size
		return nil
	}
}

// WithRetry sets the attempts per batch and the base backoff delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(p *Pipeline) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = baseDelay
		return nil
	}
}

// WithCache reuses vectors stored under model and stores new ones.
func WithCache(cache storage.EmbeddingCache, model string) Option {
	return func(p *Pipeline) error {
		if cache != nil && model == "" {
			return ErrModelRequired
		}
		p.cache = cache
		p.model = model
		return nil
	}
}

// WithDocuments records every ingested document in repo.
func WithDocuments(repo storage.DocumentRepository) Option {
	return func(p *Pipeline) error {
		p.documents = repo
		return nil
	}
}

// WithMetric sets the similarity metric of built indexes. Default is cosine.
func WithMetric(m core.Metric) Option {
	return func(p *Pipeline) error {
		if err := core.ValidateMetric(m); err != nil {
			return err
		}
		p.metric = m
		return nil
	}
}

// WithNormalize scales every vector to unit length before indexing.
func WithNormalize(normalize bool) Option {
	return func(p *Pipeline) error {
		p.normalize = normalize
		return nil
	}
}

// WithProgress reports embedding progress to w every interval chunks.
func WithProgress(w io.Writer, interval int) Option {
	return func(p *Pipeline) error {
		p.progress = w
		p.reportInterval = interval
		return nil
	}
}

// NewPipeline creates a pipeline. Chunking parameters are validated before
// anything else, so a bad configuration never reaches the embedder.
func NewPipeline(embedder ai.Embedder, chunkSize, overlap int, opts ...Option) (*Pipeline, error) {
	if err := chunker.ValidateParams(chunkSize, overlap); err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		embedder:       embedder,
		chunkSize:      chunkSize,
		overlap:        overlap,
		batchSize:      DefaultBatchSize,
		maxAttempts:    DefaultMaxAttempts,
		retryDelay:     DefaultRetryDelay,
		metric:         core.MetricCosine,
		reportInterval: 100,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			p.Release()
			return nil, err
		}
	}

	if p.pool == nil {
		pool, err := ants.NewPool(max(runtime.NumCPU()/2, 1))
		if err != nil {
			return nil, err
		}
		p.pool = pool
	}

	p.logger = p.logger.With("component", "ingestion")
	splitter, err := chunker.NewSplitter(chunkSize, overlap, chunker.WithLogger(p.logger))
	if err != nil {
		p.Release()
		return nil, err
	}
	p.splitter = splitter

	return p, nil
}

// Result summarizes an ingestion or re-embedding run.
type Result struct {
	Index     *index.Index
	Documents int
	Chunks    int
	// Embedded counts texts sent to the embedder; CacheHits counts reused vectors.
	Embedded  int
	CacheHits int
}

// ChunkSize returns the configured chunk size.
func (p *Pipeline) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Pipeline) Overlap() int {
	return p.overlap
}

// Metric returns the metric of indexes built by Ingest.
func (p *Pipeline) Metric() core.Metric {
	return p.metric
}

// Ingest chunks and embeds docs and builds a new index from them.
func (p *Pipeline) Ingest(ctx context.Context, docs []core.Document) (*Result, error) {
	idx, err := index.New(index.WithMetric(p.metric))
	if err != nil {
		return nil, err
	}
	return p.IngestInto(ctx, idx, docs)
}

// IngestInto chunks and embeds docs and appends them to idx. On failure idx is
// unchanged.
func (p *Pipeline) IngestInto(ctx context.Context, idx *index.Index, docs []core.Document) (*Result, error) {
	chunks, err := p.splitter.SplitAll(docs)
	if err != nil {
		return nil, err
	}
	p.logger.Info("ingesting documents", "documents", len(docs), "chunks", len(chunks))

	entries, stats, err := p.embedChunks(ctx, "Embedding", chunks)
	if err != nil {
		return nil, err
	}
	if err := idx.CheckAppend(entries...); err != nil {
		return nil, err
	}
	if p.documents != nil {
		if err := p.recordDocuments(ctx, docs, chunks); err != nil {
			return nil, err
		}
	}
	// Checked above, so the index is only touched once nothing else can fail.
	if err := idx.Append(entries...); err != nil {
		return nil, err
	}

	stats.Index = idx
	stats.Documents = len(docs)
	return stats, nil
}

// Reembed embeds every chunk of idx again and returns a new index with the same
// chunks, order and metric. idx is not modified.
func (p *Pipeline) Reembed(ctx context.Context, idx *index.Index) (*Result, error) {
	chunks := idx.Chunks()
	p.logger.Info("re-embedding index", "chunks", len(chunks), "model", p.model)

	entries, stats, err := p.embedChunks(ctx, "Re-embedding", chunks)
	if err != nil {
		return nil, err
	}
	rebuilt, err := index.Build(entries, index.WithMetric(idx.Metric()))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.DocumentID] = struct{}{}
	}

	stats.Index = rebuilt
	stats.Documents = len(seen)
	return stats, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) embedChunks(ctx context.Context, label string, chunks []core.Chunk) ([]core.IndexEntry, *Result, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, stats, err := p.embed(ctx, label, texts)
	if err != nil {
		return nil, nil, err
	}

	entries := make([]core.IndexEntry, len(chunks))
	for i := range chunks {
		entries[i] = core.IndexEntry{Chunk: chunks[i], Vector: vectors[i]}
	}
	stats.Chunks = len(chunks)
	return entries, stats, nil
}

func (p *Pipeline) recordDocuments(ctx context.Context, docs []core.Document, chunks []core.Chunk) error {
	counts := make(map[string]int, len(docs))
	for _, c := range chunks {
		counts[c.DocumentID]++
	}
	records := make([]*core.DocumentRecord, len(docs))
	for i, doc := range docs {
		records[i] = core.NewDocumentRecord(doc, counts[doc.ID])
	}
	return p.documents.PutDocuments(ctx, records...)
}
