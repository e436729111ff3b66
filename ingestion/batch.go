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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/poiesic/ragcore/core"
)

// embed returns one vector per text, in input order. Batches run on the pool;
// the first failure cancels the batches still waiting.
func (p *Pipeline) embed(ctx context.Context, label string, texts []string) ([][]float32, *Result, error) {
	vectors := make([][]float32, len(texts))
	if len(texts) == 0 {
		return vectors, &Result{}, nil
	}

	tracker := NewProgressTracker(p.progress, label, len(texts), p.reportInterval)
	if p.progress != nil {
		tracker.Start()
		defer tracker.Finish()
	}

	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	numBatches := (len(texts) + p.batchSize - 1) / p.batchSize
	errs := make([]error, numBatches)
	var embedded, hits atomic.Int64
	var wg sync.WaitGroup

	for b := 0; b < numBatches; b++ {
		start := b * p.batchSize
		end := min(start+p.batchSize, len(texts))

		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			n, h, err := p.embedBatch(batchCtx, texts[start:end], vectors[start:end])
			if err != nil {
				errs[b] = fmt.Errorf("batch %d: %w", b, err)
				cancel()
				return
			}
			embedded.Add(int64(n))
			hits.Add(int64(h))
			tracker.Increment(end - start)
		})
		if err != nil {
			wg.Done()
			errs[b] = err
			cancel()
			break
		}
	}
	wg.Wait()

	if err := joinBatchErrors(ctx, errs); err != nil {
		p.logger.Error("embedding failed", "err", err)
		return nil, nil, err
	}

	p.logger.Debug("embedded texts", "texts", len(texts), "embedded", embedded.Load(), "cacheHits", hits.Load())
	return vectors, &Result{Embedded: int(embedded.Load()), CacheHits: int(hits.Load())}, nil
}

// embedBatch fills out with vectors for texts, consulting the cache first.
// It returns how many texts were sent to the embedder and how many were cached.
func (p *Pipeline) embedBatch(ctx context.Context, texts []string, out [][]float32) (int, int, error) {
	missing := make([]int, 0, len(texts))
	if p.cache != nil {
		cached, err := p.cache.GetEmbeddings(ctx, p.model, texts)
		if err != nil {
			p.logger.Warn("embedding cache lookup failed", "err", err)
			cached = nil
		}
		for i := range texts {
			if cached != nil && cached[i] != nil {
				out[i] = p.finish(cached[i])
				continue
			}
			missing = append(missing, i)
		}
	} else {
		for i := range texts {
			missing = append(missing, i)
		}
	}

	hits := len(texts) - len(missing)
	if len(missing) == 0 {
		return 0, hits, nil
	}

	toEmbed := make([]string, len(missing))
	for i, j := range missing {
		toEmbed[i] = texts[j]
	}

	var vecs [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vecs, err = p.embedder.EmbedTexts(ctx, toEmbed)
		if err != nil {
			return err
		}
		if len(vecs) != len(toEmbed) {
			return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(toEmbed), len(vecs))
		}
		return nil
	}, p.maxAttempts, p.retryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return 0, hits, ctx.Err()
		}
		if errors.Is(err, core.ErrEmbedder) {
			return 0, hits, err
		}
		return 0, hits, fmt.Errorf("%w: %w", core.ErrEmbedder, err)
	}

	for i, j := range missing {
		out[j] = p.finish(vecs[i])
	}

	if p.cache != nil {
		if err := p.cache.PutEmbeddings(ctx, p.model, toEmbed, vecs); err != nil {
			p.logger.Warn("embedding cache store failed", "err", err)
		}
	}
	return len(toEmbed), hits, nil
}

func (p *Pipeline) finish(v []float32) []float32 {
	if p.normalize {
		return NormalizeVector(v)
	}
	return v
}

// joinBatchErrors drops cancellations caused by a sibling batch failing, unless
// the caller's own context was cancelled.
func joinBatchErrors(ctx context.Context, errs []error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var kept []error
	for _, err := range errs {
		if err == nil || errors.Is(err, context.Canceled) {
			continue
		}
		kept = append(kept, err)
	}
	return errors.Join(kept...)
}
