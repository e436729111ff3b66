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


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/ragcore/storage"
)

// EmbeddingCache implements storage.EmbeddingCache for BadgerDB.
type EmbeddingCache struct {
	backend *Backend
}

var _ storage.EmbeddingCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates a new EmbeddingCache.
func NewEmbeddingCache(backend *Backend) *EmbeddingCache {
	return &EmbeddingCache{
		backend: backend,
	}
}

// Close releases resources. EmbeddingCache has no resources to release.
func (c *EmbeddingCache) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (c *EmbeddingCache) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.backend.WithTransaction(ctx, fn)
}

// GetEmbeddings looks up cached vectors. Misses are nil.
func (c *EmbeddingCache) GetEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error) {
	if model == "" {
		return nil, fmt.Errorf("%w: model is required", storage.ErrInvalidQuery)
	}

	results := make([][]float32, len(texts))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeEmbeddingKey(model, text))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				stored, vec, err := storage.UnmarshalCachedEmbedding(val)
				if err != nil {
					return err
				}
				// A different stored text is a hash collision, reported as a miss.
				if stored == text {
					results[i] = vec
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// PutEmbeddings stores vectors for texts under model.
func (c *EmbeddingCache) PutEmbeddings(ctx context.Context, model string, texts []string, vectors [][]float32) error {
	if model == "" {
		return fmt.Errorf("%w: model is required", storage.ErrInvalidQuery)
	}
	if len(texts) != len(vectors) {
		return fmt.Errorf("%w: %d texts but %d vectors", storage.ErrInvalidQuery, len(texts), len(vectors))
	}

	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	wb := c.backend.db.NewWriteBatch()
	defer wb.Cancel()
	for i, text := range texts {
		if err := wb.Set(makeEmbeddingKey(model, text), storage.MarshalCachedEmbedding(text, vectors[i])); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// PurgeModel removes every cached vector for model.
func (c *EmbeddingCache) PurgeModel(ctx context.Context, model string) (int, error) {
	if model == "" {
		return 0, fmt.Errorf("%w: model is required", storage.ErrInvalidQuery)
	}
	n, err := c.backend.deletePrefix(makeEmbeddingModelPrefix(model))
	if err != nil {
		return n, err
	}
	c.backend.logger.Debug("purged embedding cache", "model", model, "removed", n)
	return n, nil
}
