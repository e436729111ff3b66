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


package storage

import (
	"context"

	"github.com/poiesic/ragcore/core"
)

// Repository is the base interface shared by all repositories.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	// The shared backend is closed separately.
	Close() error
}

// DocumentRepository is the registry of ingested source documents.
type DocumentRepository interface {
	Repository

	// PutDocuments inserts or replaces documents keyed by Document.ID.
	// InsertedAt is preserved across replacements; UpdatedAt is always set.
	PutDocuments(ctx context.Context, records ...*core.DocumentRecord) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id string) (*core.DocumentRecord, error)

	// ListDocuments returns all documents ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.DocumentRecord, error)

	// DeleteDocuments removes documents by ID.
	// Returns ErrNotFound if any document doesn't exist.
	DeleteDocuments(ctx context.Context, ids ...string) error
}

// EmbeddingCache stores vectors keyed by (model, text) so unchanged chunks are
// never embedded twice with the same model.
type EmbeddingCache interface {
	Repository

	// GetEmbeddings looks up texts for model. The result is parallel to texts
	// with nil entries for misses.
	GetEmbeddings(ctx context.Context, model string, texts []string) ([][]float32, error)

	// PutEmbeddings stores vectors for texts under model.
	// texts and vectors must have the same length.
	PutEmbeddings(ctx context.Context, model string, texts []string, vectors [][]float32) error

	// PurgeModel removes every cached vector for model and returns how many were removed.
	PurgeModel(ctx context.Context, model string) (int, error)
}

// ManifestRepository records how saved indexes were built.
type ManifestRepository interface {
	// SaveManifest persists a manifest keyed by Manifest.Name.
	SaveManifest(ctx context.Context, manifest *core.Manifest) error

	// LoadManifest retrieves the manifest for name.
	// Returns nil, nil if no manifest exists.
	LoadManifest(ctx context.Context, name string) (*core.Manifest, error)
}
