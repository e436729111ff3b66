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


package core

import "errors"

// Core errors. InvalidConfig and DimensionMismatch are permanent;
// EmbedderError and GeneratorError wrap failures of injected backends.
var (
	// ErrInvalidConfig indicates bad chunking or query parameters.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDimensionMismatch indicates embedding vectors of inconsistent length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyIndex indicates a search against an index with zero entries.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrCorruptIndex indicates a persisted index failed verification on load.
	ErrCorruptIndex = errors.New("index is corrupt")

	// ErrEmbedder wraps failures reported by an embedding backend.
	ErrEmbedder = errors.New("embedder error")

	// ErrGenerator wraps failures reported by a generation backend.
	ErrGenerator = errors.New("generator error")

	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")
)
