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


// Package storage provides the persistence abstraction for ragcore's
// ingestion state.
//
// The vector index itself is a single file (see package index). This package
// covers what surrounds it:
//
//   - DocumentRepository: registry of ingested source documents
//   - EmbeddingCache: vectors keyed by (model, text)
//   - ManifestRepository: how each saved index was built
//
// # Constructor Return Type Pattern
//
// Implementation packages hand out repositories as interfaces:
//
//	repos, err := badger.OpenRepositories("/path/to/db")
//	// repos.Documents is a storage.DocumentRepository
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer repos.Close()
//
// Values are serialized with mus-go.
package storage
