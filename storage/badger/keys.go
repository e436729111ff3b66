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
	"encoding/binary"

	"github.com/poiesic/ragcore/core"
)

const (
	documentPrefix  = "docrec:"
	embeddingPrefix = "embc:"
	manifestPrefix  = "manifest:"

	deleteBatchSize = 1000
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + id)
}

// makeEmbeddingModelPrefix generates the key prefix shared by every vector of a model.
// Format: prefix:model:
func makeEmbeddingModelPrefix(model string) []byte {
	return []byte(embeddingPrefix + model + ":")
}

// makeEmbeddingKey generates a key for a cached vector.
// Format: prefix:model:contentID
func makeEmbeddingKey(model, text string) []byte {
	prefix := makeEmbeddingModelPrefix(model)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(text)))
	return buf
}

// makeManifestKey generates a key for an index manifest.
func makeManifestKey(name string) []byte {
	return []byte(manifestPrefix + name)
}
