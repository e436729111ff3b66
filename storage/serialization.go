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
	"fmt"
	"slices"

	"github.com/poiesic/ragcore/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	var e encoder
	e.uint(uint64(id))
	return e.buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := decoder{buf: data}
	id := core.ID(d.uint())
	return id, d.finish()
}

// MarshalVector serializes an embedding vector to bytes.
// Floats are stored as raw IEEE-754 bits.
func MarshalVector(vec []float32) []byte {
	e := encoder{buf: make([]byte, 0, len(vec)*4+2)}
	e.vector(vec)
	return e.buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	d := decoder{buf: data}
	vec := d.vector()
	if err := d.finish(); err != nil {
		return nil, err
	}
	return vec, nil
}

// MarshalDocumentRecord serializes a DocumentRecord to bytes.
// Metadata is written in key order so equal records encode identically.
func MarshalDocumentRecord(record *core.DocumentRecord) []byte {
	var e encoder
	e.string(record.ID)
	e.string(record.Text)

	keys := make([]string, 0, len(record.Metadata))
	for k := range record.Metadata {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	e.uint(uint64(len(keys)))
	for _, k := range keys {
		e.string(k)
		e.string(record.Metadata[k])
	}

	e.uint(uint64(record.ContentID))
	e.uint(uint64(record.Chunks))
	e.time(record.InsertedAt)
	e.time(record.UpdatedAt)
	return e.buf
}

// UnmarshalDocumentRecord deserializes a DocumentRecord from bytes.
func UnmarshalDocumentRecord(data []byte) (*core.DocumentRecord, error) {
	d := decoder{buf: data}
	record := &core.DocumentRecord{}
	record.ID = d.string()
	record.Text = d.string()

	n := d.uint()
	if n > uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d metadata entries", ErrTruncatedData, n)
	}
	if n > 0 {
		record.Metadata = make(map[string]string, n)
		for i := uint64(0); i < n && d.err == nil; i++ {
			k := d.string()
			record.Metadata[k] = d.string()
		}
	}

	record.ContentID = core.ID(d.uint())
	record.Chunks = int(d.uint())
	record.InsertedAt = d.time()
	record.UpdatedAt = d.time()
	if err := d.finish(); err != nil {
		return nil, err
	}
	return record, nil
}

// MarshalManifest serializes a Manifest to bytes.
func MarshalManifest(m *core.Manifest) []byte {
	var e encoder
	e.string(m.Name)
	e.string(m.EmbeddingModel)
	e.uint(uint64(m.Metric))
	e.uint(uint64(m.ChunkSize))
	e.uint(uint64(m.Overlap))
	e.uint(uint64(m.Dimension))
	e.uint(uint64(m.Documents))
	e.uint(uint64(m.Chunks))
	e.time(m.BuiltAt)
	return e.buf
}

// UnmarshalManifest deserializes a Manifest from bytes.
func UnmarshalManifest(data []byte) (*core.Manifest, error) {
	d := decoder{buf: data}
	m := &core.Manifest{
		Name:           d.string(),
		EmbeddingModel: d.string(),
		Metric:         core.Metric(d.uint()),
		ChunkSize:      int(d.uint()),
		Overlap:        int(d.uint()),
		Dimension:      int(d.uint()),
		Documents:      int(d.uint()),
		Chunks:         int(d.uint()),
		BuiltAt:        d.time(),
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// MarshalCachedEmbedding serializes a cached vector together with the text it
// was computed from, so lookups can reject hash collisions.
func MarshalCachedEmbedding(text string, vec []float32) []byte {
	e := encoder{buf: make([]byte, 0, len(text)+len(vec)*4+4)}
	e.string(text)
	e.vector(vec)
	return e.buf
}

// UnmarshalCachedEmbedding deserializes a cached vector and its source text.
func UnmarshalCachedEmbedding(data []byte) (string, []float32, error) {
	d := decoder{buf: data}
	text := d.string()
	vec := d.vector()
	if err := d.finish(); err != nil {
		return "", nil, err
	}
	return text, vec, nil
}
