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


package index

import (
	"fmt"
	"math"
	"slices"

	"github.com/poiesic/ragcore/core"
)

// Index stores chunks with their embeddings and answers nearest-neighbour
// queries over them.
//
// An Index has a single writer: Build, Append and Load produce or grow it,
// after which any number of goroutines may call Search and the accessors
// concurrently. Mutating an Index while it is being searched is not supported.
type Index struct {
	metric    core.Metric
	dimension int
	entries   []core.IndexEntry
	norms     []float64
}

// Option configures an Index.
type Option func(*Index)

// WithMetric sets the similarity metric.
// Default is core.MetricCosine.
func WithMetric(m core.Metric) Option {
	return func(idx *Index) {
		idx.metric = m
	}
}

// New creates an empty index.
func New(opts ...Option) (*Index, error) {
	idx := &Index{metric: core.MetricCosine}
	for _, opt := range opts {
		opt(idx)
	}
	if err := core.ValidateMetric(idx.metric); err != nil {
		return nil, err
	}
	return idx, nil
}

// Build creates an index from entries. All vectors must be non-empty and share
// one length. Vectors are copied, so callers may reuse their slices.
func Build(entries []core.IndexEntry, opts ...Option) (*Index, error) {
	idx, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := idx.Append(entries...); err != nil {
		return nil, err
	}
	return idx, nil
}

// Append adds entries to the end of the index. The batch is validated as a
// whole; on error the index is left unchanged.
func (idx *Index) Append(entries ...core.IndexEntry) error {
	dim, err := idx.check(entries)
	if err != nil {
		return err
	}

	idx.entries = slices.Grow(idx.entries, len(entries))
	idx.norms = slices.Grow(idx.norms, len(entries))
	for _, e := range entries {
		vec := slices.Clone(e.Vector)
		idx.entries = append(idx.entries, core.IndexEntry{Chunk: e.Chunk, Vector: vec})
		idx.norms = append(idx.norms, norm(vec))
	}
	idx.dimension = dim
	return nil
}

// CheckAppend reports the error Append would return for entries without
// modifying the index.
func (idx *Index) CheckAppend(entries ...core.IndexEntry) error {
	_, err := idx.check(entries)
	return err
}

func (idx *Index) check(entries []core.IndexEntry) (int, error) {
	dim := idx.dimension
	for i := range entries {
		e := &entries[i]
		if err := core.ValidateChunk(&e.Chunk); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		if len(e.Vector) == 0 {
			return 0, fmt.Errorf("%w: entry %d (%s) has an empty vector", core.ErrDimensionMismatch, i, e.Chunk.ID)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return 0, fmt.Errorf("%w: entry %d (%s) has %d dimensions, expected %d",
				core.ErrDimensionMismatch, i, e.Chunk.ID, len(e.Vector), dim)
		}
	}
	return dim, nil
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Dimension returns the vector length, or 0 for an empty index.
func (idx *Index) Dimension() int {
	return idx.dimension
}

// Metric returns the similarity metric.
func (idx *Index) Metric() core.Metric {
	return idx.metric
}

// Entry returns a copy of the i-th entry in insertion order.
func (idx *Index) Entry(i int) (core.IndexEntry, bool) {
	if i < 0 || i >= len(idx.entries) {
		return core.IndexEntry{}, false
	}
	return cloneEntry(idx.entries[i]), true
}

// Entries returns a copy of all entries in insertion order.
func (idx *Index) Entries() []core.IndexEntry {
	out := make([]core.IndexEntry, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Chunks returns the chunks in insertion order.
func (idx *Index) Chunks() []core.Chunk {
	out := make([]core.Chunk, len(idx.entries))
	for i, e := range idx.entries {
		out[i] = e.Chunk
	}
	return out
}

func cloneEntry(e core.IndexEntry) core.IndexEntry {
	return core.IndexEntry{Chunk: e.Chunk, Vector: slices.Clone(e.Vector)}
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
