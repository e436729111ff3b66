package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/ragcore/core"
)

func entry(docID string, seq int, text string, vec ...float32) core.IndexEntry {
	start := seq * 100
	return core.IndexEntry{
		Chunk: core.Chunk{
			ID:          core.ChunkID(docID, seq),
			DocumentID:  docID,
			Text:        text,
			StartOffset: start,
			EndOffset:   start + len([]rune(text)),
		},
		Vector: vec,
	}
}

func sampleEntries() []core.IndexEntry {
	return []core.IndexEntry{
		entry("doc", 0, "alpha", 1, 0, 0),
		entry("doc", 1, "beta", 0, 1, 0),
		entry("doc", 2, "gamma", 0, 0, 1),
		entry("other", 0, "délta", 0.7, 0.7, 0),
	}
}

func TestBuild(t *testing.T) {
	idx, err := Build(sampleEntries())
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, 3, idx.Dimension())
	assert.Equal(t, core.MetricCosine, idx.Metric())

	e, ok := idx.Entry(1)
	require.True(t, ok)
	assert.Equal(t, "doc:1", e.Chunk.ID)

	_, ok = idx.Entry(4)
	assert.False(t, ok)
	_, ok = idx.Entry(-1)
	assert.False(t, ok)
}

func TestBuild_Empty(t *testing.T) {
	idx, err := Build(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 0, idx.Dimension())
}

func TestBuild_DimensionMismatch(t *testing.T) {
	tests := []struct {
		name    string
		entries []core.IndexEntry
	}{
		{
			name: "differing lengths",
			entries: []core.IndexEntry{
				entry("d", 0, "a", 1, 2, 3),
				entry("d", 1, "b", 1, 2),
			},
		},
		{
			name:    "empty vector",
			entries: []core.IndexEntry{entry("d", 0, "a")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.entries)
			assert.ErrorIs(t, err, core.ErrDimensionMismatch)
		})
	}
}

func TestBuild_InvalidChunk(t *testing.T) {
	bad := entry("d", 0, "abc", 1)
	bad.Chunk.EndOffset = bad.Chunk.StartOffset

	_, err := Build([]core.IndexEntry{bad})
	assert.ErrorIs(t, err, core.ErrInvalidChunk)
}

func TestBuild_InvalidMetric(t *testing.T) {
	_, err := Build(sampleEntries(), WithMetric(core.Metric(9)))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestBuild_CopiesVectors(t *testing.T) {
	entries := sampleEntries()
	idx, err := Build(entries)
	require.NoError(t, err)

	entries[0].Vector[0] = -5
	e, _ := idx.Entry(0)
	assert.Equal(t, float32(1), e.Vector[0])

	e.Vector[0] = -7
	again, _ := idx.Entry(0)
	assert.Equal(t, float32(1), again.Vector[0])
}

func TestAppend(t *testing.T) {
	idx, err := New()
	require.NoError(t, err)

	require.NoError(t, idx.Append(entry("d", 0, "a", 1, 0)))
	require.NoError(t, idx.Append(entry("d", 1, "b", 0, 1), entry("d", 2, "c", 1, 1)))
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 2, idx.Dimension())

	err = idx.Append(entry("d", 3, "d", 1, 1), entry("d", 4, "e", 1, 1, 1))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
	assert.Equal(t, 3, idx.Len(), "failed append must leave the index unchanged")

	chunks := idx.Chunks()
	require.Len(t, chunks, 3)
	assert.Equal(t, "d:2", chunks[2].ID)
}

func TestCheckAppend(t *testing.T) {
	idx, err := Build(sampleEntries()[:2])
	require.NoError(t, err)

	tests := []struct {
		name    string
		entries []core.IndexEntry
		wantErr error
	}{
		{"matching dimension", []core.IndexEntry{entry("new", 0, "x", 1, 1, 1)}, nil},
		{"wrong dimension", []core.IndexEntry{entry("new", 0, "x", 1, 1)}, core.ErrDimensionMismatch},
		{"empty vector", []core.IndexEntry{entry("new", 0, "x")}, core.ErrDimensionMismatch},
		{"invalid chunk", []core.IndexEntry{{Chunk: core.Chunk{ID: "bad"}, Vector: []float32{1, 1, 1}}}, core.ErrInvalidChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := idx.CheckAppend(tt.entries...)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 2, idx.Len())
			assert.Equal(t, 3, idx.Dimension())
		})
	}
}

func TestSearch_Ranking(t *testing.T) {
	idx, err := Build(sampleEntries())
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0.1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "doc:0", hits[0].Entry.Chunk.ID)
	assert.Equal(t, "other:0", hits[1].Entry.Chunk.ID)
	assert.GreaterOrEqual(t, hits[0].Score, hits[1].Score)
	assert.InDelta(t, 0.995, hits[0].Score, 0.001)
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	idx, err := Build(sampleEntries())
	require.NoError(t, err)

	hits, err := idx.Search([]float32{0, 0, 1}, 50)
	require.NoError(t, err)
	require.Len(t, hits, 4)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	idx, err := Build([]core.IndexEntry{
		entry("d", 0, "a", 1, 0),
		entry("d", 1, "b", 0, 1),
		entry("d", 2, "c", 2, 0),
		entry("d", 3, "e", 3, 0),
	})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, "d:0", hits[0].Entry.Chunk.ID)
	assert.Equal(t, "d:2", hits[1].Entry.Chunk.ID)
	assert.Equal(t, "d:3", hits[2].Entry.Chunk.ID)
}

func TestSearch_DotMetric(t *testing.T) {
	idx, err := Build([]core.IndexEntry{
		entry("d", 0, "a", 1, 0),
		entry("d", 1, "b", 3, 0),
		entry("d", 2, "c", 0, 5),
	}, WithMetric(core.MetricDot))
	require.NoError(t, err)

	hits, err := idx.Search([]float32{2, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, "d:1", hits[0].Entry.Chunk.ID)
	assert.Equal(t, float32(6), hits[0].Score)
	assert.Equal(t, "d:2", hits[1].Entry.Chunk.ID)
	assert.Equal(t, float32(5), hits[1].Score)
	assert.Equal(t, float32(2), hits[2].Score)
}

func TestSearch_ZeroNorm(t *testing.T) {
	idx, err := Build([]core.IndexEntry{
		entry("d", 0, "a", 0, 0),
		entry("d", 1, "b", 1, 0),
	})
	require.NoError(t, err)

	hits, err := idx.Search([]float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, "d:1", hits[0].Entry.Chunk.ID)
	assert.Equal(t, float32(0), hits[1].Score)

	hits, err = idx.Search([]float32{0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(0), hits[0].Score)
	assert.Equal(t, float32(0), hits[1].Score)
}

func TestSearch_Errors(t *testing.T) {
	idx, err := Build(sampleEntries())
	require.NoError(t, err)

	_, err = idx.Search([]float32{1, 0, 0}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = idx.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	empty, err := New()
	require.NoError(t, err)
	_, err = empty.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, core.ErrEmptyIndex)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	for _, metric := range []core.Metric{core.MetricCosine, core.MetricDot} {
		t.Run(metric.String(), func(t *testing.T) {
			idx, err := Build(sampleEntries(), WithMetric(metric))
			require.NoError(t, err)

			path := filepath.Join(t.TempDir(), "index.bin")
			require.NoError(t, idx.Save(path))

			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, idx.Len(), loaded.Len())
			assert.Equal(t, idx.Dimension(), loaded.Dimension())
			assert.Equal(t, metric, loaded.Metric())
			assert.Equal(t, idx.Entries(), loaded.Entries())

			queries := [][]float32{
				{1, 0, 0},
				{0.3, 0.3, 0.9},
				{-1, 2, 0.5},
			}
			for _, q := range queries {
				want, err := idx.Search(q, 3)
				require.NoError(t, err)
				got, err := loaded.Search(q, 3)
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		})
	}
}

func TestSaveLoad_EmptyIndex(t *testing.T) {
	idx, err := New(WithMetric(core.MetricDot))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
	assert.Equal(t, core.MetricDot, loaded.Metric())

	_, err = loaded.Search([]float32{1}, 1)
	assert.ErrorIs(t, err, core.ErrEmptyIndex)
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")

	first, err := Build(sampleEntries()[:1])
	require.NoError(t, err)
	require.NoError(t, first.Save(path))

	second, err := Build(sampleEntries())
	require.NoError(t, err)
	require.NoError(t, second.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Len())

	matches, err := filepath.Glob(path + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrCorruptIndex)
}

func TestReadHeader(t *testing.T) {
	idx, err := Build(sampleEntries(), WithMetric(core.MetricDot))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, idx.Save(path))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, uint64(FormatVersion), h.Version)
	assert.Equal(t, 3, h.Dimension)
	assert.Equal(t, 4, h.Count)
	assert.Equal(t, core.MetricDot, h.Metric)
	assert.Len(t, h.Checksum, 32)
}
