package storage

import (
	"math"
	"testing"
	"time"

	"github.com/poiesic/ragcore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"trailing bytes", append(MarshalID(7), 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalID(tt.data)
			assert.ErrorIs(t, err, ErrSerializationFailed)
		})
	}
}

func TestMarshalUnmarshalVector(t *testing.T) {
	vec := []float32{0, -1.5, math.SmallestNonzeroFloat32, math.MaxFloat32, 0.1}

	decoded, err := UnmarshalVector(MarshalVector(vec))
	require.NoError(t, err)
	require.Len(t, decoded, len(vec))
	for i := range vec {
		assert.Equal(t, math.Float32bits(vec[i]), math.Float32bits(decoded[i]))
	}

	empty, err := UnmarshalVector(MarshalVector(nil))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUnmarshalVector_Truncated(t *testing.T) {
	data := MarshalVector([]float32{1, 2, 3})
	_, err := UnmarshalVector(data[:len(data)-2])
	assert.Error(t, err)
}

func TestMarshalUnmarshalDocumentRecord(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name   string
		record *core.DocumentRecord
	}{
		{
			name: "minimal record",
			record: &core.DocumentRecord{
				Document: core.Document{ID: "notes.txt", Text: "hello"},
			},
		},
		{
			name: "pdf page with metadata",
			record: &core.DocumentRecord{
				Document: core.Document{
					ID:   "manual.pdf#p2",
					Text: "Page two, café ✓",
					Metadata: map[string]string{
						"source":      "manual.pdf",
						"page":        "2",
						"total_pages": "10",
					},
				},
				ContentID:  core.IDFromContent("Page two, café ✓"),
				Chunks:     3,
				InsertedAt: now,
				UpdatedAt:  now.Add(time.Minute),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDocumentRecord(tt.record)
			decoded, err := UnmarshalDocumentRecord(data)
			require.NoError(t, err)
			assert.Equal(t, tt.record, decoded)
		})
	}
}

func TestMarshalDocumentRecord_Deterministic(t *testing.T) {
	record := &core.DocumentRecord{
		Document: core.Document{
			ID:       "d",
			Metadata: map[string]string{"a": "1", "b": "2", "c": "3", "d": "4"},
		},
	}
	first := MarshalDocumentRecord(record)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, MarshalDocumentRecord(record))
	}
}

func TestUnmarshalDocumentRecord_Invalid(t *testing.T) {
	data := MarshalDocumentRecord(&core.DocumentRecord{Document: core.Document{ID: "doc", Text: "text"}})

	_, err := UnmarshalDocumentRecord(data[:3])
	assert.Error(t, err)

	_, err = UnmarshalDocumentRecord(nil)
	assert.Error(t, err)
}

func TestMarshalUnmarshalManifest(t *testing.T) {
	m := &core.Manifest{
		Name:           "/data/index.bin",
		EmbeddingModel: "all-minilm",
		Metric:         core.MetricCosine,
		ChunkSize:      1000,
		Overlap:        100,
		Dimension:      384,
		Documents:      12,
		Chunks:         97,
		BuiltAt:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	decoded, err := UnmarshalManifest(MarshalManifest(m))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)
}

func TestMarshalUnmarshalCachedEmbedding(t *testing.T) {
	text, vec, err := UnmarshalCachedEmbedding(MarshalCachedEmbedding("chunk text", []float32{0.25, -2}))
	require.NoError(t, err)
	assert.Equal(t, "chunk text", text)
	assert.Equal(t, []float32{0.25, -2}, vec)
}
