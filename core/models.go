package core

import (
	"encoding/binary"
	"strconv"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier used as a storage key.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a unit of source text, typically a single PDF page.
// Documents are immutable once loaded.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string // e.g. "source", "page", "total_pages"
}

// Chunk is a window over a Document's text.
// Offsets count Unicode code points, StartOffset inclusive and EndOffset exclusive.
type Chunk struct {
	ID          string
	DocumentID  string
	Text        string
	StartOffset int
	EndOffset   int
}

// Len returns the number of code points covered by the chunk.
func (c Chunk) Len() int {
	return c.EndOffset - c.StartOffset
}

// ChunkID builds the identifier of the seq-th chunk of a document.
func ChunkID(documentID string, seq int) string {
	return documentID + ":" + strconv.Itoa(seq)
}

// EmbeddingVector is a fixed-length embedding produced by an embedding model.
type EmbeddingVector []float32

// IndexEntry pairs a chunk with its embedding.
type IndexEntry struct {
	Chunk  Chunk
	Vector EmbeddingVector
}

// SearchHit is a ranked index entry returned from a similarity search.
type SearchHit struct {
	Entry IndexEntry
	Score float32
}

// QueryResult is the outcome of answering a single question.
// UsedChunks and Scores are parallel and ordered by descending score.
type QueryResult struct {
	Answer     string
	UsedChunks []Chunk
	Scores     []float32
}

// Metric selects the similarity function of an index.
type Metric int

const (
	// MetricCosine ranks by cosine similarity.
	MetricCosine Metric = iota + 1
	// MetricDot ranks by raw inner product.
	MetricDot
)

// String returns the canonical name of the metric.
func (m Metric) String() string {
	switch m {
	case MetricCosine:
		return "cosine"
	case MetricDot:
		return "dot"
	default:
		return "unknown(" + strconv.Itoa(int(m)) + ")"
	}
}

// ParseMetric converts a metric name to a Metric.
func ParseMetric(name string) (Metric, error) {
	switch name {
	case "cosine", "":
		return MetricCosine, nil
	case "dot":
		return MetricDot, nil
	default:
		return 0, &MetricError{Name: name}
	}
}

// MetricError reports an unrecognized metric name.
type MetricError struct {
	Name string
}

func (e *MetricError) Error() string {
	return "unknown similarity metric " + strconv.Quote(e.Name)
}

// Unwrap lets callers match ErrInvalidConfig.
func (e *MetricError) Unwrap() error {
	return ErrInvalidConfig
}
