package chunker

import (
	"log/slog"

	"github.com/poiesic/ragcore/core"
)

// Splitter applies a fixed chunking configuration to many documents.
// Parameters are validated once at construction so callers fail before doing
// any expensive work.
type Splitter struct {
	chunkSize int
	overlap   int
	logger    *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewSplitter creates a Splitter, returning core.ErrInvalidConfig for bad parameters.
func NewSplitter(chunkSize, overlap int, opts ...Option) (*Splitter, error) {
	if err := ValidateParams(chunkSize, overlap); err != nil {
		return nil, err
	}
	s := &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "chunker")
	return s, nil
}

// ChunkSize returns the configured window length.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split chunks a single document.
func (s *Splitter) Split(doc core.Document) []core.Chunk {
	return split(doc, s.chunkSize, s.overlap)
}

// SplitAll chunks documents in order, concatenating their chunks.
// Documents failing validation are rejected before any chunking happens.
func (s *Splitter) SplitAll(docs []core.Document) ([]core.Chunk, error) {
	for i := range docs {
		if err := core.ValidateDocument(&docs[i]); err != nil {
			return nil, err
		}
	}

	var all []core.Chunk
	for _, doc := range docs {
		chunks := s.Split(doc)
		s.logger.Debug("split document", "document", doc.ID, "chunks", len(chunks))
		all = append(all, chunks...)
	}
	return all, nil
}
