// Package ingestion turns documents into a searchable index.
//
// A Pipeline splits documents with a chunker.Splitter, embeds the chunk texts
// in batches on an ants worker pool and builds an index.Index from the results.
// Batches are written back positionally, so the entry order of the index is
// the chunk order regardless of which batch finishes first.
//
// Embedding calls are retried with exponential backoff. When an
// EmbeddingCache is configured, vectors already computed for the same model and
// text are reused, so re-ingesting unchanged documents costs no embedding calls.
//
// Reembed rebuilds an existing index with the pipeline's embedder, keeping every
// chunk and its position.
package ingestion
