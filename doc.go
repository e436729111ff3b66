// Package ragcore is a small retrieval-augmented generation engine.
//
// Documents are split into overlapping character windows, embedded and stored
// in a flat vector index that can be saved to and loaded from a single
// checksummed file. Questions are answered by retrieving the best matching
// chunks and passing them, within a character budget, to a text generator.
//
// The core packages are chunker, index and query. Workspace wires them to a
// YAML configuration, a badger-backed document store and embedding cache, and
// an Ollama or OpenAI-compatible AI backend:
//
//	cfg, err := config.Load("ragcore.yaml")
//	ws, err := ragcore.Open(cfg)
//	defer ws.Close()
//
//	if _, err := ws.Ingest(ctx, "docs/manual.pdf"); err != nil { ... }
//	result, err := ws.Ask(ctx, "How long is the warranty?")
package ragcore
