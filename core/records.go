package core

import "time"

// DocumentRecord is the persisted registry entry for an ingested document.
type DocumentRecord struct {
	Document
	// ContentID is the content hash of Text, used to detect changed sources.
	ContentID  ID
	Chunks     int
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// NewDocumentRecord creates a registry entry for doc.
func NewDocumentRecord(doc Document, chunks int) *DocumentRecord {
	return &DocumentRecord{
		Document:  doc,
		ContentID: IDFromContent(doc.Text),
		Chunks:    chunks,
	}
}

// Manifest describes how a saved index was built.
type Manifest struct {
	// Name identifies the index, typically its file path.
	Name           string
	EmbeddingModel string
	Metric         Metric
	ChunkSize      int
	Overlap        int
	Dimension      int
	Documents      int
	Chunks         int
	BuiltAt        time.Time
}
