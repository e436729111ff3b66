package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name:    "valid document",
			doc:     &Document{ID: "doc", Text: "hello"},
			wantErr: nil,
		},
		{
			name:    "valid document with empty text",
			doc:     &Document{ID: "doc"},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "empty id",
			doc:     &Document{Text: "hello"},
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "invalid utf-8 text",
			doc:     &Document{ID: "doc", Text: "ab\xffcd"},
			wantErr: ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *Chunk
		wantErr bool
	}{
		{
			name:  "valid chunk",
			chunk: &Chunk{ID: "d:0", DocumentID: "d", Text: "ABCD", StartOffset: 0, EndOffset: 4},
		},
		{
			name:  "valid multibyte chunk",
			chunk: &Chunk{ID: "d:1", DocumentID: "d", Text: "héllo", StartOffset: 10, EndOffset: 15},
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: true,
		},
		{
			name:    "empty id",
			chunk:   &Chunk{DocumentID: "d", Text: "A", StartOffset: 0, EndOffset: 1},
			wantErr: true,
		},
		{
			name:    "empty document id",
			chunk:   &Chunk{ID: "d:0", Text: "A", StartOffset: 0, EndOffset: 1},
			wantErr: true,
		},
		{
			name:    "empty span",
			chunk:   &Chunk{ID: "d:0", DocumentID: "d", StartOffset: 4, EndOffset: 4},
			wantErr: true,
		},
		{
			name:    "negative start",
			chunk:   &Chunk{ID: "d:0", DocumentID: "d", Text: "A", StartOffset: -1, EndOffset: 0},
			wantErr: true,
		},
		{
			name:    "text does not match span",
			chunk:   &Chunk{ID: "d:0", DocumentID: "d", Text: "ABC", StartOffset: 0, EndOffset: 4},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidChunk) {
					t.Errorf("ValidateChunk() error = %v, want ErrInvalidChunk", err)
				}
				return
			}
			if err != nil {
				t.Errorf("ValidateChunk() unexpected error = %v", err)
			}
		})
	}
}

func TestValidateMetric(t *testing.T) {
	if err := ValidateMetric(MetricCosine); err != nil {
		t.Errorf("ValidateMetric(cosine) = %v", err)
	}
	if err := ValidateMetric(MetricDot); err != nil {
		t.Errorf("ValidateMetric(dot) = %v", err)
	}
	if err := ValidateMetric(Metric(0)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ValidateMetric(0) = %v, want ErrInvalidConfig", err)
	}
}
