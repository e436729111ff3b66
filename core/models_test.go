package core

import (
	"errors"
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("sample.pdf#p3", 7); got != "sample.pdf#p3:7" {
		t.Errorf("ChunkID() = %q", got)
	}
}

func TestChunk_Len(t *testing.T) {
	c := Chunk{StartOffset: 3, EndOffset: 7}
	if c.Len() != 4 {
		t.Errorf("Chunk.Len() = %d, want 4", c.Len())
	}
}

func TestMetric_String(t *testing.T) {
	tests := []struct {
		metric Metric
		want   string
	}{
		{MetricCosine, "cosine"},
		{MetricDot, "dot"},
		{Metric(42), "unknown(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.metric.String(); got != tt.want {
				t.Errorf("Metric.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Metric
		wantErr bool
	}{
		{name: "cosine", input: "cosine", want: MetricCosine},
		{name: "dot", input: "dot", want: MetricDot},
		{name: "empty defaults to cosine", input: "", want: MetricCosine},
		{name: "unknown", input: "euclidean", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMetric(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("ParseMetric() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMetric() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMetric() = %v, want %v", got, tt.want)
			}
		})
	}
}
