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


package core

import (
	"fmt"
	"unicode/utf8"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Text must be valid UTF-8
//
// Empty text is valid; it simply produces no chunks.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidDocument)
	}
	if !utf8.ValidString(doc.Text) {
		return fmt.Errorf("%w: document %s text is not valid UTF-8", ErrInvalidDocument, doc.ID)
	}
	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - ID and DocumentID must not be empty
//   - StartOffset must be non-negative and EndOffset > StartOffset
//   - Text must contain exactly EndOffset-StartOffset code points
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidChunk)
	}
	if chunk.DocumentID == "" {
		return fmt.Errorf("%w: chunk %s has no document id", ErrInvalidChunk, chunk.ID)
	}
	if chunk.StartOffset < 0 || chunk.EndOffset <= chunk.StartOffset {
		return fmt.Errorf("%w: chunk %s has span [%d,%d)", ErrInvalidChunk,
			chunk.ID, chunk.StartOffset, chunk.EndOffset)
	}
	if n := utf8.RuneCountInString(chunk.Text); n != chunk.Len() {
		return fmt.Errorf("%w: chunk %s text has %d characters, span covers %d",
			ErrInvalidChunk, chunk.ID, n, chunk.Len())
	}
	return nil
}

// ValidateMetric validates that a Metric has a known value.
func ValidateMetric(m Metric) error {
	if m != MetricCosine && m != MetricDot {
		return fmt.Errorf("%w: similarity metric %d", ErrInvalidConfig, m)
	}
	return nil
}
