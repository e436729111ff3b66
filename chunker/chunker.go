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


package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/ragcore/core"
)

const (
	// DefaultChunkSize is the default window length in characters.
	DefaultChunkSize = 1000
	// DefaultOverlap is the default number of characters shared by adjacent windows.
	DefaultOverlap = 100
)

// ValidateParams checks chunking parameters.
// chunkSize must be positive and overlap must satisfy 0 <= overlap < chunkSize.
func ValidateParams(chunkSize, overlap int) error {
	if chunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrInvalidConfig, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return fmt.Errorf("%w: overlap must be in [0,%d), got %d", core.ErrInvalidConfig, chunkSize, overlap)
	}
	return nil
}

// Split slides a window of chunkSize characters over doc.Text, advancing by
// chunkSize-overlap each step. The final window is truncated to the remaining
// text. Characters are Unicode code points; offsets are code point indices.
// Text that is not valid UTF-8 is rejected with core.ErrInvalidDocument.
func Split(doc core.Document, chunkSize, overlap int) ([]core.Chunk, error) {
	if err := ValidateParams(chunkSize, overlap); err != nil {
		return nil, err
	}
	if !utf8.ValidString(doc.Text) {
		return nil, fmt.Errorf("%w: document %s text is not valid UTF-8", core.ErrInvalidDocument, doc.ID)
	}
	return split(doc, chunkSize, overlap), nil
}

func split(doc core.Document, chunkSize, overlap int) []core.Chunk {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return []core.Chunk{}
	}

	step := chunkSize - overlap
	chunks := make([]core.Chunk, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := min(start+chunkSize, len(runes))
		chunks = append(chunks, core.Chunk{
			ID:          core.ChunkID(doc.ID, len(chunks)),
			DocumentID:  doc.ID,
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// Reconstruct joins chunks of a single document back into its text, skipping
// the characters each chunk shares with its predecessor. Chunks must be in
// document order.
func Reconstruct(chunks []core.Chunk) string {
	var sb strings.Builder
	covered := 0
	for _, c := range chunks {
		if c.EndOffset <= covered {
			continue
		}
		runes := []rune(c.Text)
		skip := max(covered-c.StartOffset, 0)
		sb.WriteString(string(runes[skip:]))
		covered = c.EndOffset
	}
	return sb.String()
}
